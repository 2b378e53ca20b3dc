package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-insurance-mlops/internal/core/domain"
	"vehicle-insurance-mlops/internal/testutil"
)

func TestPredictionService_NotLoaded(t *testing.T) {
	p := newTestPipeline(t, nil)

	_, err := p.prediction.Current()
	assert.ErrorIs(t, err, domain.ErrModelNotLoaded)

	_, err = p.prediction.Predict(positiveRecord())
	assert.ErrorIs(t, err, domain.ErrModelNotLoaded)

	err = p.prediction.Reload(context.Background())
	assert.ErrorIs(t, err, domain.ErrModelNotFound)
}

func TestPredictionService_Predict(t *testing.T) {
	p := newTestPipeline(t, nil)
	p.serve(testutil.SyntheticDocuments(600, 7))

	res, err := p.svc.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.Pusher)
	require.NoError(t, p.prediction.Reload(context.Background()))

	pointer, err := p.prediction.Current()
	require.NoError(t, err)
	assert.Equal(t, res.Pusher.Key, pointer.Key)

	yes, err := p.prediction.Predict(positiveRecord())
	require.NoError(t, err)
	assert.Equal(t, 1, yes.Class)
	assert.Equal(t, LabelPositive, yes.Label)
	assert.Greater(t, yes.Probability, 0.5)
	assert.Equal(t, res.Pusher.Key, yes.ModelKey)

	no, err := p.prediction.Predict(negativeRecord())
	require.NoError(t, err)
	assert.Equal(t, 0, no.Class)
	assert.Equal(t, LabelNegative, no.Label)
	assert.LessOrEqual(t, no.Probability, 0.5)

	bad := positiveRecord()
	bad["Age"] = "forty"
	_, err = p.prediction.Predict(bad)
	assert.ErrorIs(t, err, domain.ErrInvalidFeature)
}
