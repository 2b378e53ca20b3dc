package services

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vehicle-insurance-mlops/internal/artifact"
	"vehicle-insurance-mlops/internal/core/domain"
	"vehicle-insurance-mlops/internal/testutil"
)

func TestPipelineService_Run_PushesFirstModel(t *testing.T) {
	p := newTestPipeline(t, nil)
	p.serve(testutil.SyntheticDocuments(600, 7))
	ctx := context.Background()

	res, err := p.svc.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.RunStatusSucceeded, res.Run.Status)
	assert.Equal(t, 450, res.Ingestion.TrainRows)
	assert.Equal(t, 150, res.Ingestion.TestRows)
	assert.True(t, res.Validation.Passed)
	assert.Zero(t, res.Evaluation.ReferenceScore)
	assert.True(t, res.Evaluation.Accepted)
	require.NotNil(t, res.Pusher)
	assert.Equal(t, domain.ModelKey("models", res.Config.Name), res.Pusher.Key)
	assert.Equal(t, "models-bucket", res.Pusher.Bucket)

	// The candidate must beat always predicting the majority class.
	test, err := artifact.ReadFrameCSV(res.Ingestion.TestPath)
	require.NoError(t, err)
	labels, err := test.Labels("Response")
	require.NoError(t, err)
	pos := 0
	for _, y := range labels {
		pos += y
	}
	majority := float64(max(pos, len(labels)-pos)) / float64(len(labels))
	assert.Greater(t, res.Trainer.TestMetrics.Accuracy, majority)

	pointer, err := p.catalog.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.Pusher.Key, pointer.Key)
	assert.Equal(t, res.Run.ID, pointer.RunID)
	assert.Equal(t, "f1", pointer.Scoring)

	stored, err := p.runs.GetByID(ctx, res.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusSucceeded, stored.Status)
	assert.Equal(t, domain.StagePusher, stored.Stage)
	assert.Equal(t, res.Pusher.Key, stored.ModelKey)
	assert.NotNil(t, stored.FinishedAt)
}

func TestPipelineService_Run_RejectsEqualModel(t *testing.T) {
	p := newTestPipeline(t, nil)
	p.serve(testutil.SyntheticDocuments(600, 7))
	ctx := context.Background()

	first, err := p.svc.Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, first.Pusher)

	// Same data and seed retrain the same model, which cannot clear the margin.
	second, err := p.svc.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.RunStatusRejected, second.Run.Status)
	assert.False(t, second.Evaluation.Accepted)
	assert.Equal(t, first.Pusher.Key, second.Evaluation.ReferenceKey)
	assert.InDelta(t, second.Evaluation.NewScore, second.Evaluation.ReferenceScore, 1e-9)
	assert.Nil(t, second.Pusher)

	pointer, err := p.catalog.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Pusher.Key, pointer.Key)

	exists, err := p.store.Exists(ctx, domain.ModelKey("models", second.Config.Name))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPipelineService_Run_PushesBetterModel(t *testing.T) {
	p := newTestPipeline(t, nil)
	p.serveSequence(
		invertResponses(testutil.SyntheticDocuments(600, 7)),
		testutil.SyntheticDocuments(600, 8),
	)
	ctx := context.Background()

	first, err := p.svc.Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, first.Pusher)

	second, err := p.svc.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.RunStatusSucceeded, second.Run.Status)
	assert.True(t, second.Evaluation.Accepted)
	assert.Equal(t, first.Pusher.Key, second.Evaluation.ReferenceKey)
	assert.Greater(t, second.Evaluation.NewScore, second.Evaluation.ReferenceScore+p.settings.Margin)
	require.NotNil(t, second.Pusher)
	assert.NotEqual(t, first.Pusher.Key, second.Pusher.Key)

	pointer, err := p.catalog.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.Pusher.Key, pointer.Key)
	assert.Equal(t, second.Run.ID, pointer.RunID)

	// The replaced model stays where it was pushed.
	exists, err := p.store.Exists(ctx, first.Pusher.Key)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPipelineService_Run_SameSecondRunsKeepArtifacts(t *testing.T) {
	p := newTestPipeline(t, nil)
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.svc.now = func() time.Time { return frozen }
	p.serveSequence(
		testutil.SyntheticDocuments(600, 7),
		testutil.SyntheticDocuments(900, 99),
	)
	ctx := context.Background()

	first, err := p.svc.Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, first.Pusher)
	firstTrain, err := os.ReadFile(first.Ingestion.TrainPath)
	require.NoError(t, err)

	second, err := p.svc.Run(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, domain.RunStatusFailed, second.Run.Status)

	assert.Equal(t, first.Config.Timestamp, second.Config.Timestamp)
	assert.NotEqual(t, first.Config.Dir, second.Config.Dir)
	assert.Equal(t, first.Config.Dir, first.Run.ArtifactDir)
	assert.Equal(t, second.Config.Dir, second.Run.ArtifactDir)
	assert.NotEqual(t, first.Config.Pusher.Key, second.Config.Pusher.Key)

	after, err := os.ReadFile(first.Ingestion.TrainPath)
	require.NoError(t, err)
	assert.Equal(t, firstTrain, after)
}

func TestPipelineService_Run_MissingReferenceObject(t *testing.T) {
	p := newTestPipeline(t, nil)
	p.serve(testutil.SyntheticDocuments(600, 7))
	ctx := context.Background()

	dangling, err := json.Marshal(domain.ModelPointer{Key: "models/gone/model.json.gz", Scoring: "f1", Score: 0.9})
	require.NoError(t, err)
	require.NoError(t, p.store.Put(ctx, p.catalog.PointerKey(), dangling, "application/json"))

	res, err := p.svc.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrReferenceMissing)
	assert.NotErrorIs(t, err, domain.ErrModelNotFound)
	assert.Contains(t, err.Error(), string(domain.StageEvaluation))
	assert.Equal(t, domain.RunStatusFailed, res.Run.Status)
	assert.Nil(t, res.Pusher)

	pointer, err := p.catalog.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "models/gone/model.json.gz", pointer.Key)
}

func TestPipelineService_Run_Busy(t *testing.T) {
	p := newTestPipeline(t, nil)
	p.svc.busy.Store(true)

	res, err := p.svc.Run(context.Background())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrPipelineBusy)
	p.source.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestPipelineService_Run_IngestionFailure(t *testing.T) {
	p := newTestPipeline(t, nil)
	p.source.On("Fetch", mock.Anything, testCollection).Return(nil, domain.ErrSourceUnavailable)

	res, err := p.svc.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), string(domain.StageIngestion))
	assert.Equal(t, domain.RunStatusFailed, res.Run.Status)
	assert.Equal(t, err.Error(), res.Run.Error)
	assert.False(t, p.svc.Running())
}

func TestPipelineService_Run_SchemaViolation(t *testing.T) {
	p := newTestPipeline(t, nil)
	docs := testutil.SyntheticDocuments(200, 3)
	for _, doc := range docs {
		for i := range doc {
			if doc[i].Key == "Gender" {
				doc[i].Value = "Unknown"
			}
		}
	}
	p.serve(docs)

	res, err := p.svc.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSchemaViolation)
	assert.Contains(t, err.Error(), string(domain.StageValidation))
	assert.Equal(t, domain.StageValidation, res.Run.Stage)
	assert.Equal(t, domain.RunStatusFailed, res.Run.Status)
	assert.False(t, res.Validation.Passed)
	require.NotEmpty(t, res.Validation.Violations)
	assert.Equal(t, domain.RuleUnexpectedCategory, res.Validation.Violations[0].Rule)
	assert.FileExists(t, res.Validation.ReportPath)
}

func TestPipelineService_Run_BelowExpectedScore(t *testing.T) {
	p := newTestPipeline(t, func(s *domain.PipelineSettings) { s.ExpectedScore = 1.01 })
	p.serve(testutil.SyntheticDocuments(300, 11))

	res, err := p.svc.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBelowExpectedScore)
	assert.Contains(t, err.Error(), string(domain.StageTraining))
	assert.Equal(t, domain.RunStatusFailed, res.Run.Status)

	_, err = p.catalog.Current(context.Background())
	assert.ErrorIs(t, err, domain.ErrModelNotFound)
}

func TestPipelineService_Run_RestartFailureKeepsPush(t *testing.T) {
	p := newTestPipeline(t, nil)
	p.deployer.ExpectedCalls = nil
	p.deployer.On("IsAvailable").Return(true)
	p.deployer.On("Restart", mock.Anything).Return(errors.New("forbidden"))
	p.serve(testutil.SyntheticDocuments(400, 5))

	res, err := p.svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusSucceeded, res.Run.Status)
	p.deployer.AssertCalled(t, "Restart", mock.Anything)
}

func TestPipelineService_Run_Canceled(t *testing.T) {
	p := newTestPipeline(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := p.svc.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.RunStatusFailed, res.Run.Status)

	stored, err := p.runs.GetByID(context.Background(), res.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, stored.Status)
}
