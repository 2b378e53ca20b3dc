package ml

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-insurance-mlops/internal/core/domain"
	"vehicle-insurance-mlops/internal/testutil"
)

func tinySchema() *domain.Schema {
	return &domain.Schema{
		TargetColumn: "Response",
		DropColumns:  []string{"id"},
		MaxNullRatio: 0.5,
		Columns: []domain.ColumnSpec{
			{Name: "id", Type: domain.ColumnTypeInt},
			{Name: "Gender", Type: domain.ColumnTypeCategory},
			{Name: "Age", Type: domain.ColumnTypeInt},
			{Name: "Premium", Type: domain.ColumnTypeFloat},
			{Name: "Damage", Type: domain.ColumnTypeCategory},
			{Name: "Channel", Type: domain.ColumnTypeFloat},
			{Name: "Response", Type: domain.ColumnTypeInt},
		},
		Transform: domain.TransformRules{
			StandardScale: []string{"Age"},
			MinMaxScale:   []string{"Premium"},
			BinaryMap:     map[string]map[string]float64{"Gender": {"Female": 0, "Male": 1}},
			OneHot:        []string{"Damage"},
			DropFirst:     true,
		},
	}
}

func tinyFrame(t *testing.T) *domain.Frame {
	t.Helper()
	frame := domain.NewFrame([]string{"id", "Gender", "Age", "Premium", "Damage", "Channel", "Response"})
	rows := [][]any{
		{1.0, "Male", 20.0, 100.0, "Yes", 7.0, 1.0},
		{2.0, "Female", 40.0, 300.0, "No", 8.0, 0.0},
		{3.0, "Male", 60.0, 200.0, "Yes", nil, 1.0},
		{4.0, "Male", nil, 500.0, "No", 9.0, 0.0},
	}
	for _, r := range rows {
		require.NoError(t, frame.Append(r))
	}
	return frame
}

func TestPreprocessor_FitTransform(t *testing.T) {
	pre := NewPreprocessor(tinySchema())
	require.NoError(t, pre.Fit(tinyFrame(t)))

	assert.Equal(t, []string{"Gender", "Age", "Premium", "Damage_Yes", "Channel"}, pre.FeatureNames())

	x, err := pre.Transform(tinyFrame(t))
	require.NoError(t, err)
	require.Len(t, x, 4)

	// Age: mean 40, population std sqrt(800/3); the null row is filled with the mean.
	assert.Equal(t, 1.0, x[0][0])
	assert.Equal(t, 0.0, x[1][0])
	assert.InDelta(t, -20/16.3299316, x[0][1], 1e-6)
	assert.InDelta(t, 0.0, x[3][1], 1e-9)
	// Premium min-max over [100, 500].
	assert.InDelta(t, 0.0, x[0][2], 1e-9)
	assert.InDelta(t, 0.25, x[2][2], 1e-9)
	assert.InDelta(t, 1.0, x[3][2], 1e-9)
	// Damage one-hot with the first sorted category dropped.
	assert.Equal(t, 1.0, x[0][3])
	assert.Equal(t, 0.0, x[1][3])
	// Channel passes through; the null is filled with the mean.
	assert.Equal(t, 7.0, x[0][4])
	assert.InDelta(t, 8.0, x[2][4], 1e-9)
}

func TestPreprocessor_TransformRecord(t *testing.T) {
	pre := NewPreprocessor(tinySchema())
	require.NoError(t, pre.Fit(tinyFrame(t)))

	row, err := pre.TransformRecord(map[string]any{
		"Gender": "Female", "Age": 40, "Premium": 300.0, "Damage": "No", "Channel": int64(8),
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0.5, 0, 8}, row)

	_, err = pre.TransformRecord(map[string]any{"Gender": "Other", "Age": 40.0})
	assert.ErrorIs(t, err, domain.ErrInvalidFeature)

	_, err = pre.TransformRecord(map[string]any{"Gender": "Male", "Age": "forty"})
	assert.ErrorIs(t, err, domain.ErrInvalidFeature)

	// Unseen one-hot categories encode as zeros.
	row, err = pre.TransformRecord(map[string]any{"Gender": "Male", "Damage": "Maybe"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, row[3])
}

func TestPreprocessor_NotFitted(t *testing.T) {
	pre := NewPreprocessor(tinySchema())
	_, err := pre.Transform(tinyFrame(t))
	assert.ErrorIs(t, err, domain.ErrNotFitted)
}

func TestPreprocessor_DeterministicAndSerialisable(t *testing.T) {
	frame := testutil.SyntheticFrame(150, 2)

	a := NewPreprocessor(loadSchema(t))
	require.NoError(t, a.Fit(frame))
	b := NewPreprocessor(loadSchema(t))
	require.NoError(t, b.Fit(frame.Clone()))
	assert.Equal(t, a, b)

	raw, err := json.Marshal(a)
	require.NoError(t, err)
	var restored Preprocessor
	require.NoError(t, json.Unmarshal(raw, &restored))

	want, err := a.Transform(frame)
	require.NoError(t, err)
	got, err := restored.Transform(frame)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
