package ml

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vehicle-insurance-mlops/internal/core/domain"
	"vehicle-insurance-mlops/internal/schema"
	"vehicle-insurance-mlops/internal/testutil"
)

func loadSchema(t *testing.T) *domain.Schema {
	t.Helper()
	s, err := schema.Load("")
	require.NoError(t, err)
	return s
}

// encodedSynthetic fits a preprocessor on a synthetic frame and returns the
// encoded rows with their labels.
func encodedSynthetic(t *testing.T, n int, seed int64) (*Preprocessor, [][]float64, []int) {
	t.Helper()
	frame := testutil.SyntheticFrame(n, seed)
	pre := NewPreprocessor(loadSchema(t))
	require.NoError(t, pre.Fit(frame))
	x, err := pre.Transform(frame)
	require.NoError(t, err)
	y, err := frame.Labels("Response")
	require.NoError(t, err)
	return pre, x, y
}

// thresholdData puts the negatives in [0, 0.4) and the positives in
// [0.6, 1) on a single feature.
func thresholdData(n int) ([][]float64, []int) {
	half := n / 2
	x := make([][]float64, 0, n)
	y := make([]int, 0, n)
	for i := 0; i < half; i++ {
		x = append(x, []float64{0.4 * float64(i) / float64(half)})
		y = append(y, 0)
	}
	for i := half; i < n; i++ {
		x = append(x, []float64{0.6 + 0.4*float64(i-half)/float64(n-half)})
		y = append(y, 1)
	}
	return x, y
}
