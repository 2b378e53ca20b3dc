package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-insurance-mlops/internal/core/domain"
)

func TestFrameCSV_RoundTrip(t *testing.T) {
	frame := domain.NewFrame([]string{"Gender", "Age", "Region_Code"})
	require.NoError(t, frame.Append([]any{"Male", 44.0, 28.0}))
	require.NoError(t, frame.Append([]any{"Female", nil, 3.5}))

	path := filepath.Join(t.TempDir(), "nested", "train.csv")
	require.NoError(t, WriteFrameCSV(path, frame))

	got, err := ReadFrameCSV(path)
	require.NoError(t, err)
	assert.Equal(t, frame.Columns(), got.Columns())
	assert.Equal(t, 2, got.Len())
	assert.Equal(t, []any{"Male", 44.0, 28.0}, got.Row(0))
	assert.Equal(t, []any{"Female", nil, 3.5}, got.Row(1))
}

func TestReadFrameCSV_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := ReadFrameCSV(path)
	assert.ErrorIs(t, err, domain.ErrEmptyDataset)
}

func TestMatrixCSV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix.csv")
	x := [][]float64{{0.5, -1.25}, {1e-9, 3}}
	y := []int{1, 0}

	require.NoError(t, WriteMatrixCSV(path, []string{"a", "b"}, x, y))

	features, gotX, gotY, err := ReadMatrixCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, features)
	assert.Equal(t, x, gotX)
	assert.Equal(t, y, gotY)
}

func TestWriteMatrixCSV_ShapeMismatch(t *testing.T) {
	err := WriteMatrixCSV(filepath.Join(t.TempDir(), "m.csv"), []string{"a"}, [][]float64{{1}}, nil)
	assert.ErrorIs(t, err, domain.ErrShapeMismatch)
}

func TestParseCell(t *testing.T) {
	assert.Nil(t, ParseCell(""))
	assert.Nil(t, ParseCell("NaN"))
	assert.Equal(t, 12.5, ParseCell("12.5"))
	assert.Equal(t, "1-2 Year", ParseCell("1-2 Year"))
}

func TestJSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	in := map[string]int{"rows": 3}

	require.NoError(t, WriteJSON(filepath.Join(dir, "a.json"), in))
	var out map[string]int
	require.NoError(t, ReadJSON(filepath.Join(dir, "a.json"), &out))
	assert.Equal(t, in, out)

	require.NoError(t, WriteYAML(filepath.Join(dir, "b.yaml"), in))
	data, err := os.ReadFile(filepath.Join(dir, "b.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "rows: 3\n", string(data))
}
