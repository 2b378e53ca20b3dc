package ml

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"time"

	"vehicle-insurance-mlops/internal/core/domain"
)

// FormatVersion is bumped whenever the encoded model layout changes.
const FormatVersion = 1

// Model is the deployable artifact: the fitted preprocessor and forest
// travel together so any model can score raw records on its own.
type Model struct {
	FormatVersion int                          `json:"format_version"`
	CreatedAt     time.Time                    `json:"created_at"`
	Preprocessor  *Preprocessor                `json:"preprocessor"`
	Forest        *Forest                      `json:"forest"`
	Features      []string                     `json:"features"`
	Scoring       string                       `json:"scoring"`
	CVScore       float64                      `json:"cv_score"`
	TestMetrics   domain.ClassificationMetrics `json:"test_metrics"`
}

func NewModel(pre *Preprocessor, forest *Forest) *Model {
	return &Model{
		FormatVersion: FormatVersion,
		CreatedAt:     time.Now().UTC(),
		Preprocessor:  pre,
		Forest:        forest,
		Features:      pre.FeatureNames(),
	}
}

// Encode serialises the model as gzip-compressed JSON.
func (m *Model) Encode() ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := json.NewEncoder(zw).Encode(m); err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress model: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeModel reverses Encode.
func DecodeModel(data []byte) (*Model, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptArtifact, err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptArtifact, err)
	}
	var m Model
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptArtifact, err)
	}
	if m.FormatVersion != FormatVersion || m.Preprocessor == nil || m.Forest == nil || len(m.Forest.Trees) == 0 {
		return nil, fmt.Errorf("%w: incomplete or unsupported model (format %d)", domain.ErrCorruptArtifact, m.FormatVersion)
	}
	return &m, nil
}

// PredictRecord scores one raw record keyed by column name.
func (m *Model) PredictRecord(rec map[string]any) (int, float64, error) {
	row, err := m.Preprocessor.TransformRecord(rec)
	if err != nil {
		return 0, 0, err
	}
	p, err := m.Forest.PredictProba(row)
	if err != nil {
		return 0, 0, err
	}
	if p > 0.5 {
		return 1, p, nil
	}
	return 0, p, nil
}

// ScoreFrame predicts every row of a raw frame and scores it against the
// frame's target column.
func (m *Model) ScoreFrame(frame *domain.Frame, scoring string) (float64, error) {
	y, err := frame.Labels(m.Preprocessor.Target)
	if err != nil {
		return 0, err
	}
	x, err := m.Preprocessor.Transform(frame)
	if err != nil {
		return 0, err
	}
	pred, err := m.Forest.PredictAll(x)
	if err != nil {
		return 0, err
	}
	return Score(scoring, y, pred)
}

// ShuffleSplit permutes 0..n-1 with the seed and cuts off the first
// round(n*testRatio) indices as the test split.
func ShuffleSplit(n int, testRatio float64, seed int64) (train, test []int, err error) {
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, domain.ErrInvalidSplit
	}
	nTest := int(float64(n)*testRatio + 0.5)
	if nTest == 0 || nTest == n {
		return nil, nil, domain.ErrInvalidSplit
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}
