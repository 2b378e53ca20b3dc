package ml

import (
	"fmt"
	"strings"

	"vehicle-insurance-mlops/internal/core/domain"
)

// Supported scoring names.
const (
	ScoringAccuracy  = "accuracy"
	ScoringPrecision = "precision"
	ScoringRecall    = "recall"
	ScoringF1        = "f1"
)

// ValidateScoring rejects unknown scoring names.
func ValidateScoring(scoring string) error {
	switch strings.ToLower(scoring) {
	case ScoringAccuracy, ScoringPrecision, ScoringRecall, ScoringF1:
		return nil
	}
	return fmt.Errorf("%w: %q", domain.ErrUnsupportedScorer, scoring)
}

// Evaluate computes accuracy and positive-class precision, recall and F1.
// Undefined ratios (no predicted or no actual positives) are 0.
func Evaluate(yTrue, yPred []int) domain.ClassificationMetrics {
	var tp, tn, fp, fn float64
	for i := range yTrue {
		switch {
		case yTrue[i] == 1 && yPred[i] == 1:
			tp++
		case yTrue[i] == 0 && yPred[i] == 0:
			tn++
		case yTrue[i] == 0 && yPred[i] == 1:
			fp++
		default:
			fn++
		}
	}

	var m domain.ClassificationMetrics
	if total := tp + tn + fp + fn; total > 0 {
		m.Accuracy = (tp + tn) / total
	}
	if tp+fp > 0 {
		m.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		m.Recall = tp / (tp + fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

// Score picks one metric out of Evaluate by name.
func Score(scoring string, yTrue, yPred []int) (float64, error) {
	if len(yTrue) != len(yPred) {
		return 0, domain.ErrShapeMismatch
	}
	m := Evaluate(yTrue, yPred)
	switch strings.ToLower(scoring) {
	case ScoringAccuracy:
		return m.Accuracy, nil
	case ScoringPrecision:
		return m.Precision, nil
	case ScoringRecall:
		return m.Recall, nil
	case ScoringF1:
		return m.F1, nil
	}
	return 0, fmt.Errorf("%w: %q", domain.ErrUnsupportedScorer, scoring)
}

// MajorityBaseline is the accuracy of always predicting the most frequent label.
func MajorityBaseline(y []int) float64 {
	if len(y) == 0 {
		return 0
	}
	pos := 0
	for _, v := range y {
		pos += v
	}
	maj := pos
	if neg := len(y) - pos; neg > maj {
		maj = neg
	}
	return float64(maj) / float64(len(y))
}
