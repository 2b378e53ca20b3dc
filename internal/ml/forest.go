package ml

import (
	"fmt"
	"math/rand"

	"vehicle-insurance-mlops/internal/core/domain"
)

// Forest is a binary random-forest classifier.
type Forest struct {
	Params    domain.ForestParams `json:"params"`
	Seed      int64               `json:"seed"`
	NFeatures int                 `json:"n_features"`
	Trees     []Tree              `json:"trees"`
}

// DefaultForestParams mirrors the usual scikit-learn defaults.
func DefaultForestParams() domain.ForestParams {
	return domain.ForestParams{
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     "sqrt",
		Criterion:       "gini",
		Bootstrap:       true,
	}
}

// FitForest trains a forest sequentially. The result is a pure function of
// (x, y, params, seed).
func FitForest(x [][]float64, y []int, params domain.ForestParams, seed int64) (*Forest, error) {
	if err := checkTrainingSet(x, y); err != nil {
		return nil, err
	}
	if params.NEstimators <= 0 {
		return nil, fmt.Errorf("%w: n_estimators must be positive", domain.ErrTrainingFailed)
	}

	rng := rand.New(rand.NewSource(seed))
	n := len(x)
	f := &Forest{Params: params, Seed: seed, NFeatures: len(x[0]), Trees: make([]Tree, 0, params.NEstimators)}
	for t := 0; t < params.NEstimators; t++ {
		treeRng := rand.New(rand.NewSource(rng.Int63()))
		idx := make([]int, n)
		if params.Bootstrap {
			for i := range idx {
				idx[i] = treeRng.Intn(n)
			}
		} else {
			for i := range idx {
				idx[i] = i
			}
		}
		f.Trees = append(f.Trees, buildTree(x, y, idx, params, treeRng))
	}
	return f, nil
}

// PredictProba averages the positive-class probability over all trees.
func (f *Forest) PredictProba(row []float64) (float64, error) {
	if len(row) != f.NFeatures {
		return 0, fmt.Errorf("%w: expected %d features, got %d", domain.ErrShapeMismatch, f.NFeatures, len(row))
	}
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].PredictProba(row)
	}
	return sum / float64(len(f.Trees)), nil
}

// Predict returns class 1 when the mean probability exceeds one half.
func (f *Forest) Predict(row []float64) (int, error) {
	p, err := f.PredictProba(row)
	if err != nil {
		return 0, err
	}
	if p > 0.5 {
		return 1, nil
	}
	return 0, nil
}

func (f *Forest) PredictAll(x [][]float64) ([]int, error) {
	out := make([]int, len(x))
	for i, row := range x {
		c, err := f.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}

func checkTrainingSet(x [][]float64, y []int) error {
	if len(x) == 0 {
		return fmt.Errorf("%w: empty training set", domain.ErrTrainingFailed)
	}
	if len(x) != len(y) {
		return fmt.Errorf("%w: %d rows, %d labels", domain.ErrShapeMismatch, len(x), len(y))
	}
	width := len(x[0])
	if width == 0 {
		return fmt.Errorf("%w: no features", domain.ErrTrainingFailed)
	}
	var pos int
	for i, row := range x {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d features, want %d", domain.ErrShapeMismatch, i, len(row), width)
		}
		if y[i] != 0 && y[i] != 1 {
			return fmt.Errorf("%w: label %d at row %d is not binary", domain.ErrTrainingFailed, y[i], i)
		}
		pos += y[i]
	}
	if pos == 0 || pos == len(y) {
		return fmt.Errorf("%w: training labels contain a single class", domain.ErrTrainingFailed)
	}
	return nil
}
