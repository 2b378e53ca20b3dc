package ml

import (
	"fmt"
	"math/rand"

	"vehicle-insurance-mlops/internal/core/domain"
)

// CandidateScore is the cross-validation outcome of one sampled combination.
type CandidateScore struct {
	Params     domain.ForestParams `json:"params"`
	FoldScores []float64           `json:"fold_scores"`
	Mean       float64             `json:"mean"`
}

type SearchResult struct {
	Best       domain.ForestParams `json:"best"`
	BestScore  float64             `json:"best_score"`
	Candidates []CandidateScore    `json:"candidates"`
	Forest     *Forest             `json:"-"`
}

// RandomizedSearch samples a bounded number of distinct grid points and
// scores each with stratified k-fold cross-validation.
type RandomizedSearch struct {
	Space      domain.SearchSpace
	Iterations int
	Folds      int
	Scoring    string
	Seed       int64
}

// Run picks the candidate with the highest mean validation score; ties go to
// the candidate sampled first. The winner is refit on all of x.
func (s RandomizedSearch) Run(x [][]float64, y []int) (*SearchResult, error) {
	size := s.Space.Size()
	if size == 0 || s.Iterations <= 0 {
		return nil, domain.ErrInvalidSearchSpace
	}
	if err := ValidateScoring(s.Scoring); err != nil {
		return nil, err
	}
	if err := checkTrainingSet(x, y); err != nil {
		return nil, err
	}

	folds, err := StratifiedKFold(y, s.Folds, s.Seed)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(s.Seed))
	picks := rng.Perm(size)[:min(s.Iterations, size)]

	result := &SearchResult{BestScore: -1}
	for _, pick := range picks {
		params := s.Space.At(pick)
		cand := CandidateScore{Params: params}
		for _, valIdx := range folds {
			score, err := s.scoreFold(x, y, valIdx, params)
			if err != nil {
				return nil, err
			}
			cand.FoldScores = append(cand.FoldScores, score)
			cand.Mean += score
		}
		cand.Mean /= float64(len(folds))
		result.Candidates = append(result.Candidates, cand)

		if cand.Mean > result.BestScore {
			result.BestScore = cand.Mean
			result.Best = params
		}
	}

	forest, err := FitForest(x, y, result.Best, s.Seed)
	if err != nil {
		return nil, fmt.Errorf("refit best candidate: %w", err)
	}
	result.Forest = forest
	return result, nil
}

func (s RandomizedSearch) scoreFold(x [][]float64, y []int, valIdx []int, params domain.ForestParams) (float64, error) {
	inVal := make(map[int]bool, len(valIdx))
	for _, i := range valIdx {
		inVal[i] = true
	}
	trainX := make([][]float64, 0, len(x)-len(valIdx))
	trainY := make([]int, 0, len(x)-len(valIdx))
	for i := range x {
		if !inVal[i] {
			trainX = append(trainX, x[i])
			trainY = append(trainY, y[i])
		}
	}

	forest, err := FitForest(trainX, trainY, params, s.Seed)
	if err != nil {
		return 0, fmt.Errorf("fit fold: %w", err)
	}

	valY := make([]int, len(valIdx))
	valPred := make([]int, len(valIdx))
	for j, i := range valIdx {
		valY[j] = y[i]
		if valPred[j], err = forest.Predict(x[i]); err != nil {
			return 0, err
		}
	}
	return Score(s.Scoring, valY, valPred)
}

// StratifiedKFold shuffles each class with the seed and deals its rows
// round-robin over k folds, so every fold keeps the class ratio. It returns
// the validation indices of each fold.
func StratifiedKFold(y []int, k int, seed int64) ([][]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("%w: need at least 2 folds, got %d", domain.ErrTrainingFailed, k)
	}
	byClass := map[int][]int{}
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	for label, members := range byClass {
		if len(members) < k {
			return nil, fmt.Errorf("%w: class %d has %d rows, fewer than %d folds", domain.ErrTrainingFailed, label, len(members), k)
		}
	}

	rng := rand.New(rand.NewSource(seed))
	folds := make([][]int, k)
	next := 0
	for _, label := range []int{0, 1} {
		members := append([]int(nil), byClass[label]...)
		rng.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
		for _, i := range members {
			folds[next%k] = append(folds[next%k], i)
			next++
		}
	}
	return folds, nil
}
