package services

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"vehicle-insurance-mlops/internal/artifact"
	"vehicle-insurance-mlops/internal/core/domain"
	"vehicle-insurance-mlops/internal/ml"
)

type TrainerService struct{}

func NewTrainerService() *TrainerService {
	return &TrainerService{}
}

// Run searches the hyperparameter grid on the transformed train array, refits
// the winner and stores it together with the fitted preprocessor.
func (s *TrainerService) Run(ctx context.Context, cfg domain.TrainerConfig, in domain.TransformationArtifact) (domain.TrainerArtifact, error) {
	if err := ctx.Err(); err != nil {
		return domain.TrainerArtifact{}, err
	}

	var pre ml.Preprocessor
	if err := artifact.ReadJSON(in.PreprocessorPath, &pre); err != nil {
		return domain.TrainerArtifact{}, err
	}
	if !pre.Fitted {
		return domain.TrainerArtifact{}, domain.ErrNotFitted
	}
	_, trainX, trainY, err := artifact.ReadMatrixCSV(in.TrainArrayPath)
	if err != nil {
		return domain.TrainerArtifact{}, fmt.Errorf("read train array: %w", err)
	}
	_, testX, testY, err := artifact.ReadMatrixCSV(in.TestArrayPath)
	if err != nil {
		return domain.TrainerArtifact{}, fmt.Errorf("read test array: %w", err)
	}

	search := ml.RandomizedSearch{
		Space:      cfg.Space,
		Iterations: cfg.Iterations,
		Folds:      cfg.Folds,
		Scoring:    cfg.Scoring,
		Seed:       cfg.Seed,
	}
	result, err := search.Run(trainX, trainY)
	if err != nil {
		return domain.TrainerArtifact{}, fmt.Errorf("randomized search: %w", err)
	}
	log.WithFields(log.Fields{
		"candidates": len(result.Candidates),
		"best_score": result.BestScore,
		"scoring":    cfg.Scoring,
		"params":     fmt.Sprintf("%+v", result.Best),
	}).Info("hyperparameter search finished")

	if result.BestScore < cfg.ExpectedScore {
		return domain.TrainerArtifact{}, fmt.Errorf("%w: best %s %.4f < expected %.4f",
			domain.ErrBelowExpectedScore, cfg.Scoring, result.BestScore, cfg.ExpectedScore)
	}

	trainPred, err := result.Forest.PredictAll(trainX)
	if err != nil {
		return domain.TrainerArtifact{}, err
	}
	testPred, err := result.Forest.PredictAll(testX)
	if err != nil {
		return domain.TrainerArtifact{}, err
	}

	model := ml.NewModel(&pre, result.Forest)
	model.Scoring = cfg.Scoring
	model.CVScore = result.BestScore
	model.TestMetrics = ml.Evaluate(testY, testPred)

	data, err := model.Encode()
	if err != nil {
		return domain.TrainerArtifact{}, err
	}
	if err := artifact.WriteFile(cfg.ModelPath, data); err != nil {
		return domain.TrainerArtifact{}, err
	}

	return domain.TrainerArtifact{
		ModelPath:    cfg.ModelPath,
		CVScore:      result.BestScore,
		BestParams:   result.Best,
		TrainMetrics: ml.Evaluate(trainY, trainPred),
		TestMetrics:  model.TestMetrics,
	}, nil
}
