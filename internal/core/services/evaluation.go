package services

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"vehicle-insurance-mlops/internal/artifact"
	"vehicle-insurance-mlops/internal/core/domain"
	"vehicle-insurance-mlops/internal/ml"
)

type EvaluationService struct {
	catalog *ModelCatalog
}

func NewEvaluationService(catalog *ModelCatalog) *EvaluationService {
	return &EvaluationService{catalog: catalog}
}

// Accept reports whether a candidate beats the reference by more than margin.
func Accept(candidate, reference, margin float64) bool {
	return candidate > reference+margin
}

// Run scores the freshly trained model and the deployed one on the same raw
// test split. Without a deployed model the reference score is 0.
func (s *EvaluationService) Run(ctx context.Context, cfg domain.EvaluationConfig, in domain.IngestionArtifact, trained domain.TrainerArtifact) (domain.EvaluationArtifact, error) {
	test, err := artifact.ReadFrameCSV(in.TestPath)
	if err != nil {
		return domain.EvaluationArtifact{}, fmt.Errorf("read test split: %w", err)
	}

	raw, err := os.ReadFile(trained.ModelPath)
	if err != nil {
		return domain.EvaluationArtifact{}, fmt.Errorf("read trained model: %w", err)
	}
	candidate, err := ml.DecodeModel(raw)
	if err != nil {
		return domain.EvaluationArtifact{}, err
	}
	newScore, err := candidate.ScoreFrame(test, cfg.Scoring)
	if err != nil {
		return domain.EvaluationArtifact{}, fmt.Errorf("score candidate: %w", err)
	}

	out := domain.EvaluationArtifact{
		Scoring:   cfg.Scoring,
		NewScore:  newScore,
		ModelPath: trained.ModelPath,
	}

	reference, pointer, err := s.catalog.LoadCurrent(ctx)
	switch {
	case isNotFound(err):
		log.Info("no deployed model, evaluating against a zero reference")
	case err != nil:
		return domain.EvaluationArtifact{}, fmt.Errorf("load reference model: %w", err)
	default:
		out.ReferenceKey = pointer.Key
		if out.ReferenceScore, err = reference.ScoreFrame(test, cfg.Scoring); err != nil {
			return domain.EvaluationArtifact{}, fmt.Errorf("score reference: %w", err)
		}
	}

	out.Difference = out.NewScore - out.ReferenceScore
	out.Accepted = Accept(out.NewScore, out.ReferenceScore, cfg.Margin)

	log.WithFields(log.Fields{
		"scoring":         cfg.Scoring,
		"new_score":       out.NewScore,
		"reference_score": out.ReferenceScore,
		"reference_key":   out.ReferenceKey,
		"margin":          cfg.Margin,
		"accepted":        out.Accepted,
	}).Info("model evaluated")
	return out, nil
}
