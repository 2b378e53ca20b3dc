package services

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"vehicle-insurance-mlops/internal/artifact"
	"vehicle-insurance-mlops/internal/core/domain"
	output "vehicle-insurance-mlops/internal/core/ports/output"
	"vehicle-insurance-mlops/internal/ml"
)

type IngestionService struct {
	source output.RecordSource
}

func NewIngestionService(source output.RecordSource) *IngestionService {
	return &IngestionService{source: source}
}

// Run exports the collection to a frame and persists a seeded train/test split.
func (s *IngestionService) Run(ctx context.Context, cfg domain.IngestionConfig) (domain.IngestionArtifact, error) {
	docs, err := s.source.Fetch(ctx, cfg.Collection)
	if err != nil {
		return domain.IngestionArtifact{}, fmt.Errorf("fetch records: %w", err)
	}
	if len(docs) == 0 {
		return domain.IngestionArtifact{}, fmt.Errorf("collection %q: %w", cfg.Collection, domain.ErrEmptyDataset)
	}

	frame, err := domain.FrameFromDocuments(docs, cfg.DropFields...)
	if err != nil {
		return domain.IngestionArtifact{}, fmt.Errorf("build frame: %w", err)
	}
	log.WithFields(log.Fields{
		"collection": cfg.Collection,
		"rows":       frame.Len(),
		"columns":    len(frame.Columns()),
	}).Info("records exported")

	trainIdx, testIdx, err := ml.ShuffleSplit(frame.Len(), cfg.TestRatio, cfg.Seed)
	if err != nil {
		return domain.IngestionArtifact{}, fmt.Errorf("split %d rows at %v: %w", frame.Len(), cfg.TestRatio, err)
	}
	train, test := frame.Take(trainIdx), frame.Take(testIdx)

	if err := artifact.WriteFrameCSV(cfg.TrainPath, train); err != nil {
		return domain.IngestionArtifact{}, err
	}
	if err := artifact.WriteFrameCSV(cfg.TestPath, test); err != nil {
		return domain.IngestionArtifact{}, err
	}

	return domain.IngestionArtifact{
		TrainPath: cfg.TrainPath,
		TestPath:  cfg.TestPath,
		TrainRows: train.Len(),
		TestRows:  test.Len(),
	}, nil
}
