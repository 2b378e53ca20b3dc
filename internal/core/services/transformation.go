package services

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"vehicle-insurance-mlops/internal/artifact"
	"vehicle-insurance-mlops/internal/core/domain"
	"vehicle-insurance-mlops/internal/ml"
)

type TransformationService struct {
	schema *domain.Schema
}

func NewTransformationService(schema *domain.Schema) *TransformationService {
	return &TransformationService{schema: schema}
}

// TransformedData holds the encoded splits produced from a fitted preprocessor.
type TransformedData struct {
	Features []string
	TrainX   [][]float64
	TrainY   []int
	TestX    [][]float64
	TestY    []int
}

// Transform fits a preprocessor on train and encodes both splits. Neither
// input frame is modified. The output depends only on the inputs and cfg.
func (s *TransformationService) Transform(train, test *domain.Frame, cfg domain.TransformationConfig) (*ml.Preprocessor, *TransformedData, error) {
	pre := ml.NewPreprocessor(s.schema)
	if err := pre.Fit(train); err != nil {
		return nil, nil, fmt.Errorf("fit preprocessor: %w", err)
	}

	out := &TransformedData{Features: pre.FeatureNames()}
	var err error
	if out.TrainX, err = pre.Transform(train); err != nil {
		return nil, nil, fmt.Errorf("transform train: %w", err)
	}
	if out.TrainY, err = train.Labels(s.schema.TargetColumn); err != nil {
		return nil, nil, fmt.Errorf("train labels: %w", err)
	}
	if out.TestX, err = pre.Transform(test); err != nil {
		return nil, nil, fmt.Errorf("transform test: %w", err)
	}
	if out.TestY, err = test.Labels(s.schema.TargetColumn); err != nil {
		return nil, nil, fmt.Errorf("test labels: %w", err)
	}

	if cfg.Resample {
		before := len(out.TrainX)
		out.TrainX, out.TrainY = ml.SMOTE(out.TrainX, out.TrainY, cfg.ResampleNeighbors, cfg.Seed)
		log.WithFields(log.Fields{"before": before, "after": len(out.TrainX)}).Info("train split resampled")
	}
	return pre, out, nil
}

// Run reads the validated splits, transforms them and persists the fitted
// preprocessor and the encoded arrays.
func (s *TransformationService) Run(ctx context.Context, cfg domain.TransformationConfig, in domain.IngestionArtifact, val domain.ValidationArtifact) (domain.TransformationArtifact, error) {
	if !val.Passed {
		return domain.TransformationArtifact{}, domain.ErrSchemaViolation
	}
	if err := ctx.Err(); err != nil {
		return domain.TransformationArtifact{}, err
	}

	train, err := artifact.ReadFrameCSV(in.TrainPath)
	if err != nil {
		return domain.TransformationArtifact{}, fmt.Errorf("read train split: %w", err)
	}
	test, err := artifact.ReadFrameCSV(in.TestPath)
	if err != nil {
		return domain.TransformationArtifact{}, fmt.Errorf("read test split: %w", err)
	}

	pre, data, err := s.Transform(train, test, cfg)
	if err != nil {
		return domain.TransformationArtifact{}, err
	}

	if err := artifact.WriteJSON(cfg.PreprocessorPath, pre); err != nil {
		return domain.TransformationArtifact{}, err
	}
	if err := artifact.WriteMatrixCSV(cfg.TrainArrayPath, data.Features, data.TrainX, data.TrainY); err != nil {
		return domain.TransformationArtifact{}, err
	}
	if err := artifact.WriteMatrixCSV(cfg.TestArrayPath, data.Features, data.TestX, data.TestY); err != nil {
		return domain.TransformationArtifact{}, err
	}

	log.WithFields(log.Fields{
		"features":   len(data.Features),
		"train_rows": len(data.TrainX),
		"test_rows":  len(data.TestX),
	}).Info("data transformed")

	return domain.TransformationArtifact{
		PreprocessorPath: cfg.PreprocessorPath,
		TrainArrayPath:   cfg.TrainArrayPath,
		TestArrayPath:    cfg.TestArrayPath,
		Features:         data.Features,
		TrainRows:        len(data.TrainX),
		TestRows:         len(data.TestX),
	}, nil
}
