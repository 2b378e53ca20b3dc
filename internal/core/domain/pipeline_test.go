package domain

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSearchSpace_AtCoversEveryCombination(t *testing.T) {
	space := SearchSpace{
		NEstimators:     []int{10, 20},
		MaxDepth:        []int{0, 4, 8},
		MinSamplesSplit: []int{2},
		MinSamplesLeaf:  []int{1, 2},
		MaxFeatures:     []string{"sqrt"},
		Criterion:       []string{"gini", "entropy"},
		Bootstrap:       []bool{true},
	}
	assert.Equal(t, 24, space.Size())

	seen := make(map[ForestParams]bool)
	for i := 0; i < space.Size(); i++ {
		seen[space.At(i)] = true
	}
	assert.Len(t, seen, 24)
	assert.Equal(t, ForestParams{
		NEstimators: 10, MaxDepth: 0, MinSamplesSplit: 2, MinSamplesLeaf: 1,
		MaxFeatures: "sqrt", Criterion: "gini", Bootstrap: true,
	}, space.At(0))
}

func TestNewPipelineConfig(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.FixedZone("X", 3600))
	runID := uuid.MustParse("0b6f4c5e-3d2a-4f7b-9c1e-5a8d7e6f4b3c")
	cfg := NewPipelineConfig(PipelineSettings{
		ArtifactDir: "artifact",
		Collection:  "Proj1-Data",
		TestRatio:   0.25,
		Seed:        42,
		Scoring:     "f1",
		Margin:      0.02,
		Bucket:      "models-bucket",
		Prefix:      "models",
	}, now, runID)

	assert.Equal(t, "20240506T060809Z", cfg.Timestamp)
	assert.Equal(t, "20240506T060809Z-"+runID.String(), cfg.Name)
	assert.Equal(t, filepath.Join("artifact", cfg.Name), cfg.Dir)
	assert.Equal(t, filepath.Join(cfg.Dir, "data_ingestion", "ingested", "train.csv"), cfg.Ingestion.TrainPath)
	assert.Equal(t, filepath.Join(cfg.Dir, "data_validation", "report.yaml"), cfg.Validation.ReportPath)
	assert.Equal(t, filepath.Join(cfg.Dir, "model_trainer", "trained_model", "model.json.gz"), cfg.Trainer.ModelPath)
	assert.Equal(t, "models/20240506T060809Z-0b6f4c5e-3d2a-4f7b-9c1e-5a8d7e6f4b3c/model.json.gz", cfg.Pusher.Key)
	assert.Equal(t, "models-bucket", cfg.Pusher.Bucket)
	assert.Equal(t, 0.02, cfg.Evaluation.Margin)
}

func TestNewPipelineConfig_SameSecondRunsDiffer(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	settings := PipelineSettings{ArtifactDir: "artifact", Prefix: "models"}

	first := NewPipelineConfig(settings, now, uuid.New())
	second := NewPipelineConfig(settings, now, uuid.New())

	assert.Equal(t, first.Timestamp, second.Timestamp)
	assert.NotEqual(t, first.Dir, second.Dir)
	assert.NotEqual(t, first.Pusher.Key, second.Pusher.Key)
}

func TestModelKey_NoPrefix(t *testing.T) {
	assert.Equal(t, "20240101T000000Z/model.json.gz", ModelKey("", "20240101T000000Z"))
}
