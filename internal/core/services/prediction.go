package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"vehicle-insurance-mlops/internal/core/domain"
	"vehicle-insurance-mlops/internal/metrics"
	"vehicle-insurance-mlops/internal/ml"
)

const (
	LabelPositive = "Response-Yes"
	LabelNegative = "Response-No"
)

// Prediction is the outcome for one customer record.
type Prediction struct {
	Class       int
	Label       string
	Probability float64
	ModelKey    string
}

// PredictionService serves the deployed model. Reloads swap the model under a
// write lock so in-flight predictions always see a complete model.
type PredictionService struct {
	catalog *ModelCatalog
	metrics *metrics.Manager

	mu      sync.RWMutex
	model   *ml.Model
	pointer *domain.ModelPointer
}

func NewPredictionService(catalog *ModelCatalog, m *metrics.Manager) *PredictionService {
	return &PredictionService{catalog: catalog, metrics: m}
}

// Reload fetches the model the catalog currently points to.
func (s *PredictionService) Reload(ctx context.Context) error {
	model, pointer, err := s.catalog.LoadCurrent(ctx)
	if err != nil {
		return err
	}
	s.Set(model, pointer)
	log.WithFields(log.Fields{"model_key": pointer.Key, "score": pointer.Score}).Info("prediction model loaded")
	return nil
}

// Set installs a model directly.
func (s *PredictionService) Set(model *ml.Model, pointer *domain.ModelPointer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
	s.pointer = pointer
}

// Current returns the pointer of the loaded model.
func (s *PredictionService) Current() (*domain.ModelPointer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.model == nil || s.pointer == nil {
		return nil, domain.ErrModelNotLoaded
	}
	p := *s.pointer
	return &p, nil
}

// Predict scores one raw record keyed by column name.
func (s *PredictionService) Predict(record map[string]any) (*Prediction, error) {
	s.mu.RLock()
	model, pointer := s.model, s.pointer
	s.mu.RUnlock()
	if model == nil {
		return nil, domain.ErrModelNotLoaded
	}

	start := time.Now()
	class, prob, err := model.PredictRecord(record)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	s.metrics.ObservePrediction(class, time.Since(start))

	out := &Prediction{Class: class, Label: LabelNegative, Probability: prob}
	if class == 1 {
		out.Label = LabelPositive
	}
	if pointer != nil {
		out.ModelKey = pointer.Key
	}
	return out, nil
}

// URI renders the store location of a model key.
func (s *PredictionService) URI(key string) string {
	return s.catalog.URI(key)
}
