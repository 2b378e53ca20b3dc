package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"vehicle-insurance-mlops/internal/core/domain"
	output "vehicle-insurance-mlops/internal/core/ports/output"
)

type PusherService struct {
	catalog  *ModelCatalog
	deployer output.Deployer
}

func NewPusherService(catalog *ModelCatalog, deployer output.Deployer) *PusherService {
	return &PusherService{catalog: catalog, deployer: deployer}
}

// Run uploads an accepted model and points the catalog at it. A failed
// rollout restart is logged; the push itself has already succeeded.
func (s *PusherService) Run(ctx context.Context, cfg domain.PusherConfig, ev domain.EvaluationArtifact, runID uuid.UUID) (domain.PusherArtifact, error) {
	if !ev.Accepted {
		return domain.PusherArtifact{}, domain.ErrModelNotAccepted
	}

	data, err := os.ReadFile(ev.ModelPath)
	if err != nil {
		return domain.PusherArtifact{}, fmt.Errorf("read model: %w", err)
	}
	contentType := mimetype.Detect(data).String()

	pointer := domain.ModelPointer{
		Key:      cfg.Key,
		PushedAt: time.Now().UTC(),
		Scoring:  ev.Scoring,
		Score:    ev.NewScore,
		RunID:    runID,
	}
	if err := s.catalog.Publish(ctx, data, contentType, pointer); err != nil {
		return domain.PusherArtifact{}, err
	}

	out := domain.PusherArtifact{
		Bucket: s.catalog.Bucket(),
		Key:    cfg.Key,
		URI:    s.catalog.URI(cfg.Key),
	}
	log.WithFields(log.Fields{
		"uri":          out.URI,
		"content_type": contentType,
		"bytes":        len(data),
	}).Info("model pushed")

	if s.deployer != nil && s.deployer.IsAvailable() {
		if err := s.deployer.Restart(ctx); err != nil {
			log.WithError(err).Warn("rollout restart failed; serving replicas keep the previous model until restarted")
		} else {
			log.Info("rollout restart triggered")
		}
	}
	return out, nil
}
