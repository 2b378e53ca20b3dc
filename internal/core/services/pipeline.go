package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"vehicle-insurance-mlops/internal/core/domain"
	output "vehicle-insurance-mlops/internal/core/ports/output"
	"vehicle-insurance-mlops/internal/metrics"
)

// PipelineService runs the six training stages in order. Only one run may be
// in flight per process.
type PipelineService struct {
	settings       domain.PipelineSettings
	ingestion      *IngestionService
	validation     *ValidationService
	transformation *TransformationService
	trainer        *TrainerService
	evaluation     *EvaluationService
	pusher         *PusherService
	runs           output.RunRepository
	metrics        *metrics.Manager

	busy atomic.Bool
	now  func() time.Time
}

func NewPipelineService(
	settings domain.PipelineSettings,
	ingestion *IngestionService,
	validation *ValidationService,
	transformation *TransformationService,
	trainer *TrainerService,
	evaluation *EvaluationService,
	pusher *PusherService,
	runs output.RunRepository,
	m *metrics.Manager,
) *PipelineService {
	return &PipelineService{
		settings:       settings,
		ingestion:      ingestion,
		validation:     validation,
		transformation: transformation,
		trainer:        trainer,
		evaluation:     evaluation,
		pusher:         pusher,
		runs:           runs,
		metrics:        m,
		now:            time.Now,
	}
}

// PipelineResult carries every artifact produced by a run. Artifacts of
// stages that did not execute are left zero.
type PipelineResult struct {
	Run            *domain.PipelineRun
	Config         domain.PipelineConfig
	Ingestion      domain.IngestionArtifact
	Validation     domain.ValidationArtifact
	Transformation domain.TransformationArtifact
	Trainer        domain.TrainerArtifact
	Evaluation     domain.EvaluationArtifact
	Pusher         *domain.PusherArtifact
}

// Running reports whether a run is in flight.
func (s *PipelineService) Running() bool {
	return s.busy.Load()
}

// Run executes one full pass. A rejected candidate is not an error: the run
// ends REJECTED and nothing is pushed. Any stage failure ends the run FAILED
// and the returned error names the stage.
func (s *PipelineService) Run(ctx context.Context) (*PipelineResult, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, domain.ErrPipelineBusy
	}
	defer s.busy.Store(false)

	run := domain.NewPipelineRun("")
	cfg := domain.NewPipelineConfig(s.settings, s.now(), run.ID)
	run.ArtifactDir = cfg.Dir
	res := &PipelineResult{Run: run, Config: cfg}
	s.save(ctx, run, true)

	logger := log.WithFields(log.Fields{"run_id": run.ID, "artifact_dir": cfg.Dir})
	logger.Info("pipeline run started")

	fail := func(stage domain.Stage, err error) (*PipelineResult, error) {
		err = fmt.Errorf("%s: %w", stage, err)
		run.MarkFailed(err.Error())
		s.save(ctx, run, false)
		s.metrics.RecordRun(run.Status)
		logger.WithError(err).Error("pipeline run failed")
		return res, err
	}

	var err error
	if err = s.stage(ctx, run, domain.StageIngestion, func() error {
		res.Ingestion, err = s.ingestion.Run(ctx, cfg.Ingestion)
		return err
	}); err != nil {
		return fail(domain.StageIngestion, err)
	}

	if err = s.stage(ctx, run, domain.StageValidation, func() error {
		res.Validation, err = s.validation.Run(ctx, cfg.Validation, res.Ingestion)
		return err
	}); err != nil {
		return fail(domain.StageValidation, err)
	}

	if err = s.stage(ctx, run, domain.StageTransformation, func() error {
		res.Transformation, err = s.transformation.Run(ctx, cfg.Transformation, res.Ingestion, res.Validation)
		return err
	}); err != nil {
		return fail(domain.StageTransformation, err)
	}

	if err = s.stage(ctx, run, domain.StageTraining, func() error {
		res.Trainer, err = s.trainer.Run(ctx, cfg.Trainer, res.Transformation)
		return err
	}); err != nil {
		return fail(domain.StageTraining, err)
	}
	run.CVScore = res.Trainer.CVScore

	if err = s.stage(ctx, run, domain.StageEvaluation, func() error {
		res.Evaluation, err = s.evaluation.Run(ctx, cfg.Evaluation, res.Ingestion, res.Trainer)
		return err
	}); err != nil {
		return fail(domain.StageEvaluation, err)
	}
	run.RecordEvaluation(res.Evaluation)
	s.metrics.SetModelScores(res.Evaluation.NewScore, res.Evaluation.ReferenceScore)

	if !res.Evaluation.Accepted {
		run.MarkRejected()
		s.save(ctx, run, false)
		s.metrics.RecordRun(run.Status)
		logger.WithFields(log.Fields{
			"new_score":       res.Evaluation.NewScore,
			"reference_score": res.Evaluation.ReferenceScore,
		}).Info("candidate model rejected, nothing pushed")
		return res, nil
	}

	var pushed domain.PusherArtifact
	if err = s.stage(ctx, run, domain.StagePusher, func() error {
		pushed, err = s.pusher.Run(ctx, cfg.Pusher, res.Evaluation, run.ID)
		return err
	}); err != nil {
		return fail(domain.StagePusher, err)
	}
	res.Pusher = &pushed

	run.MarkSucceeded(pushed.Key)
	s.save(ctx, run, false)
	s.metrics.RecordRun(run.Status)
	logger.WithField("model_uri", pushed.URI).Info("pipeline run succeeded")
	return res, nil
}

func (s *PipelineService) stage(ctx context.Context, run *domain.PipelineRun, stage domain.Stage, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	run.EnterStage(stage)
	s.save(ctx, run, false)

	start := time.Now()
	err := fn()
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
	}
	s.metrics.ObserveStage(stage, outcome, time.Since(start))

	log.WithFields(log.Fields{
		"run_id":     run.ID,
		"stage":      stage,
		"outcome":    outcome,
		"latency_ms": time.Since(start).Milliseconds(),
	}).Info("stage finished")
	return err
}

// save records run progress. History is best effort and never fails a run.
func (s *PipelineService) save(ctx context.Context, run *domain.PipelineRun, create bool) {
	if s.runs == nil {
		return
	}
	var err error
	if create {
		err = s.runs.Create(context.WithoutCancel(ctx), run)
	} else {
		err = s.runs.Update(context.WithoutCancel(ctx), run)
	}
	if err != nil {
		log.WithError(err).WithField("run_id", run.ID).Warn("failed to record pipeline run")
	}
}
