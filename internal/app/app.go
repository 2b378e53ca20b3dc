// Package app wires adapters and services from configuration. Both the HTTP
// server and the one-shot pipeline command are built from it.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"vehicle-insurance-mlops/internal/adapters/secondary/csvsource"
	"vehicle-insurance-mlops/internal/adapters/secondary/kube"
	"vehicle-insurance-mlops/internal/adapters/secondary/localstore"
	"vehicle-insurance-mlops/internal/adapters/secondary/memory"
	"vehicle-insurance-mlops/internal/adapters/secondary/miniostore"
	"vehicle-insurance-mlops/internal/adapters/secondary/mongodb"
	"vehicle-insurance-mlops/internal/adapters/secondary/postgres"
	"vehicle-insurance-mlops/internal/adapters/secondary/s3store"
	"vehicle-insurance-mlops/internal/config"
	"vehicle-insurance-mlops/internal/core/domain"
	output "vehicle-insurance-mlops/internal/core/ports/output"
	"vehicle-insurance-mlops/internal/core/services"
	"vehicle-insurance-mlops/internal/metrics"
	"vehicle-insurance-mlops/internal/schema"
)

// App holds every wired service plus the resources that need closing.
type App struct {
	Pipeline   *services.PipelineService
	Prediction *services.PredictionService
	Runs       *services.RunService
	Metrics    *metrics.Manager

	source output.RecordSource
	store  output.ModelStore
	pool   *pgxpool.Pool
}

// New builds the application graph. Optional integrations that fail to
// initialise are logged and skipped, matching how they are disabled.
func New(ctx context.Context, cfg *config.Config, m *metrics.Manager) (*App, error) {
	sch, err := schema.Load(cfg.Pipeline.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	space, err := schema.LoadSearchSpace(cfg.Pipeline.SearchSpacePath)
	if err != nil {
		return nil, fmt.Errorf("load search space: %w", err)
	}

	a := &App{Metrics: m}

	// Record source
	switch cfg.Source.Backend {
	case "csv":
		a.source = csvsource.NewRecordSource(cfg.Source.CSVPath)
		log.WithField("path", cfg.Source.CSVPath).Info("reading records from csv")
	default:
		src, err := mongodb.NewRecordSource(ctx, &cfg.Mongo)
		if err != nil {
			log.Warnf("MongoDB init failed (training unavailable until it is reachable): %v", err)
			a.source = unavailableSource{err: err}
		} else {
			a.source = src
			log.WithField("database", cfg.Mongo.Database).Info("MongoDB connection established")
		}
	}

	// Model store
	switch cfg.Storage.Backend {
	case "local":
		a.store, err = localstore.New(cfg.Storage.LocalDir, cfg.Storage.Bucket)
	case "minio":
		a.store, err = miniostore.New(ctx, &cfg.Storage)
	default:
		a.store, err = s3store.New(ctx, &cfg.Storage)
	}
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("init %s model store: %w", cfg.Storage.Backend, err)
	}
	log.WithFields(log.Fields{"backend": cfg.Storage.Backend, "bucket": cfg.Storage.Bucket}).Info("model store initialized")

	// Run history (Optional - based on config)
	var runs output.RunRepository
	if cfg.Database.Enabled {
		pool, err := newPool(ctx, cfg.Database)
		if err != nil {
			log.Warnf("Postgres init failed (continuing with in-memory run history): %v", err)
		} else {
			a.pool = pool
			runs = postgres.NewPipelineRunRepository(pool)
			log.Info("database connection established")
		}
	}
	if runs == nil {
		runs = memory.NewRunRepository()
	}

	// Kubernetes rollout (Optional - based on config)
	var deployer output.Deployer
	if cfg.Kubernetes.Enabled {
		d, err := kube.NewDeployer(&cfg.Kubernetes)
		if err != nil {
			log.Warnf("Kubernetes client init failed (continuing without rollout restarts): %v", err)
		} else {
			deployer = d
			log.Info("Kubernetes deployer initialized")
		}
	} else {
		log.Info("Kubernetes integration disabled")
	}

	catalog := services.NewModelCatalog(a.store, cfg.Storage.Prefix)
	a.Pipeline = services.NewPipelineService(
		cfg.Settings(space),
		services.NewIngestionService(a.source),
		services.NewValidationService(sch),
		services.NewTransformationService(sch),
		services.NewTrainerService(),
		services.NewEvaluationService(catalog),
		services.NewPusherService(catalog, deployer),
		runs,
		m,
	)
	a.Prediction = services.NewPredictionService(catalog, m)
	a.Runs = services.NewRunService(runs)
	return a, nil
}

// Ready reports whether the backing stores answer.
func (a *App) Ready(ctx context.Context) error {
	if a.pool != nil {
		if err := a.pool.Ping(ctx); err != nil {
			return fmt.Errorf("ping db: %w", err)
		}
	}
	return nil
}

// Close releases connections opened by New.
func (a *App) Close(ctx context.Context) {
	if a.source != nil {
		if err := a.source.Close(ctx); err != nil {
			log.WithError(err).Warn("close record source")
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func newPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// unavailableSource stands in for a document store that could not be reached
// at start, so serving still comes up and training reports the cause.
type unavailableSource struct {
	err error
}

func (s unavailableSource) Fetch(context.Context, string) ([]domain.Document, error) {
	return nil, s.err
}

func (s unavailableSource) Ping(context.Context) error { return s.err }

func (s unavailableSource) Close(context.Context) error { return nil }
