// Command pipeline runs one training pass and exits non-zero when it fails.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"vehicle-insurance-mlops/internal/app"
	"vehicle-insurance-mlops/internal/config"
	"vehicle-insurance-mlops/internal/core/domain"
	"vehicle-insurance-mlops/internal/metrics"

	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	initLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, metrics.New())
	if err != nil {
		log.Fatalf("init application: %v", err)
	}

	res, err := a.Pipeline.Run(ctx)
	a.Close(context.Background())
	if err != nil {
		log.WithError(err).Error("pipeline failed")
		os.Exit(1)
	}

	fields := log.Fields{
		"run_id":          res.Run.ID,
		"status":          res.Run.Status,
		"new_score":       res.Evaluation.NewScore,
		"reference_score": res.Evaluation.ReferenceScore,
	}
	if res.Pusher != nil {
		fields["model_uri"] = res.Pusher.URI
	}
	log.WithFields(fields).Info("pipeline finished")

	if res.Run.Status != domain.RunStatusSucceeded && res.Run.Status != domain.RunStatusRejected {
		os.Exit(1)
	}
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
