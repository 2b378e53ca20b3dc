package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"vehicle-insurance-mlops/internal/adapters/primary/http/handlers"
	"vehicle-insurance-mlops/internal/adapters/primary/http/middleware"
	"vehicle-insurance-mlops/internal/app"
	"vehicle-insurance-mlops/internal/config"
	"vehicle-insurance-mlops/internal/core/domain"
	"vehicle-insurance-mlops/internal/metrics"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	initLogger(cfg)

	m := metrics.New(metrics.WithRuntimeCollectors())

	a, err := app.New(context.Background(), cfg, m)
	if err != nil {
		log.Fatalf("init application: %v", err)
	}
	defer a.Close(context.Background())

	// A missing model is not fatal: predict answers 503 until /train pushes one.
	if cfg.Server.LoadModelOnBoot {
		if err := a.Prediction.Reload(context.Background()); err != nil {
			if errors.Is(err, domain.ErrModelNotFound) {
				log.Warn("no model has been pushed yet; predictions are unavailable until training succeeds")
			} else {
				log.WithError(err).Warn("failed to load current model")
			}
		}
	}

	// Primary Adapter (HTTP Handlers)
	h := handlers.New(a.Pipeline, a.Prediction, a.Runs)

	// Setup router
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logging(m), gin.Recovery())

	api := router.Group("/api/v1")
	h.RegisterRoutes(api)

	router.GET("/healthz", func(c *gin.Context) {
		if err := a.Ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		_, modelErr := a.Prediction.Current()
		c.JSON(http.StatusOK, gin.H{"status": "ok", "model_loaded": modelErr == nil})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced shutdown: %v", err)
	}

	log.Info("server stopped")
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
