package handlers

import (
	"vehicle-insurance-mlops/internal/core/services"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	pipelineSvc   *services.PipelineService
	predictionSvc *services.PredictionService
	runSvc        *services.RunService
}

func New(
	pipelineSvc *services.PipelineService,
	predictionSvc *services.PredictionService,
	runSvc *services.RunService,
) *Handler {
	return &Handler{
		pipelineSvc:   pipelineSvc,
		predictionSvc: predictionSvc,
		runSvc:        runSvc,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	// Serving
	r.POST("/predict", h.Predict)
	r.GET("/model", h.GetModel)

	// Training
	r.POST("/train", h.Train)

	// Run history
	r.GET("/runs", h.ListRuns)
	r.GET("/runs/:id", h.GetRun)
}
