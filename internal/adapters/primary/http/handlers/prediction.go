package handlers

import (
	"net/http"

	"vehicle-insurance-mlops/internal/adapters/primary/http/dto"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) Predict(c *gin.Context) {
	var req dto.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pred, err := h.predictionSvc.Predict(req.ToRecord())
	if err != nil {
		log.WithError(err).Error("predict failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PredictResponse{
		Prediction:  pred.Class,
		Label:       pred.Label,
		Probability: pred.Probability,
		ModelKey:    pred.ModelKey,
	})
}

func (h *Handler) GetModel(c *gin.Context) {
	pointer, err := h.predictionSvc.Current()
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToModelResponse(pointer, h.predictionSvc.URI(pointer.Key)))
}
