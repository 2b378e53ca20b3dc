package handlers

import (
	"net/http"
	"strconv"

	"vehicle-insurance-mlops/internal/adapters/primary/http/dto"
	output "vehicle-insurance-mlops/internal/core/ports/output"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// runIDKey carries the id of a failed run into the error body.
const runIDKey = "run_id"

// Train runs one pipeline pass synchronously. When a new model is pushed the
// serving model is swapped to it before responding.
func (h *Handler) Train(c *gin.Context) {
	res, err := h.pipelineSvc.Run(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("training pipeline failed")
		if res != nil && res.Run != nil {
			c.Set(runIDKey, res.Run.ID)
		}
		mapDomainError(c, err)
		return
	}

	if res.Pusher != nil {
		if err := h.predictionSvc.Reload(c.Request.Context()); err != nil {
			log.WithError(err).Warn("reload after push failed; serving the previous model")
		}
	}

	c.JSON(http.StatusOK, dto.ToTrainResponse(res))
}

func (h *Handler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	filter := output.RunListFilter{
		Status: c.Query("status"),
		Order:  c.Query("order"),
		Limit:  limit,
		Offset: offset,
	}

	page, err := h.runSvc.List(c.Request.Context(), filter)
	if err != nil {
		log.WithError(err).Error("list runs failed")
		mapDomainError(c, err)
		return
	}

	items := make([]dto.RunResponse, 0, len(page.Runs))
	for _, r := range page.Runs {
		items = append(items, dto.ToRunResponse(r))
	}

	c.JSON(http.StatusOK, dto.ListRunsResponse{
		Items:      items,
		Total:      page.Total,
		PageSize:   page.Limit,
		NextOffset: page.Offset + len(items),
	})
}

func (h *Handler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}

	run, err := h.runSvc.Get(c.Request.Context(), id)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRunResponse(run))
}
