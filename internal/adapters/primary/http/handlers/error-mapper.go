package handlers

import (
	"errors"
	"net/http"

	"vehicle-insurance-mlops/internal/core/domain"

	"github.com/gin-gonic/gin"
)

func mapDomainError(c *gin.Context, err error) {
	switch {
	// Not found errors
	case errors.Is(err, domain.ErrModelNotFound),
		errors.Is(err, domain.ErrRunNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())

	// Conflict errors
	case errors.Is(err, domain.ErrPipelineBusy),
		errors.Is(err, domain.ErrModelKeyExists):
		abortWithError(c, http.StatusConflict, err.Error())

	// Bad request / validation errors
	case errors.Is(err, domain.ErrInvalidFeature),
		errors.Is(err, domain.ErrInvalidRecord):
		abortWithError(c, http.StatusBadRequest, err.Error())

	// Service unavailable errors
	case errors.Is(err, domain.ErrModelNotLoaded),
		errors.Is(err, domain.ErrSourceUnavailable),
		errors.Is(err, domain.ErrStoreUnavailable):
		abortWithError(c, http.StatusServiceUnavailable, err.Error())

	default:
		abortWithError(c, http.StatusInternalServerError, "internal server error")
	}
}

// abortWithError writes the error body, adding the run id when a pipeline run
// was recorded for this request.
func abortWithError(c *gin.Context, status int, msg string) {
	body := gin.H{"error": msg}
	if id, ok := c.Get(runIDKey); ok {
		body["run_id"] = id
	}
	c.JSON(status, body)
}
