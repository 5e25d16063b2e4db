package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wellora/wellora-backend/internal/middleware"
	"github.com/wellora/wellora-backend/internal/services"
)

type PipelineHandler struct {
	pipeline services.PipelineService
}

func NewPipelineHandler(pipeline services.PipelineService) *PipelineHandler {
	return &PipelineHandler{pipeline: pipeline}
}

// Trigger runs the daily pipeline for the caller, outside the cron window.
func (h *PipelineHandler) Trigger(c *gin.Context) {
	userID := middleware.UserID(c)
	if err := h.pipeline.RunForUser(c.Request.Context(), userID); err != nil {
		switch {
		case errors.Is(err, services.ErrRunInProgress):
			RespondError(c, http.StatusConflict, "run_in_progress", err)
		case errors.Is(err, services.ErrProfileNotFound):
			RespondError(c, http.StatusPreconditionFailed, "profile_required", err)
		default:
			RespondError(c, http.StatusInternalServerError, "pipeline_failed", err)
		}
		return
	}
	RespondOK(c, gin.H{"success": "true"})
}
