package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wellora/wellora-backend/internal/middleware"
	"github.com/wellora/wellora-backend/internal/services"
)

type ContentHandler struct {
	content services.ContentService
}

func NewContentHandler(content services.ContentService) *ContentHandler {
	return &ContentHandler{content: content}
}

// Get returns the generated content for a date; /content/today resolves to
// the server's current date.
func (h *ContentHandler) Get(c *gin.Context) {
	userID := middleware.UserID(c)
	date := c.Param("date")
	if date == "today" {
		date = time.Now().Format("2006-01-02")
	}
	content, err := h.content.GetByDate(c.Request.Context(), userID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "content_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "content_load_failed", err)
		return
	}
	RespondOK(c, content)
}
