package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellora/wellora-backend/internal/middleware"
	"github.com/wellora/wellora-backend/internal/repos"
	"github.com/wellora/wellora-backend/internal/types"
)

type UserProfileHandler struct {
	profiles repos.UserProfileRepo
}

func NewUserProfileHandler(profiles repos.UserProfileRepo) *UserProfileHandler {
	return &UserProfileHandler{profiles: profiles}
}

func (h *UserProfileHandler) Upsert(c *gin.Context) {
	userID := middleware.UserID(c)
	var req struct {
		Gender        *string `json:"gender"`
		Age           *int    `json:"age"`
		Profession    *string `json:"profession"`
		MaritalStatus *string `json:"marital_status"`
		Country       *string `json:"country"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	profile := &types.UserProfile{
		ID:            uuid.New(),
		UserID:        userID,
		Gender:        req.Gender,
		Age:           req.Age,
		Profession:    req.Profession,
		MaritalStatus: req.MaritalStatus,
		Country:       req.Country,
		UpdatedAt:     time.Now(),
	}
	saved, err := h.profiles.Upsert(c.Request.Context(), nil, profile)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "profile_upsert_failed", err)
		return
	}
	RespondOK(c, saved)
}

func (h *UserProfileHandler) Get(c *gin.Context) {
	userID := middleware.UserID(c)
	profile, err := h.profiles.GetByUserID(c.Request.Context(), nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "profile_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "profile_load_failed", err)
		return
	}
	RespondOK(c, profile)
}
