package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/wellora/wellora-backend/internal/middleware"
	"github.com/wellora/wellora-backend/internal/services"
	"github.com/wellora/wellora-backend/internal/types"
)

type ObservationHandler struct {
	observations services.ObservationService
}

func NewObservationHandler(observations services.ObservationService) *ObservationHandler {
	return &ObservationHandler{observations: observations}
}

// Upsert ingests one day's behavioral record from the device. The response
// carries the row with its computed wellbeing score.
func (h *ObservationHandler) Upsert(c *gin.Context) {
	userID := middleware.UserID(c)
	var req struct {
		Date          string             `json:"date"`
		Steps         int                `json:"steps"`
		LeftHome      bool               `json:"left_home"`
		Calories      float64            `json:"calories"`
		SleepHours    float64            `json:"sleep_hours"`
		SleepQuality  string             `json:"sleep_quality"`
		SleepStart    string             `json:"sleep_start"`
		SleepEnd      string             `json:"sleep_end"`
		Mood          int                `json:"mood"`
		ScreenHours   float64            `json:"screen_hours"`
		AppScreenTime map[string]float64 `json:"app_screen_time"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	obs := &types.DailyObservation{
		UserID:       userID,
		Date:         req.Date,
		Steps:        req.Steps,
		LeftHome:     req.LeftHome,
		Calories:     req.Calories,
		SleepHours:   req.SleepHours,
		SleepQuality: req.SleepQuality,
		SleepStart:   req.SleepStart,
		SleepEnd:     req.SleepEnd,
		Mood:         req.Mood,
		ScreenHours:  req.ScreenHours,
	}
	if len(req.AppScreenTime) > 0 {
		raw, err := json.Marshal(req.AppScreenTime)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_app_screen_time", err)
			return
		}
		obs.AppScreenTime = datatypes.JSON(raw)
	}
	saved, err := h.observations.UpsertObservation(c.Request.Context(), obs)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "observation_upsert_failed", err)
		return
	}
	RespondOK(c, saved)
}

func (h *ObservationHandler) Get(c *gin.Context) {
	userID := middleware.UserID(c)
	date := c.Param("date")
	obs, err := h.observations.GetObservation(c.Request.Context(), userID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "observation_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "observation_load_failed", err)
		return
	}
	RespondOK(c, obs)
}

func (h *ObservationHandler) SubmitQuestionnaire(c *gin.Context) {
	userID := middleware.UserID(c)
	var req struct {
		Date    string         `json:"date"`
		Score   int            `json:"score"`
		Answers datatypes.JSON `json:"answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	result := &types.QuestionnaireResult{
		UserID:  userID,
		Date:    req.Date,
		Score:   req.Score,
		Answers: req.Answers,
	}
	if err := h.observations.SubmitQuestionnaire(c.Request.Context(), result); err != nil {
		RespondError(c, http.StatusBadRequest, "questionnaire_submit_failed", err)
		return
	}
	RespondOK(c, gin.H{"success": "true"})
}
