package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellora/wellora-backend/internal/logger"
	"github.com/wellora/wellora-backend/internal/repos"
	"github.com/wellora/wellora-backend/internal/score"
	"github.com/wellora/wellora-backend/internal/types"
)

// ObservationService ingests the device's daily records. The wellbeing
// score is computed at write time so readers (including the pipeline) never
// see an unscored row.
type ObservationService interface {
	UpsertObservation(ctx context.Context, obs *types.DailyObservation) (*types.DailyObservation, error)
	GetObservation(ctx context.Context, userID uuid.UUID, date string) (*types.DailyObservation, error)
	SubmitQuestionnaire(ctx context.Context, result *types.QuestionnaireResult) error
}

type observationService struct {
	log            *logger.Logger
	observations   repos.ObservationRepo
	questionnaires repos.QuestionnaireRepo
	profiles       repos.UserProfileRepo
	engine         *score.Engine
}

func NewObservationService(
	log *logger.Logger,
	observations repos.ObservationRepo,
	questionnaires repos.QuestionnaireRepo,
	profiles repos.UserProfileRepo,
	engine *score.Engine,
) ObservationService {
	return &observationService{
		log:            log.With("service", "ObservationService"),
		observations:   observations,
		questionnaires: questionnaires,
		profiles:       profiles,
		engine:         engine,
	}
}

func (s *observationService) UpsertObservation(ctx context.Context, obs *types.DailyObservation) (*types.DailyObservation, error) {
	if obs == nil || obs.UserID == uuid.Nil {
		return nil, fmt.Errorf("missing user id")
	}
	if _, err := time.Parse("2006-01-02", obs.Date); err != nil {
		return nil, fmt.Errorf("malformed date %q: %w", obs.Date, err)
	}
	if obs.ID == uuid.Nil {
		obs.ID = uuid.New()
	}

	profile, err := s.profiles.GetByUserID(ctx, nil, obs.UserID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	obs.WellbeingScore = s.engine.ComputeScore(obs, profile)

	saved, err := s.observations.Upsert(ctx, nil, obs)
	if err != nil {
		return nil, fmt.Errorf("save observation: %w", err)
	}
	s.log.Info("observation recorded",
		"user_id", obs.UserID.String(),
		"date", obs.Date,
		"score", obs.WellbeingScore,
	)
	return saved, nil
}

func (s *observationService) GetObservation(ctx context.Context, userID uuid.UUID, date string) (*types.DailyObservation, error) {
	return s.observations.GetByUserDate(ctx, nil, userID, date)
}

func (s *observationService) SubmitQuestionnaire(ctx context.Context, result *types.QuestionnaireResult) error {
	if result == nil || result.UserID == uuid.Nil {
		return fmt.Errorf("missing user id")
	}
	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}
	result.CreatedAt = time.Now()
	if _, err := s.questionnaires.Create(ctx, nil, []*types.QuestionnaireResult{result}); err != nil {
		return fmt.Errorf("save questionnaire result: %w", err)
	}

	// Fold the score into the day's observation when one exists; re-scoring
	// happens through the normal upsert path.
	obs, err := s.observations.GetByUserDate(ctx, nil, result.UserID, result.Date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	obs.QuestionnaireScore = result.Score
	obs.QuestionnaireAnswers = result.Answers
	if _, err := s.UpsertObservation(ctx, obs); err != nil {
		return err
	}
	return nil
}
