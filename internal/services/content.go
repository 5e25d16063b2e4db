package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/wellora/wellora-backend/internal/logger"
	"github.com/wellora/wellora-backend/internal/repos"
	"github.com/wellora/wellora-backend/internal/types"
)

// ContentService is the read side of the pipeline's output: the app fetches
// the day's generated welcome, affirmation, tasks and notifications.
type ContentService interface {
	GetByDate(ctx context.Context, userID uuid.UUID, date string) (*DailyContent, error)
}

// DailyContent is the decoded view of one GeneratedContent row.
type DailyContent struct {
	Date          string                   `json:"date"`
	Welcome       string                   `json:"welcome"`
	Affirmation   string                   `json:"affirmation"`
	Tasks         []types.Task             `json:"tasks"`
	Notifications []types.NotificationItem `json:"notifications"`
}

type contentService struct {
	log     *logger.Logger
	content repos.GeneratedContentRepo
}

func NewContentService(log *logger.Logger, content repos.GeneratedContentRepo) ContentService {
	return &contentService{
		log:     log.With("service", "ContentService"),
		content: content,
	}
}

func (s *contentService) GetByDate(ctx context.Context, userID uuid.UUID, date string) (*DailyContent, error) {
	row, err := s.content.GetByUserDate(ctx, nil, userID, date)
	if err != nil {
		return nil, err
	}
	out := &DailyContent{
		Date:        row.Date,
		Welcome:     row.Welcome,
		Affirmation: row.Affirmation,
	}
	if len(row.Tasks) > 0 {
		if err := json.Unmarshal(row.Tasks, &out.Tasks); err != nil {
			return nil, fmt.Errorf("decode tasks: %w", err)
		}
	}
	if len(row.Notifications) > 0 {
		if err := json.Unmarshal(row.Notifications, &out.Notifications); err != nil {
			return nil, fmt.Errorf("decode notifications: %w", err)
		}
	}
	return out, nil
}
