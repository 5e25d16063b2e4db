package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellora/wellora-backend/internal/logger"
	"github.com/wellora/wellora-backend/internal/types"
)

type QuestionnaireRepo interface {
	Create(ctx context.Context, tx *gorm.DB, results []*types.QuestionnaireResult) ([]*types.QuestionnaireResult, error)
	GetLatestByUserDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date string) (*types.QuestionnaireResult, error)
}

type questionnaireRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionnaireRepo(db *gorm.DB, baseLog *logger.Logger) QuestionnaireRepo {
	return &questionnaireRepo{db: db, log: baseLog.With("repo", "QuestionnaireRepo")}
}

func (r *questionnaireRepo) Create(ctx context.Context, tx *gorm.DB, results []*types.QuestionnaireResult) ([]*types.QuestionnaireResult, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(results) == 0 {
		return []*types.QuestionnaireResult{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *questionnaireRepo) GetLatestByUserDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date string) (*types.QuestionnaireResult, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.QuestionnaireResult
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Order("created_at DESC").
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}
