package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wellora/wellora-backend/internal/logger"
	"github.com/wellora/wellora-backend/internal/types"
)

type GeneratedContentRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, content *types.GeneratedContent) (*types.GeneratedContent, error)
	GetByUserDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date string) (*types.GeneratedContent, error)
}

type generatedContentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGeneratedContentRepo(db *gorm.DB, baseLog *logger.Logger) GeneratedContentRepo {
	return &generatedContentRepo{db: db, log: baseLog.With("repo", "GeneratedContentRepo")}
}

func (r *generatedContentRepo) Upsert(ctx context.Context, tx *gorm.DB, content *types.GeneratedContent) (*types.GeneratedContent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
			UpdateAll: true,
		}).
		Create(content).Error; err != nil {
		return nil, err
	}
	return content, nil
}

func (r *generatedContentRepo) GetByUserDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date string) (*types.GeneratedContent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.GeneratedContent
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}
