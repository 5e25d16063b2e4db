package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wellora/wellora-backend/internal/logger"
	"github.com/wellora/wellora-backend/internal/types"
)

type ObservationRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, obs *types.DailyObservation) (*types.DailyObservation, error)
	GetByUserDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date string) (*types.DailyObservation, error)
	GetByUserDateRange(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from, to string) ([]*types.DailyObservation, error)
}

type observationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewObservationRepo(db *gorm.DB, baseLog *logger.Logger) ObservationRepo {
	return &observationRepo{db: db, log: baseLog.With("repo", "ObservationRepo")}
}

func (r *observationRepo) Upsert(ctx context.Context, tx *gorm.DB, obs *types.DailyObservation) (*types.DailyObservation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
			UpdateAll: true,
		}).
		Create(obs).Error; err != nil {
		return nil, err
	}
	return obs, nil
}

func (r *observationRepo) GetByUserDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date string) (*types.DailyObservation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.DailyObservation
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *observationRepo) GetByUserDateRange(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from, to string) ([]*types.DailyObservation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.DailyObservation
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
