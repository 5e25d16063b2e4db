package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellora/wellora-backend/internal/logger"
	"github.com/wellora/wellora-backend/internal/types"
)

// ConversationTurnRepo is the local cache collaborator. Lookups are keyed by
// (user, date, message type, role); multiple rows may exist per key and the
// most recent wins.
type ConversationTurnRepo interface {
	Insert(ctx context.Context, tx *gorm.DB, turn *types.ConversationTurn) error
	GetLatest(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date, messageType, role string) (*types.ConversationTurn, error)
	GetByUserDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date string) ([]*types.ConversationTurn, error)
}

type conversationTurnRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationTurnRepo(db *gorm.DB, baseLog *logger.Logger) ConversationTurnRepo {
	return &conversationTurnRepo{db: db, log: baseLog.With("repo", "ConversationTurnRepo")}
}

func (r *conversationTurnRepo) Insert(ctx context.Context, tx *gorm.DB, turn *types.ConversationTurn) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if turn.ID == uuid.Nil {
		turn.ID = uuid.New()
	}
	return transaction.WithContext(ctx).Create(turn).Error
}

func (r *conversationTurnRepo) GetLatest(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date, messageType, role string) (*types.ConversationTurn, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.ConversationTurn
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND date = ? AND message_type = ? AND role = ?", userID, date, messageType, role).
		Order("created_at DESC").
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *conversationTurnRepo) GetByUserDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date string) ([]*types.ConversationTurn, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ConversationTurn
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
