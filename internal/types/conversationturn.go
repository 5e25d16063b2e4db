package types

import (
	"time"

	"github.com/google/uuid"
)

// Conversation message types. Together with (user_id, date, role) they form
// the lookup key for "latest answer of a kind"; multiple turns may exist per
// key and the most recent wins.
const (
	MessageTypeProfile               = "profile"
	MessageTypeDailyData             = "daily_data"
	MessageTypeWelcomeResponse       = "welcome_response"
	MessageTypeAffirmationResponse   = "affirmation_response"
	MessageTypeTodosResponse         = "todos_response"
	MessageTypeNotificationsResponse = "notifications_response"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

type ConversationTurn struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index:idx_turn_lookup;column:user_id" json:"user_id"`
	Date        string    `gorm:"not null;index:idx_turn_lookup;column:date" json:"date"`
	MessageType string    `gorm:"not null;index:idx_turn_lookup;column:message_type" json:"message_type"`
	Role        string    `gorm:"not null;index:idx_turn_lookup;column:role" json:"role"`
	Content     string    `gorm:"not null;column:content" json:"content"`
	CreatedAt   time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

func (ConversationTurn) TableName() string {
	return "conversation_turn"
}
