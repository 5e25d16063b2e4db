package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Task is one entry of the generated daily task list.
type Task struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Status string `json:"status"`
}

// NotificationItem is one entry of the generated notification list.
// PushingTime is a local time of day, "HH:MM".
type NotificationItem struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	PushingTime string `json:"pushingTime"`
}

// GeneratedContent is the persisted output of one pipeline run.
type GeneratedContent struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_content_user_date;column:user_id" json:"user_id"`
	Date          string         `gorm:"not null;uniqueIndex:idx_content_user_date;column:date" json:"date"`
	Welcome       string         `gorm:"column:welcome" json:"welcome"`
	Affirmation   string         `gorm:"column:affirmation" json:"affirmation"`
	Tasks         datatypes.JSON `gorm:"column:tasks" json:"tasks,omitempty"`
	Notifications datatypes.JSON `gorm:"column:notifications" json:"notifications,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (GeneratedContent) TableName() string {
	return "generated_content"
}
