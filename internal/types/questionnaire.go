package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type QuestionnaireResult struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_questionnaire_user_date;column:user_id" json:"user_id"`
	Date      string         `gorm:"not null;index:idx_questionnaire_user_date;column:date" json:"date"`
	Score     int            `gorm:"not null;column:score" json:"score"`
	Answers   datatypes.JSON `gorm:"column:answers" json:"answers,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (QuestionnaireResult) TableName() string {
	return "questionnaire_result"
}
