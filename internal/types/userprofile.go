package types

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile carries the demographic attributes the score engine folds into
// its multiplier. Every field is optional; a missing field contributes zero
// adjustment.
type UserProfile struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;column:user_id" json:"user_id"`
	Gender        *string   `gorm:"column:gender" json:"gender,omitempty"`
	Age           *int      `gorm:"column:age" json:"age,omitempty"`
	Profession    *string   `gorm:"column:profession" json:"profession,omitempty"`
	MaritalStatus *string   `gorm:"column:marital_status" json:"marital_status,omitempty"`
	Country       *string   `gorm:"column:country" json:"country,omitempty"`
	CreatedAt     time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (UserProfile) TableName() string {
	return "user_profile"
}
