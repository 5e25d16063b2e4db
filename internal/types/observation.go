package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DailyObservation is one day's behavioral record for a user. Rows are
// immutable once written for a date; the device upserts them before the
// nightly pipeline reads them back.
type DailyObservation struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID               uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_observation_user_date;column:user_id" json:"user_id"`
	Date                 string         `gorm:"not null;uniqueIndex:idx_observation_user_date;column:date" json:"date"`
	Steps                int            `gorm:"column:steps" json:"steps"`
	LeftHome             bool           `gorm:"column:left_home" json:"left_home"`
	Calories             float64        `gorm:"column:calories" json:"calories"`
	SleepHours           float64        `gorm:"column:sleep_hours" json:"sleep_hours"`
	SleepQuality         string         `gorm:"column:sleep_quality" json:"sleep_quality"`
	SleepStart           string         `gorm:"column:sleep_start" json:"sleep_start"`
	SleepEnd             string         `gorm:"column:sleep_end" json:"sleep_end"`
	Mood                 int            `gorm:"column:mood" json:"mood"`
	ScreenHours          float64        `gorm:"column:screen_hours" json:"screen_hours"`
	AppScreenTime        datatypes.JSON `gorm:"column:app_screen_time" json:"app_screen_time,omitempty"`
	QuestionnaireScore   int            `gorm:"column:questionnaire_score" json:"questionnaire_score"`
	QuestionnaireAnswers datatypes.JSON `gorm:"column:questionnaire_answers" json:"questionnaire_answers,omitempty"`
	WellbeingScore       float64        `gorm:"column:wellbeing_score" json:"wellbeing_score"`
	CreatedAt            time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (DailyObservation) TableName() string {
	return "daily_observation"
}

// AppScreenTimeMap decodes the per-application screen-time column into
// app name -> hours. A malformed or empty column decodes to an empty map.
func (o *DailyObservation) AppScreenTimeMap() map[string]float64 {
	out := map[string]float64{}
	if len(o.AppScreenTime) == 0 {
		return out
	}
	if err := json.Unmarshal(o.AppScreenTime, &out); err != nil {
		return map[string]float64{}
	}
	return out
}

// DefaultDailyObservation is the substitute record used when the prior day
// has no observation. Mid-range score, zero activity, minimal sleep, neutral
// mood. The pipeline proceeds with it instead of aborting.
func DefaultDailyObservation(userID uuid.UUID, date string) *DailyObservation {
	return &DailyObservation{
		ID:                 uuid.New(),
		UserID:             userID,
		Date:               date,
		Steps:              0,
		LeftHome:           false,
		Calories:           0,
		SleepHours:         4,
		SleepQuality:       "poor",
		SleepStart:         "01:00",
		SleepEnd:           "05:00",
		Mood:               5,
		ScreenHours:        0,
		QuestionnaireScore: 5,
		WellbeingScore:     50,
	}
}
