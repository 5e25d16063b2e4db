package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	PipelineRunStatusRunning   = "running"
	PipelineRunStatusSucceeded = "succeeded"
	PipelineRunStatusFailed    = "failed"
	PipelineRunStatusSkipped   = "skipped"
)

// PipelineRun is the audit row for one daily pipeline execution. The run is
// all-or-nothing for the mandatory steps; the scheduling step is best-effort
// and recorded separately.
type PipelineRun struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	Date         string     `gorm:"not null;column:date" json:"date"`
	Status       string     `gorm:"not null;column:status" json:"status"`
	FailedStep   string     `gorm:"column:failed_step" json:"failed_step,omitempty"`
	Error        string     `gorm:"column:error" json:"error,omitempty"`
	SchedulingOK bool       `gorm:"column:scheduling_ok" json:"scheduling_ok"`
	StartedAt    time.Time  `gorm:"not null;column:started_at" json:"started_at"`
	FinishedAt   *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt    time.Time  `gorm:"not null;default:now()" json:"created_at"`
}

func (PipelineRun) TableName() string {
	return "pipeline_run"
}
