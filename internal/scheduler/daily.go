package scheduler

import (
	"fmt"

	"github.com/robfig/cron"

	"github.com/wellora/wellora-backend/internal/logger"
)

// DailyTrigger fires the pipeline once a day at a fixed local time. This is
// the unattended entry point; the HTTP trigger endpoint covers the manual
// one.
type DailyTrigger struct {
	log  *logger.Logger
	cron *cron.Cron
}

func NewDailyTrigger(log *logger.Logger, hour, minute int, run func()) (*DailyTrigger, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid daily trigger time %02d:%02d", hour, minute)
	}
	c := cron.New()
	spec := fmt.Sprintf("0 %d %d * * *", minute, hour)
	if err := c.AddFunc(spec, run); err != nil {
		return nil, fmt.Errorf("register daily trigger: %w", err)
	}
	return &DailyTrigger{
		log:  log.With("service", "DailyTrigger"),
		cron: c,
	}, nil
}

func (t *DailyTrigger) Start() {
	t.log.Info("daily trigger started")
	t.cron.Start()
}

func (t *DailyTrigger) Stop() {
	t.cron.Stop()
	t.log.Info("daily trigger stopped")
}
