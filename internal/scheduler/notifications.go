package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wellora/wellora-backend/internal/logger"
	"github.com/wellora/wellora-backend/internal/types"
)

var ErrScheduling = errors.New("notification scheduling failure")

// NotificationScheduler converts generated (title, body, "HH:MM") triples
// into absolute trigger instants and registers one-shot timers for them.
// Items are independent: one bad item never blocks the rest.
type NotificationScheduler struct {
	log   *logger.Logger
	timer DeviceTimer
	now   func() time.Time
	loc   *time.Location
}

type SchedulerOption func(*NotificationScheduler)

func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *NotificationScheduler) { s.now = now }
}

func WithLocation(loc *time.Location) SchedulerOption {
	return func(s *NotificationScheduler) { s.loc = loc }
}

func NewNotificationScheduler(log *logger.Logger, timer DeviceTimer, opts ...SchedulerOption) *NotificationScheduler {
	s := &NotificationScheduler{
		log:   log.With("service", "NotificationScheduler"),
		timer: timer,
		now:   time.Now,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule registers one timer per item, best-effort. The returned error
// aggregates per-item failures and wraps ErrScheduling.
func (s *NotificationScheduler) Schedule(ctx context.Context, items []types.NotificationItem) error {
	var failures []string
	for _, item := range items {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.scheduleOne(item); err != nil {
			s.log.Warn("failed to schedule notification", "title", item.Title, "error", err)
			failures = append(failures, fmt.Sprintf("%q: %v", item.Title, err))
			continue
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("%w: %s", ErrScheduling, strings.Join(failures, "; "))
	}
	return nil
}

func (s *NotificationScheduler) scheduleOne(item types.NotificationItem) error {
	hour, minute, err := ParseTimeOfDay(item.PushingTime)
	if err != nil {
		return err
	}
	at := NextOccurrence(s.now().In(s.loc), hour, minute)
	if err := s.timer.RegisterOneShot(at, Payload{Title: item.Title, Body: item.Body}); err != nil {
		return err
	}
	s.log.Debug("notification scheduled", "title", item.Title, "at", at.Format(time.RFC3339))
	return nil
}

// ParseTimeOfDay parses a 24-hour "HH:MM" string.
func ParseTimeOfDay(hhmm string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(hhmm), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed time of day %q", hhmm)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("malformed hour in %q", hhmm)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("malformed minute in %q", hhmm)
	}
	return hour, minute, nil
}

// NextOccurrence returns the next instant matching the given time of day,
// strictly after now: a time of day that has already passed (or is exactly
// now) lands on tomorrow.
func NextOccurrence(now time.Time, hour, minute int) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}
