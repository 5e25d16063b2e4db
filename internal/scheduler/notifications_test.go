package scheduler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/wellora/wellora-backend/internal/logger"
	"github.com/wellora/wellora-backend/internal/types"
)

type fakeTimer struct {
	registered []struct {
		At      time.Time
		Payload Payload
	}
	failTitles map[string]bool
}

func (f *fakeTimer) RegisterOneShot(at time.Time, payload Payload) error {
	if f.failTitles[payload.Title] {
		return fmt.Errorf("device rejected registration")
	}
	f.registered = append(f.registered, struct {
		At      time.Time
		Payload Payload
	}{at, payload})
	return nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestNextOccurrence(t *testing.T) {
	base := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		name         string
		now          time.Time
		hour, minute int
		want         time.Time
	}{
		{
			name: "already_passed_goes_to_tomorrow",
			now:  base, hour: 8, minute: 0,
			want: time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "still_ahead_stays_today",
			now:  time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC), hour: 8, minute: 0,
			want: time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly_now_goes_to_tomorrow",
			now:  base, hour: 9, minute: 0,
			want: time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextOccurrence(tc.now, tc.hour, tc.minute)
			if !got.Equal(tc.want) {
				t.Fatalf("NextOccurrence=%v, want %v", got, tc.want)
			}
			if !got.After(tc.now) {
				t.Fatalf("NextOccurrence=%v is not strictly after now=%v", got, tc.now)
			}
		})
	}
}

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in      string
		hour    int
		minute  int
		wantErr bool
	}{
		{in: "08:00", hour: 8, minute: 0},
		{in: "23:59", hour: 23, minute: 59},
		{in: " 14:30 ", hour: 14, minute: 30},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noonish", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			h, m, err := ParseTimeOfDay(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseTimeOfDay(%q) expected error", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimeOfDay(%q) error: %v", tc.in, err)
			}
			if h != tc.hour || m != tc.minute {
				t.Fatalf("ParseTimeOfDay(%q)=%d:%d, want %d:%d", tc.in, h, m, tc.hour, tc.minute)
			}
		})
	}
}

func TestScheduleIsBestEffortPerItem(t *testing.T) {
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	timer := &fakeTimer{failTitles: map[string]bool{"Broken": true}}
	s := NewNotificationScheduler(testLogger(t), timer,
		WithSchedulerClock(func() time.Time { return now }),
		WithLocation(time.UTC),
	)

	items := []types.NotificationItem{
		{Title: "Morning walk", Body: "Get outside", PushingTime: "08:00"},
		{Title: "Broken", Body: "device says no", PushingTime: "10:00"},
		{Title: "Bad time", Body: "unparseable", PushingTime: "25:99"},
		{Title: "Wind down", Body: "Screens off", PushingTime: "21:30"},
	}
	err := s.Schedule(context.Background(), items)
	if !errors.Is(err, ErrScheduling) {
		t.Fatalf("Schedule err=%v, want ErrScheduling", err)
	}
	if len(timer.registered) != 2 {
		t.Fatalf("registered=%d, want 2 despite failures", len(timer.registered))
	}

	first := timer.registered[0]
	wantFirst := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	if !first.At.Equal(wantFirst) {
		t.Fatalf("first trigger=%v, want tomorrow 08:00 (%v)", first.At, wantFirst)
	}
	second := timer.registered[1]
	wantSecond := time.Date(2026, 8, 30, 21, 30, 0, 0, time.UTC)
	if !second.At.Equal(wantSecond) {
		t.Fatalf("second trigger=%v, want today 21:30 (%v)", second.At, wantSecond)
	}
}

func TestScheduleAllGoodItemsReturnsNil(t *testing.T) {
	now := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)
	timer := &fakeTimer{}
	s := NewNotificationScheduler(testLogger(t), timer,
		WithSchedulerClock(func() time.Time { return now }),
		WithLocation(time.UTC),
	)
	err := s.Schedule(context.Background(), []types.NotificationItem{
		{Title: "Hydrate", Body: "Drink water", PushingTime: "12:00"},
	})
	if err != nil {
		t.Fatalf("Schedule error: %v", err)
	}
	if len(timer.registered) != 1 {
		t.Fatalf("registered=%d, want 1", len(timer.registered))
	}
}
