package scheduler

import (
	"sync"
	"time"

	"github.com/wellora/wellora-backend/internal/logger"
)

// Payload is what a fired timer hands to the delivery callback.
type Payload struct {
	Title string
	Body  string
}

// DeviceTimer is the one-shot alarm collaborator. Each registration fires
// its callback exactly once at the given instant; registrations do not
// survive a process restart.
type DeviceTimer interface {
	RegisterOneShot(at time.Time, payload Payload) error
}

// afterFuncTimer backs DeviceTimer with time.AfterFunc. Timers are tracked
// so Stop can cancel anything still pending at shutdown.
type afterFuncTimer struct {
	mu      sync.Mutex
	log     *logger.Logger
	deliver func(Payload)
	now     func() time.Time
	pending []*time.Timer
}

func NewAfterFuncTimer(log *logger.Logger, deliver func(Payload)) DeviceTimer {
	return &afterFuncTimer{
		log:     log.With("service", "DeviceTimer"),
		deliver: deliver,
		now:     time.Now,
	}
}

func (t *afterFuncTimer) RegisterOneShot(at time.Time, payload Payload) error {
	delay := at.Sub(t.now())
	if delay < 0 {
		delay = 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	timer := time.AfterFunc(delay, func() {
		t.log.Debug("one-shot timer fired", "title", payload.Title)
		t.deliver(payload)
	})
	t.pending = append(t.pending, timer)
	return nil
}

// Stop cancels all pending timers.
func (t *afterFuncTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, timer := range t.pending {
		timer.Stop()
	}
	t.pending = nil
}
