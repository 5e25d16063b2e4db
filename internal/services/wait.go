package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wellora/wellora-backend/internal/session"
)

var ErrSessionTimeout = errors.New("session did not reach a terminal state in time")

// Default bounded-wait parameters for session state polling.
const (
	StatePollInterval = 100 * time.Millisecond
	StatePollDeadline = 30 * time.Second
)

// waitTerminal samples the session state at a fixed interval until it leaves
// Processing, the deadline elapses, or ctx is cancelled. Deadline expiry is
// treated the same as an Error state: the step fails.
func waitTerminal(ctx context.Context, sess *session.Session, interval, deadline time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	timeout := time.NewTimer(deadline)
	defer timeout.Stop()

	for {
		state := sess.State()
		if state.Terminal() {
			if state == session.StateError {
				_, err := sess.Last()
				if err == nil {
					err = fmt.Errorf("session reported error state")
				}
				return err
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout.C:
			return ErrSessionTimeout
		case <-ticker.C:
		}
	}
}
