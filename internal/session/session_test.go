package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/wellora/wellora-backend/internal/logger"
	"github.com/wellora/wellora-backend/internal/types"
)

type fakeBackend struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	calls   [][]Turn
}

func (f *fakeBackend) Generate(ctx context.Context, turns []Turn) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snapshot := make([]Turn, len(turns))
	copy(snapshot, turns)
	f.calls = append(f.calls, snapshot)
	idx := len(f.calls) - 1
	if idx < len(f.errs) && f.errs[idx] != nil {
		return "", f.errs[idx]
	}
	if idx < len(f.replies) {
		return f.replies[idx], nil
	}
	return "ok", nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestSendPrimesOnEmptyHistory(t *testing.T) {
	backend := &fakeBackend{replies: []string{"ok", `{"welcome_message":"hi"}`}}
	s := New(backend, testLogger(t))
	s.SetPriming(`{"age":30}`)

	reply, err := s.Send(context.Background(), types.MessageTypeWelcomeResponse, "generate_welcome_message")
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if reply.Kind != KindPayload {
		t.Fatalf("reply kind=%v, want payload", reply.Kind)
	}

	history := s.History()
	if len(history) != 4 {
		t.Fatalf("history length=%d, want 4 (priming pair + command pair)", len(history))
	}
	if history[0].MessageType != types.MessageTypeProfile || history[0].Role != types.RoleUser {
		t.Fatalf("first turn=%+v, want the profile priming turn", history[0])
	}
	primingTurns := 0
	for _, turn := range history {
		if turn.MessageType == types.MessageTypeProfile && turn.Role == types.RoleUser {
			primingTurns++
		}
	}
	if primingTurns != 1 {
		t.Fatalf("priming turns=%d, want exactly 1", primingTurns)
	}
}

func TestSendDoesNotRePrime(t *testing.T) {
	backend := &fakeBackend{replies: []string{"ok", "ok"}}
	s := New(backend, testLogger(t))
	s.SetPriming(`{"age":30}`)

	if _, err := s.Send(context.Background(), types.MessageTypeProfile, `{"age":30}`); err != nil {
		t.Fatalf("priming send error: %v", err)
	}
	if _, err := s.Send(context.Background(), types.MessageTypeDailyData, `{"steps":100}`); err != nil {
		t.Fatalf("daily send error: %v", err)
	}
	if got := len(s.History()); got != 4 {
		t.Fatalf("history length=%d, want 4", got)
	}
	if got := len(backend.calls); got != 2 {
		t.Fatalf("backend calls=%d, want 2", got)
	}
}

func TestTransportFailureLeavesHistoryIntact(t *testing.T) {
	backend := &fakeBackend{replies: []string{"ok"}, errs: []error{nil, fmt.Errorf("connection refused")}}
	s := New(backend, testLogger(t))

	if _, err := s.Send(context.Background(), types.MessageTypeProfile, `{"age":30}`); err != nil {
		t.Fatalf("first send error: %v", err)
	}
	before := len(s.History())

	_, err := s.Send(context.Background(), types.MessageTypeDailyData, `{"steps":1}`)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("err=%v, want ErrTransport", err)
	}
	if s.State() != StateError {
		t.Fatalf("state=%v, want error", s.State())
	}
	if got := len(s.History()); got != before {
		t.Fatalf("history length changed on failure: %d -> %d", before, got)
	}
}

func TestParseFailureIsParseError(t *testing.T) {
	backend := &fakeBackend{replies: []string{"no json here at all"}}
	s := New(backend, testLogger(t))

	_, err := s.Send(context.Background(), types.MessageTypeWelcomeResponse, "generate_welcome_message")
	if !errors.Is(err, ErrParse) {
		t.Fatalf("err=%v, want ErrParse", err)
	}
	if len(s.History()) != 0 {
		t.Fatalf("failed exchange must not be recorded, history=%d", len(s.History()))
	}
}

func TestResetClearsHistoryAndState(t *testing.T) {
	backend := &fakeBackend{replies: []string{"ok"}}
	s := New(backend, testLogger(t))
	if _, err := s.Send(context.Background(), types.MessageTypeProfile, "{}"); err != nil {
		t.Fatalf("send error: %v", err)
	}
	s.Reset()
	if s.State() != StateIdle {
		t.Fatalf("state after reset=%v, want idle", s.State())
	}
	if len(s.History()) != 0 {
		t.Fatalf("history after reset=%d, want 0", len(s.History()))
	}
}

func TestDispatchIsProcessingBeforeReturn(t *testing.T) {
	release := make(chan struct{})
	backend := &blockingBackend{release: release}
	s := New(backend, testLogger(t))

	s.Dispatch(context.Background(), types.MessageTypeProfile, "{}")
	if got := s.State(); got != StateProcessing {
		t.Fatalf("state right after Dispatch=%v, want processing", got)
	}
	close(release)

	waitUntil := time.Now().Add(2 * time.Second)
	for s.State() == StateProcessing {
		if time.Now().After(waitUntil) {
			t.Fatal("session never left Processing")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := s.State(); got != StateSuccess {
		t.Fatalf("terminal state=%v, want success", got)
	}
}

type blockingBackend struct {
	release chan struct{}
}

func (b *blockingBackend) Generate(ctx context.Context, turns []Turn) (string, error) {
	<-b.release
	return "ok", nil
}

// primingThenBlockingBackend acks the priming exchange immediately, then
// blocks the second call until released.
type primingThenBlockingBackend struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	reply   string
}

func (b *primingThenBlockingBackend) Generate(ctx context.Context, turns []Turn) (string, error) {
	b.mu.Lock()
	b.calls++
	call := b.calls
	b.mu.Unlock()
	if call == 1 {
		return "ok", nil
	}
	select {
	case <-b.release:
		return b.reply, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestStateStaysProcessingAcrossPrimingExchange(t *testing.T) {
	backend := &primingThenBlockingBackend{
		release: make(chan struct{}),
		reply:   `{"welcome_message":"hi"}`,
	}
	s := New(backend, testLogger(t))
	s.SetPriming(`{"age":30}`)

	s.Dispatch(context.Background(), types.MessageTypeWelcomeResponse, "generate_welcome_message")

	// Give the priming exchange time to complete. The caller's message is
	// still in flight, so no poll may observe a terminal state yet.
	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) {
		if got := s.State(); got != StateProcessing {
			t.Fatalf("state=%v while the caller's message was still in flight, want processing", got)
		}
		time.Sleep(10 * time.Millisecond)
	}
	close(backend.release)

	waitUntil := time.Now().Add(2 * time.Second)
	for s.State() == StateProcessing {
		if time.Now().After(waitUntil) {
			t.Fatal("session never left Processing")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := s.State(); got != StateSuccess {
		t.Fatalf("terminal state=%v, want success", got)
	}
	reply, err := s.Last()
	if err != nil {
		t.Fatalf("Last error: %v", err)
	}
	if reply.Kind != KindPayload {
		t.Fatalf("Last reply kind=%v raw=%q, want the caller's payload, not the priming ack", reply.Kind, reply.Raw)
	}
	if got := len(s.History()); got != 4 {
		t.Fatalf("history length=%d, want 4", got)
	}
}

func TestSinkReceivesTurnsInOrder(t *testing.T) {
	backend := &fakeBackend{replies: []string{"ok"}}
	var seen []Turn
	s := New(backend, testLogger(t), WithSink(func(turn Turn) {
		seen = append(seen, turn)
	}))
	if _, err := s.Send(context.Background(), types.MessageTypeDailyData, `{"steps":1}`); err != nil {
		t.Fatalf("send error: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("sink turns=%d, want 2", len(seen))
	}
	if seen[0].Role != types.RoleUser || seen[1].Role != types.RoleModel {
		t.Fatalf("sink order wrong: %+v", seen)
	}
}
