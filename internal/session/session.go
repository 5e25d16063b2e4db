package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wellora/wellora-backend/internal/logger"
	"github.com/wellora/wellora-backend/internal/types"
)

// State is the session's view of its most recent operation. Idle, Success
// and Error are terminal; Processing is transient.
type State int

const (
	StateIdle State = iota
	StateProcessing
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProcessing:
		return "processing"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether the session has finished its last operation.
func (s State) Terminal() bool {
	return s != StateProcessing
}

var (
	ErrTransport = errors.New("model backend transport failure")
	ErrParse     = errors.New("unparseable model reply")
)

// Backend is the text-generation collaborator. It receives the full ordered
// turn history including the new outbound message and returns the raw reply
// text.
type Backend interface {
	Generate(ctx context.Context, turns []Turn) (string, error)
}

// Turn is one message of the conversation, outbound or inbound.
type Turn struct {
	Role        string
	MessageType string
	Content     string
	At          time.Time
}

// Session owns one ordered conversation with the backend. It is an owned
// value created per pipeline run, never shared across runs; the mutex guards
// against the state poller observing a half-applied exchange.
type Session struct {
	mu      sync.Mutex
	backend Backend
	log     *logger.Logger
	now     func() time.Time
	sink    func(Turn)

	priming   string
	history   []Turn
	state     State
	lastReply Reply
	lastErr   error
}

type Option func(*Session)

// WithSink registers a callback invoked for every turn appended to history.
// The pipeline uses it to mirror turns into the local cache piecemeal.
func WithSink(sink func(Turn)) Option {
	return func(s *Session) { s.sink = sink }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func New(backend Backend, log *logger.Logger, opts ...Option) *Session {
	s := &Session{
		backend: backend,
		log:     log.With("component", "ConversationSession"),
		now:     time.Now,
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetPriming stores the profile-priming message. If history is empty when the
// next message is sent, the priming message goes out first.
func (s *Session) SetPriming(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.priming = content
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Last returns the result of the most recent completed operation.
func (s *Session) Last() (Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReply, s.lastErr
}

// History returns a copy of the ordered turn history.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

// Reset clears turn history and returns to Idle unconditionally.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.state = StateIdle
	s.lastReply = Reply{}
	s.lastErr = nil
}

// Dispatch starts an exchange without blocking the caller. The state is
// Processing before Dispatch returns, so a poller started immediately after
// cannot observe the previous operation's terminal state.
func (s *Session) Dispatch(ctx context.Context, messageType, content string) {
	s.mu.Lock()
	s.state = StateProcessing
	s.mu.Unlock()
	go func() {
		_, _ = s.Send(ctx, messageType, content)
	}()
}

// Send performs one exchange synchronously: priming first when history is
// empty, then the caller's message. Both turns of a successful exchange are
// appended to history. Failures mark the session Error without touching the
// history already recorded. The state stays Processing across the priming
// exchange; Success and the published reply always belong to the caller's
// message, never to the priming ack.
func (s *Session) Send(ctx context.Context, messageType, content string) (Reply, error) {
	s.mu.Lock()
	s.state = StateProcessing
	needPriming := len(s.history) == 0 && s.priming != "" && content != s.priming
	priming := s.priming
	s.mu.Unlock()

	if needPriming {
		if _, err := s.exchange(ctx, types.MessageTypeProfile, priming); err != nil {
			return Reply{}, err
		}
	}
	reply, err := s.exchange(ctx, messageType, content)
	if err != nil {
		return Reply{}, err
	}

	s.mu.Lock()
	s.state = StateSuccess
	s.lastReply = reply
	s.lastErr = nil
	s.mu.Unlock()
	return reply, nil
}

func (s *Session) exchange(ctx context.Context, messageType, content string) (Reply, error) {
	outbound := Turn{
		Role:        types.RoleUser,
		MessageType: messageType,
		Content:     content,
		At:          s.now(),
	}

	s.mu.Lock()
	turns := make([]Turn, 0, len(s.history)+1)
	turns = append(turns, s.history...)
	turns = append(turns, outbound)
	s.mu.Unlock()

	raw, err := s.backend.Generate(ctx, turns)
	if err != nil {
		return s.fail(fmt.Errorf("%w: %v", ErrTransport, err))
	}
	reply, err := Interpret(raw)
	if err != nil {
		return s.fail(err)
	}

	inbound := Turn{
		Role:        types.RoleModel,
		MessageType: messageType,
		Content:     raw,
		At:          s.now(),
	}

	s.mu.Lock()
	s.history = append(s.history, outbound, inbound)
	sink := s.sink
	s.mu.Unlock()

	// The sink runs before Send marks the state terminal, so a poller that
	// sees Success also sees the exchange fully mirrored.
	if sink != nil {
		sink(outbound)
		sink(inbound)
	}
	return reply, nil
}

func (s *Session) fail(err error) (Reply, error) {
	s.mu.Lock()
	s.state = StateError
	s.lastReply = Reply{}
	s.lastErr = err
	s.mu.Unlock()
	s.log.Warn("session exchange failed", "error", err)
	return Reply{}, err
}
