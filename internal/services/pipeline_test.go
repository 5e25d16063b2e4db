package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellora/wellora-backend/internal/logger"
	"github.com/wellora/wellora-backend/internal/scheduler"
	"github.com/wellora/wellora-backend/internal/session"
	"github.com/wellora/wellora-backend/internal/types"
)

// ---- fakes ----

type scriptedBackend struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	calls   []string // outbound content of the newest turn per call
}

func (b *scriptedBackend) Generate(ctx context.Context, turns []session.Turn) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(turns) > 0 {
		b.calls = append(b.calls, turns[len(turns)-1].Content)
	} else {
		b.calls = append(b.calls, "")
	}
	idx := len(b.calls) - 1
	if idx < len(b.errs) && b.errs[idx] != nil {
		return "", b.errs[idx]
	}
	if idx < len(b.replies) {
		return b.replies[idx], nil
	}
	return "", fmt.Errorf("unexpected call %d", idx)
}

func (b *scriptedBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func (b *scriptedBackend) call(i int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[i]
}

type fakeIdentity struct {
	userID uuid.UUID
	err    error
}

func (f *fakeIdentity) CurrentUserID(ctx context.Context) (uuid.UUID, error) {
	return f.userID, f.err
}

type fakeProfileRepo struct {
	profile *types.UserProfile
}

func (f *fakeProfileRepo) Upsert(ctx context.Context, tx *gorm.DB, p *types.UserProfile) (*types.UserProfile, error) {
	f.profile = p
	return p, nil
}

func (f *fakeProfileRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserProfile, error) {
	if f.profile == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.profile, nil
}

type fakeObservationRepo struct {
	obs map[string]*types.DailyObservation
}

func (f *fakeObservationRepo) Upsert(ctx context.Context, tx *gorm.DB, obs *types.DailyObservation) (*types.DailyObservation, error) {
	if f.obs == nil {
		f.obs = map[string]*types.DailyObservation{}
	}
	f.obs[obs.Date] = obs
	return obs, nil
}

func (f *fakeObservationRepo) GetByUserDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date string) (*types.DailyObservation, error) {
	if o, ok := f.obs[date]; ok {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeObservationRepo) GetByUserDateRange(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from, to string) ([]*types.DailyObservation, error) {
	return nil, nil
}

type fakeContentRepo struct {
	mu    sync.Mutex
	saved *types.GeneratedContent
}

func (f *fakeContentRepo) Upsert(ctx context.Context, tx *gorm.DB, content *types.GeneratedContent) (*types.GeneratedContent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = content
	return content, nil
}

func (f *fakeContentRepo) GetByUserDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date string) (*types.GeneratedContent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.saved, nil
}

type fakeRunRepo struct {
	mu      sync.Mutex
	created []*types.PipelineRun
	updates []map[string]interface{}
}

func (f *fakeRunRepo) Create(ctx context.Context, tx *gorm.DB, runs []*types.PipelineRun) ([]*types.PipelineRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, runs...)
	return runs, nil
}

func (f *fakeRunRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updates)
	return nil
}

func (f *fakeRunRepo) GetLatestByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.PipelineRun, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRunRepo) lastUpdate() map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.updates) == 0 {
		return nil
	}
	return f.updates[len(f.updates)-1]
}

type fakeTurnCache struct {
	mu    sync.Mutex
	turns []*types.ConversationTurn
}

func (f *fakeTurnCache) Insert(ctx context.Context, tx *gorm.DB, turn *types.ConversationTurn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = append(f.turns, turn)
	return nil
}

func (f *fakeTurnCache) GetLatest(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date, messageType, role string) (*types.ConversationTurn, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTurnCache) GetByUserDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date string) ([]*types.ConversationTurn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.turns, nil
}

func (f *fakeTurnCache) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.turns)
}

type fakeDeviceTimer struct {
	mu         sync.Mutex
	registered []scheduler.Payload
	fail       bool
}

func (f *fakeDeviceTimer) RegisterOneShot(at time.Time, payload scheduler.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("device refused")
	}
	f.registered = append(f.registered, payload)
	return nil
}

func (f *fakeDeviceTimer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.registered)
}

type fakeLock struct {
	held bool
}

func (f *fakeLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return !f.held, nil
}
func (f *fakeLock) Release(ctx context.Context, key string) error { return nil }
func (f *fakeLock) Close() error                                  { return nil }

// ---- harness ----

const (
	welcomeReplyJSON       = `{"welcome_message":"Good morning!"}`
	affirmationReplyJSON   = `{"affirmation_message":"You are doing well."}`
	todosReplyJSON         = "```json\n{\"tasks\":[{\"title\":\"Walk\",\"body\":\"20 minutes\",\"status\":\"pending\"}]}\n```"
	notificationsReplyJSON = "```json\n{\"notifications\":[{\"title\":\"Stretch\",\"body\":\"Stand up\",\"pushingTime\":\"14:00\"}]}\n```"
)

func happyReplies() []string {
	return []string{"ok", "ok", welcomeReplyJSON, affirmationReplyJSON, todosReplyJSON, notificationsReplyJSON}
}

type pipelineHarness struct {
	svc     PipelineService
	backend *scriptedBackend
	content *fakeContentRepo
	runs    *fakeRunRepo
	cache   *fakeTurnCache
	timer   *fakeDeviceTimer
	obsRepo *fakeObservationRepo
	userID  uuid.UUID
}

func newPipelineHarness(t *testing.T, backend *scriptedBackend, opts func(*pipelineHarness)) *pipelineHarness {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	userID := uuid.New()
	age := 30
	h := &pipelineHarness{
		backend: backend,
		content: &fakeContentRepo{},
		runs:    &fakeRunRepo{},
		cache:   &fakeTurnCache{},
		timer:   &fakeDeviceTimer{},
		obsRepo: &fakeObservationRepo{},
		userID:  userID,
	}
	profiles := &fakeProfileRepo{profile: &types.UserProfile{
		ID: uuid.New(), UserID: userID, Age: &age,
	}}

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	h.obsRepo.obs = map[string]*types.DailyObservation{
		yesterday: {
			ID: uuid.New(), UserID: userID, Date: yesterday,
			Steps: 9000, LeftHome: true, SleepHours: 8, SleepQuality: "good",
			Mood: 7, WellbeingScore: 74,
		},
	}

	if opts != nil {
		opts(h)
	}

	sched := scheduler.NewNotificationScheduler(log, h.timer)
	cfg := PipelineConfig{
		PollInterval: 5 * time.Millisecond,
		PollDeadline: 2 * time.Second,
		LockTTL:      time.Minute,
	}
	h.svc = NewPipelineService(
		log,
		backend,
		&fakeIdentity{userID: userID},
		profiles,
		h.obsRepo,
		h.content,
		h.runs,
		h.cache,
		sched,
		nil,
		nil,
		cfg,
	)
	return h
}

// ---- tests ----

func TestRunDailyHappyPath(t *testing.T) {
	backend := &scriptedBackend{replies: happyReplies()}
	h := newPipelineHarness(t, backend, nil)

	if err := h.svc.RunDaily(context.Background()); err != nil {
		t.Fatalf("RunDaily error: %v", err)
	}
	if got := backend.callCount(); got != 6 {
		t.Fatalf("backend calls=%d, want 6", got)
	}

	saved := h.content.saved
	if saved == nil {
		t.Fatal("generated content was not persisted")
	}
	if saved.Welcome != "Good morning!" {
		t.Fatalf("welcome=%q", saved.Welcome)
	}
	if saved.Affirmation != "You are doing well." {
		t.Fatalf("affirmation=%q", saved.Affirmation)
	}
	if !strings.Contains(string(saved.Tasks), `"Walk"`) {
		t.Fatalf("tasks json=%s", saved.Tasks)
	}
	if !strings.Contains(string(saved.Notifications), `"14:00"`) {
		t.Fatalf("notifications json=%s", saved.Notifications)
	}

	if got := h.timer.count(); got != 1 {
		t.Fatalf("scheduled notifications=%d, want 1", got)
	}
	// Six exchanges, two turns each, mirrored piecemeal into the cache.
	if got := h.cache.count(); got != 12 {
		t.Fatalf("cached turns=%d, want 12", got)
	}

	update := h.runs.lastUpdate()
	if update == nil || update["status"] != types.PipelineRunStatusSucceeded {
		t.Fatalf("run row update=%v, want succeeded", update)
	}
}

func TestRunAbortsWhenIdentityMissing(t *testing.T) {
	backend := &scriptedBackend{replies: happyReplies()}
	h := newPipelineHarness(t, backend, nil)

	log, _ := logger.New("dev")
	svc := NewPipelineService(
		log, backend, &fakeIdentity{err: ErrNoSession},
		&fakeProfileRepo{}, h.obsRepo, h.content, h.runs, h.cache,
		scheduler.NewNotificationScheduler(log, h.timer),
		nil, nil, DefaultPipelineConfig(),
	)
	err := svc.RunDaily(context.Background())
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("err=%v, want ErrNoSession", err)
	}
	if got := backend.callCount(); got != 0 {
		t.Fatalf("backend calls=%d, want 0", got)
	}
}

func TestRunAbortsWhenProfileMissing(t *testing.T) {
	backend := &scriptedBackend{replies: happyReplies()}
	h := newPipelineHarness(t, backend, nil)

	log, _ := logger.New("dev")
	svc := NewPipelineService(
		log, backend, &fakeIdentity{userID: h.userID},
		&fakeProfileRepo{}, h.obsRepo, h.content, h.runs, h.cache,
		scheduler.NewNotificationScheduler(log, h.timer),
		nil, nil, DefaultPipelineConfig(),
	)
	err := svc.RunDaily(context.Background())
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("err=%v, want ErrProfileNotFound", err)
	}
	if got := backend.callCount(); got != 0 {
		t.Fatalf("backend calls=%d, want 0", got)
	}
}

func TestProfileSendFailureAbortsEverythingDownstream(t *testing.T) {
	backend := &scriptedBackend{
		replies: happyReplies(),
		errs:    []error{fmt.Errorf("connection refused")},
	}
	h := newPipelineHarness(t, backend, nil)

	err := h.svc.RunDaily(context.Background())
	if !errors.Is(err, session.ErrTransport) {
		t.Fatalf("err=%v, want ErrTransport", err)
	}
	if got := backend.callCount(); got != 1 {
		t.Fatalf("backend calls=%d, want 1 (no downstream steps)", got)
	}
	if h.content.saved != nil {
		t.Fatal("content must not be persisted after an aborted run")
	}
	if got := h.timer.count(); got != 0 {
		t.Fatalf("scheduler invoked %d times after aborted run", got)
	}
	update := h.runs.lastUpdate()
	if update == nil || update["failed_step"] != stepProfileSend {
		t.Fatalf("run row update=%v, want failed_step=%s", update, stepProfileSend)
	}
}

func TestIngestionReplyMustBeAck(t *testing.T) {
	backend := &scriptedBackend{
		replies: []string{`{"welcome_message":"too eager"}`},
	}
	h := newPipelineHarness(t, backend, nil)

	err := h.svc.RunDaily(context.Background())
	if !errors.Is(err, session.ErrParse) {
		t.Fatalf("err=%v, want ErrParse for a payload where the ack belongs", err)
	}
	if got := backend.callCount(); got != 1 {
		t.Fatalf("backend calls=%d, want 1", got)
	}
	if h.content.saved != nil {
		t.Fatal("content must not be persisted after a rejected ingestion reply")
	}
	update := h.runs.lastUpdate()
	if update == nil || update["failed_step"] != stepProfileSend {
		t.Fatalf("run row update=%v, want failed_step=%s", update, stepProfileSend)
	}
}

func TestParseFailureAbortsRun(t *testing.T) {
	backend := &scriptedBackend{
		replies: []string{"ok", "ok", "no json today, sorry"},
	}
	h := newPipelineHarness(t, backend, nil)

	err := h.svc.RunDaily(context.Background())
	if !errors.Is(err, session.ErrParse) {
		t.Fatalf("err=%v, want ErrParse", err)
	}
	if got := backend.callCount(); got != 3 {
		t.Fatalf("backend calls=%d, want 3", got)
	}
	if h.content.saved != nil {
		t.Fatal("content must not be persisted after a parse failure")
	}
}

func TestMissingObservationSubstitutesDefault(t *testing.T) {
	backend := &scriptedBackend{replies: happyReplies()}
	h := newPipelineHarness(t, backend, func(h *pipelineHarness) {
		h.obsRepo.obs = nil // no prior-day record
	})

	if err := h.svc.RunDaily(context.Background()); err != nil {
		t.Fatalf("RunDaily error: %v", err)
	}
	daily := backend.call(1)
	if !strings.Contains(daily, `"sleep_quality":"poor"`) {
		t.Fatalf("daily payload does not carry the default observation: %s", daily)
	}
	if !strings.Contains(daily, `"wellbeing_score":50`) {
		t.Fatalf("default observation should carry the mid-range score: %s", daily)
	}
}

func TestSchedulingFailureDoesNotFailRun(t *testing.T) {
	backend := &scriptedBackend{replies: happyReplies()}
	h := newPipelineHarness(t, backend, func(h *pipelineHarness) {
		h.timer.fail = true
	})

	if err := h.svc.RunDaily(context.Background()); err != nil {
		t.Fatalf("RunDaily must succeed despite scheduling failure, got: %v", err)
	}
	update := h.runs.lastUpdate()
	if update == nil || update["status"] != types.PipelineRunStatusSucceeded {
		t.Fatalf("run row update=%v, want succeeded", update)
	}
	if update["scheduling_ok"] != false {
		t.Fatalf("scheduling_ok=%v, want false", update["scheduling_ok"])
	}
}

func TestHeldLockSkipsRun(t *testing.T) {
	backend := &scriptedBackend{replies: happyReplies()}
	h := newPipelineHarness(t, backend, nil)

	log, _ := logger.New("dev")
	age := 30
	svc := NewPipelineService(
		log, backend, &fakeIdentity{userID: h.userID},
		&fakeProfileRepo{profile: &types.UserProfile{UserID: h.userID, Age: &age}},
		h.obsRepo, h.content, h.runs, h.cache,
		scheduler.NewNotificationScheduler(log, h.timer),
		&fakeLock{held: true}, nil, DefaultPipelineConfig(),
	)
	err := svc.RunForUser(context.Background(), h.userID)
	if !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("err=%v, want ErrRunInProgress", err)
	}
	if got := backend.callCount(); got != 0 {
		t.Fatalf("backend calls=%d, want 0 when the lock is held", got)
	}
}
