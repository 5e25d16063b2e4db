package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	redisclient "github.com/wellora/wellora-backend/internal/clients/redis"
	"github.com/wellora/wellora-backend/internal/logger"
	"github.com/wellora/wellora-backend/internal/observability"
	"github.com/wellora/wellora-backend/internal/repos"
	"github.com/wellora/wellora-backend/internal/scheduler"
	"github.com/wellora/wellora-backend/internal/session"
	"github.com/wellora/wellora-backend/internal/types"
)

var (
	ErrProfileNotFound = errors.New("user profile not found")
	ErrRunInProgress   = errors.New("a pipeline run is already in progress for this user")
)

// Generation command vocabulary, sent as plain text to the backend.
const (
	cmdWelcome       = "generate_welcome_message"
	cmdAffirmation   = "generate_affirmation_message"
	cmdTodos         = "generate_daily_todos"
	cmdNotifications = "generate_notification_message"
)

// Pipeline step names, used for audit rows, metrics and spans.
const (
	stepIdentity      = "identity"
	stepProfile       = "profile"
	stepProfileSend   = "profile_send"
	stepObservation   = "observation"
	stepDailySend     = "daily_send"
	stepWelcome       = "welcome"
	stepAffirmation   = "affirmation"
	stepTodos         = "todos"
	stepNotifications = "notifications"
	stepScheduling    = "scheduling"
)

// PipelineService runs the daily orchestration: prime a fresh conversation
// session with the user's profile, feed it yesterday's observation, drive
// the four generation commands, persist the output and hand the notification
// list to the scheduler. Steps 1-9 are fail-fast; scheduling is fail-soft.
type PipelineService interface {
	RunDaily(ctx context.Context) error
	RunForUser(ctx context.Context, userID uuid.UUID) error
}

type PipelineConfig struct {
	PollInterval time.Duration
	PollDeadline time.Duration
	LockTTL      time.Duration
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		PollInterval: StatePollInterval,
		PollDeadline: StatePollDeadline,
		LockTTL:      10 * time.Minute,
	}
}

type pipelineService struct {
	log          *logger.Logger
	backend      session.Backend
	identity     IdentityService
	profiles     repos.UserProfileRepo
	observations repos.ObservationRepo
	content      repos.GeneratedContentRepo
	runs         repos.PipelineRunRepo
	turnCache    repos.ConversationTurnRepo
	scheduler    *scheduler.NotificationScheduler
	lock         redisclient.RunLock
	metrics      *observability.Metrics
	tracer       trace.Tracer
	group        singleflight.Group
	now          func() time.Time
	cfg          PipelineConfig
}

func NewPipelineService(
	log *logger.Logger,
	backend session.Backend,
	identity IdentityService,
	profiles repos.UserProfileRepo,
	observations repos.ObservationRepo,
	content repos.GeneratedContentRepo,
	runs repos.PipelineRunRepo,
	turnCache repos.ConversationTurnRepo,
	notificationScheduler *scheduler.NotificationScheduler,
	lock redisclient.RunLock,
	metrics *observability.Metrics,
	cfg PipelineConfig,
) PipelineService {
	return &pipelineService{
		log:          log.With("service", "PipelineService"),
		backend:      backend,
		identity:     identity,
		profiles:     profiles,
		observations: observations,
		content:      content,
		runs:         runs,
		turnCache:    turnCache,
		scheduler:    notificationScheduler,
		lock:         lock,
		metrics:      metrics,
		tracer:       otel.Tracer("wellora/pipeline"),
		now:          time.Now,
		cfg:          cfg,
	}
}

func (s *pipelineService) RunDaily(ctx context.Context) error {
	userID, err := s.identity.CurrentUserID(ctx)
	if err != nil {
		s.log.Warn("daily run aborted, no identity", "step", stepIdentity, "error", err)
		s.countRun(types.PipelineRunStatusFailed)
		return err
	}
	return s.RunForUser(ctx, userID)
}

// RunForUser serializes concurrent invocations for the same user: the
// singleflight group folds in-process duplicates, the redis lock skips
// overlap across instances.
func (s *pipelineService) RunForUser(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return fmt.Errorf("missing user id")
	}
	_, err, _ := s.group.Do(userID.String(), func() (interface{}, error) {
		return nil, s.run(ctx, userID)
	})
	return err
}

func (s *pipelineService) run(ctx context.Context, userID uuid.UUID) error {
	date := s.now().Format("2006-01-02")
	priorDate := s.now().AddDate(0, 0, -1).Format("2006-01-02")

	if s.lock != nil {
		acquired, lockErr := s.lock.Acquire(ctx, userID.String()+":"+date, s.cfg.LockTTL)
		if lockErr != nil {
			// Advisory lock: a dead redis should not stop the daily run.
			s.log.Warn("run lock unavailable, continuing without it", "error", lockErr)
		} else if !acquired {
			s.log.Info("skipping run, lock already held", "user_id", userID.String(), "date", date)
			s.countRun(types.PipelineRunStatusSkipped)
			return ErrRunInProgress
		} else {
			defer func() {
				if releaseErr := s.lock.Release(context.Background(), userID.String()+":"+date); releaseErr != nil {
					s.log.Warn("failed to release run lock", "error", releaseErr)
				}
			}()
		}
	}

	ctx, span := s.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.String("pipeline.date", date)))
	defer span.End()

	started := s.now()
	run := &types.PipelineRun{
		ID:        uuid.New(),
		UserID:    userID,
		Date:      date,
		Status:    types.PipelineRunStatusRunning,
		StartedAt: started,
	}
	if _, err := s.runs.Create(ctx, nil, []*types.PipelineRun{run}); err != nil {
		s.log.Warn("failed to create pipeline run row", "error", err)
	}
	defer func() {
		if s.metrics != nil {
			s.metrics.RunDuration.Observe(s.now().Sub(started).Seconds())
		}
	}()

	sess := session.New(s.backend, s.log, session.WithSink(s.cacheSink(ctx, userID, date)))

	// Step 2: profile. Absence is fatal to this run.
	profile, err := s.profiles.GetByUserID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.fail(ctx, run, stepProfile, ErrProfileNotFound)
		}
		return s.fail(ctx, run, stepProfile, err)
	}

	// Step 3: prime the session with the profile.
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return s.fail(ctx, run, stepProfileSend, err)
	}
	sess.SetPriming(string(profileJSON))
	profileReply, err := s.sendAndWait(ctx, sess, stepProfileSend, types.MessageTypeProfile, string(profileJSON))
	if err != nil {
		return s.fail(ctx, run, stepProfileSend, err)
	}
	if err := requireAck(profileReply); err != nil {
		return s.fail(ctx, run, stepProfileSend, err)
	}

	// Step 4: prior day's observation, or the fixed default. The fallback is
	// policy, not an error.
	obs, err := s.observations.GetByUserDate(ctx, nil, userID, priorDate)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return s.fail(ctx, run, stepObservation, err)
		}
		s.log.Info("no observation for prior day, using default", "date", priorDate)
		obs = types.DefaultDailyObservation(userID, priorDate)
	}

	// Step 5: daily data ingestion.
	obsJSON, err := json.Marshal(obs)
	if err != nil {
		return s.fail(ctx, run, stepDailySend, err)
	}
	dailyReply, err := s.sendAndWait(ctx, sess, stepDailySend, types.MessageTypeDailyData, string(obsJSON))
	if err != nil {
		return s.fail(ctx, run, stepDailySend, err)
	}
	if err := requireAck(dailyReply); err != nil {
		return s.fail(ctx, run, stepDailySend, err)
	}

	// Steps 6-9: the four generation commands.
	welcomeReply, err := s.sendAndWait(ctx, sess, stepWelcome, types.MessageTypeWelcomeResponse, cmdWelcome)
	if err != nil {
		return s.fail(ctx, run, stepWelcome, err)
	}
	var welcome struct {
		WelcomeMessage string `json:"welcome_message"`
	}
	if err := welcomeReply.Decode(&welcome); err != nil {
		return s.fail(ctx, run, stepWelcome, err)
	}

	affirmationReply, err := s.sendAndWait(ctx, sess, stepAffirmation, types.MessageTypeAffirmationResponse, cmdAffirmation)
	if err != nil {
		return s.fail(ctx, run, stepAffirmation, err)
	}
	var affirmation struct {
		AffirmationMessage string `json:"affirmation_message"`
	}
	if err := affirmationReply.Decode(&affirmation); err != nil {
		return s.fail(ctx, run, stepAffirmation, err)
	}

	todosReply, err := s.sendAndWait(ctx, sess, stepTodos, types.MessageTypeTodosResponse, cmdTodos)
	if err != nil {
		return s.fail(ctx, run, stepTodos, err)
	}
	var todos struct {
		Tasks []types.Task `json:"tasks"`
	}
	if err := todosReply.Decode(&todos); err != nil {
		return s.fail(ctx, run, stepTodos, err)
	}

	notificationsReply, err := s.sendAndWait(ctx, sess, stepNotifications, types.MessageTypeNotificationsResponse, cmdNotifications)
	if err != nil {
		return s.fail(ctx, run, stepNotifications, err)
	}
	var notifications struct {
		Notifications []types.NotificationItem `json:"notifications"`
	}
	if err := notificationsReply.Decode(&notifications); err != nil {
		return s.fail(ctx, run, stepNotifications, err)
	}

	// Persist the run's output to the remote store.
	tasksJSON, _ := json.Marshal(todos.Tasks)
	notificationsJSON, _ := json.Marshal(notifications.Notifications)
	generated := &types.GeneratedContent{
		ID:            uuid.New(),
		UserID:        userID,
		Date:          date,
		Welcome:       welcome.WelcomeMessage,
		Affirmation:   affirmation.AffirmationMessage,
		Tasks:         datatypes.JSON(tasksJSON),
		Notifications: datatypes.JSON(notificationsJSON),
	}
	if _, err := s.content.Upsert(ctx, nil, generated); err != nil {
		return s.fail(ctx, run, stepNotifications, fmt.Errorf("persist generated content: %w", err))
	}

	// Step 10: scheduling is best-effort; its outcome never fails the run.
	schedulingOK := true
	if err := s.scheduler.Schedule(ctx, notifications.Notifications); err != nil {
		schedulingOK = false
		s.log.Warn("notification scheduling failed", "step", stepScheduling, "error", err)
		if s.metrics != nil {
			s.metrics.SchedulingFailures.Inc()
		}
	}

	finished := s.now()
	s.updateRun(ctx, run, map[string]interface{}{
		"status":        types.PipelineRunStatusSucceeded,
		"scheduling_ok": schedulingOK,
		"finished_at":   finished,
	})
	s.countRun(types.PipelineRunStatusSucceeded)
	s.log.Info("pipeline run succeeded",
		"user_id", userID.String(),
		"date", date,
		"duration", finished.Sub(started).String(),
	)
	return nil
}

// requireAck rejects ingestion replies that are not the bare sentinel. A
// payload where an ack belongs means the backend lost track of the protocol.
func requireAck(reply session.Reply) error {
	if reply.Kind == session.KindAck {
		return nil
	}
	return fmt.Errorf("%w: expected the ack sentinel, got a payload", session.ErrParse)
}

// sendAndWait dispatches one exchange and blocks on the bounded state poll.
func (s *pipelineService) sendAndWait(ctx context.Context, sess *session.Session, step, messageType, content string) (session.Reply, error) {
	if err := ctx.Err(); err != nil {
		return session.Reply{}, err
	}
	ctx, span := s.tracer.Start(ctx, "pipeline."+step)
	defer span.End()

	sess.Dispatch(ctx, messageType, content)
	if err := waitTerminal(ctx, sess, s.cfg.PollInterval, s.cfg.PollDeadline); err != nil {
		s.countExchange("error")
		return session.Reply{}, err
	}
	s.countExchange("ok")
	reply, err := sess.Last()
	if err != nil {
		return session.Reply{}, err
	}
	return reply, nil
}

// cacheSink mirrors every session turn into the local cache, piecemeal.
// Cache writes are best-effort; a failed insert is logged and dropped.
func (s *pipelineService) cacheSink(ctx context.Context, userID uuid.UUID, date string) func(session.Turn) {
	return func(turn session.Turn) {
		row := &types.ConversationTurn{
			ID:          uuid.New(),
			UserID:      userID,
			Date:        date,
			MessageType: turn.MessageType,
			Role:        turn.Role,
			Content:     turn.Content,
			CreatedAt:   turn.At,
		}
		if err := s.turnCache.Insert(ctx, nil, row); err != nil {
			s.log.Warn("failed to cache conversation turn", "message_type", turn.MessageType, "error", err)
		}
	}
}

func (s *pipelineService) fail(ctx context.Context, run *types.PipelineRun, step string, err error) error {
	finished := s.now()
	s.updateRun(ctx, run, map[string]interface{}{
		"status":      types.PipelineRunStatusFailed,
		"failed_step": step,
		"error":       err.Error(),
		"finished_at": finished,
	})
	s.countRun(types.PipelineRunStatusFailed)
	if s.metrics != nil {
		s.metrics.StepFailures.WithLabelValues(step).Inc()
	}
	s.log.Error("pipeline run failed", "step", step, "error", err)
	return fmt.Errorf("pipeline step %s: %w", step, err)
}

func (s *pipelineService) updateRun(ctx context.Context, run *types.PipelineRun, updates map[string]interface{}) {
	if err := s.runs.UpdateFields(ctx, nil, run.ID, updates); err != nil {
		s.log.Warn("failed to update pipeline run row", "error", err)
	}
}

func (s *pipelineService) countRun(result string) {
	if s.metrics != nil {
		s.metrics.RunsTotal.WithLabelValues(result).Inc()
	}
}

func (s *pipelineService) countExchange(result string) {
	if s.metrics != nil {
		s.metrics.ModelExchanges.WithLabelValues(result).Inc()
	}
}
