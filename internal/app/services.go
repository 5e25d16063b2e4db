package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/wellora/wellora-backend/internal/clients/openai"
	redisclient "github.com/wellora/wellora-backend/internal/clients/redis"
	"github.com/wellora/wellora-backend/internal/logger"
	"github.com/wellora/wellora-backend/internal/observability"
	"github.com/wellora/wellora-backend/internal/scheduler"
	"github.com/wellora/wellora-backend/internal/score"
	"github.com/wellora/wellora-backend/internal/services"
)

type Services struct {
	Auth        services.AuthService
	Identity    services.IdentityService
	Observation services.ObservationService
	Content     services.ContentService
	Pipeline    services.PipelineService
	Scheduler   *scheduler.NotificationScheduler
	RunLock     redisclient.RunLock
}

func wireServices(
	pg *gorm.DB,
	log *logger.Logger,
	cfg Config,
	reposet Repos,
	metrics *observability.Metrics,
) (Services, error) {
	tables := score.DefaultTables()
	if cfg.ScoreTablesPath != "" {
		loaded, err := score.LoadTables(cfg.ScoreTablesPath)
		if err != nil {
			return Services{}, fmt.Errorf("load score tables: %w", err)
		}
		tables = loaded
	}
	engine := score.NewEngine(tables)

	backend, err := openai.NewClient(log)
	if err != nil {
		return Services{}, fmt.Errorf("init openai client: %w", err)
	}

	var lock redisclient.RunLock
	if cfg.RedisEnabled {
		lock, err = redisclient.NewRunLock(log)
		if err != nil {
			// The lock is advisory; a missing redis degrades to
			// in-process dedup only.
			log.Warn("redis run lock unavailable, continuing without it", "error", err)
			lock = nil
		}
	}

	timer := scheduler.NewAfterFuncTimer(log, func(p scheduler.Payload) {
		log.Info("notification due", "title", p.Title, "body", p.Body)
	})
	notificationScheduler := scheduler.NewNotificationScheduler(log, timer)

	auth := services.NewAuthService(pg, log, reposet.User, reposet.UserToken,
		cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	identity := services.NewIdentityService(log, reposet.UserToken)
	observation := services.NewObservationService(log, reposet.Observation,
		reposet.Questionnaire, reposet.UserProfile, engine)
	content := services.NewContentService(log, reposet.Content)
	pipeline := services.NewPipelineService(
		log,
		backend,
		identity,
		reposet.UserProfile,
		reposet.Observation,
		reposet.Content,
		reposet.Runs,
		reposet.TurnCache,
		notificationScheduler,
		lock,
		metrics,
		services.DefaultPipelineConfig(),
	)

	return Services{
		Auth:        auth,
		Identity:    identity,
		Observation: observation,
		Content:     content,
		Pipeline:    pipeline,
		Scheduler:   notificationScheduler,
		RunLock:     lock,
	}, nil
}
