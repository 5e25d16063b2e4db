package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/wellora/wellora-backend/internal/db"
	"github.com/wellora/wellora-backend/internal/logger"
	"github.com/wellora/wellora-backend/internal/observability"
	"github.com/wellora/wellora-backend/internal/scheduler"
	"github.com/wellora/wellora-backend/internal/server"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cache    *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Metrics  *observability.Metrics

	trigger      *scheduler.DailyTrigger
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}

	lite, err := db.NewSqliteService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init sqlite cache: %w", err)
	}
	if err := lite.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("sqlite automigrate: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "wellora-backend",
		Environment: cfg.Environment,
	})

	reposet := wireRepos(pg.DB(), lite.DB(), log)
	serviceset, err := wireServices(pg.DB(), log, cfg, reposet, metrics)
	if err != nil {
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(reposet, serviceset)
	authMiddleware := wireMiddleware(log, serviceset)

	router := server.NewRouter(server.RouterConfig{
		AuthHandler:        handlerset.Auth,
		AuthMiddleware:     authMiddleware,
		UserProfileHandler: handlerset.UserProfile,
		ObservationHandler: handlerset.Observation,
		ContentHandler:     handlerset.Content,
		PipelineHandler:    handlerset.Pipeline,
		MetricsRegistry:    registry,
		AllowOrigins:       cfg.AllowOrigins,
	})

	return &App{
		Log:          log,
		DB:           pg.DB(),
		Cache:        lite.DB(),
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Metrics:      metrics,
		otelShutdown: otelShutdown,
	}, nil
}

// Start wires the unattended entry points: the cron trigger and, when
// configured, an immediate catch-up run.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	runDaily := func() {
		if err := a.Services.Pipeline.RunDaily(ctx); err != nil {
			a.Log.Warn("scheduled pipeline run failed", "error", err)
		}
	}
	trigger, err := scheduler.NewDailyTrigger(a.Log, a.Cfg.TriggerHour, a.Cfg.TriggerMinute, runDaily)
	if err != nil {
		return fmt.Errorf("init daily trigger: %w", err)
	}
	a.trigger = trigger
	a.trigger.Start()

	if a.Cfg.RunOnStart {
		go runDaily()
	}
	return nil
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTPAddr)
	return a.Router.Run(a.Cfg.HTTPAddr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.trigger != nil {
		a.trigger.Stop()
		a.trigger = nil
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Services.RunLock != nil {
		if err := a.Services.RunLock.Close(); err != nil {
			a.Log.Warn("failed to close run lock", "error", err)
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
