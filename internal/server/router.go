package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/wellora/wellora-backend/internal/handlers"
	"github.com/wellora/wellora-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler        *handlers.AuthHandler
	AuthMiddleware     *middleware.AuthMiddleware
	UserProfileHandler *handlers.UserProfileHandler
	ObservationHandler *handlers.ObservationHandler
	ContentHandler     *handlers.ContentHandler
	PipelineHandler    *handlers.PipelineHandler
	MetricsRegistry    *prometheus.Registry
	AllowOrigins       []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// HTTP spans join the pipeline.* spans when a run is triggered manually.
	router.Use(otelgin.Middleware("wellora-backend"))

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	if cfg.MetricsRegistry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.MetricsRegistry, promhttp.HandlerOpts{})))
	}
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)
	router.POST("/refresh", cfg.AuthHandler.Refresh)

	// Protected
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Profile
	protected.GET("/profile", cfg.UserProfileHandler.Get)
	protected.PUT("/profile", cfg.UserProfileHandler.Upsert)
	// Observations
	protected.POST("/observations", cfg.ObservationHandler.Upsert)
	protected.GET("/observations/:date", cfg.ObservationHandler.Get)
	protected.POST("/questionnaire", cfg.ObservationHandler.SubmitQuestionnaire)
	// Generated content
	protected.GET("/content/:date", cfg.ContentHandler.Get)
	// Manual pipeline trigger
	protected.POST("/pipeline/run", cfg.PipelineHandler.Trigger)

	return router
}
