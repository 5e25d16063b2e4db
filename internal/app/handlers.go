package app

import (
	"github.com/wellora/wellora-backend/internal/handlers"
	"github.com/wellora/wellora-backend/internal/logger"
	"github.com/wellora/wellora-backend/internal/middleware"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	UserProfile *handlers.UserProfileHandler
	Observation *handlers.ObservationHandler
	Content     *handlers.ContentHandler
	Pipeline    *handlers.PipelineHandler
}

func wireHandlers(reposet Repos, serviceset Services) Handlers {
	return Handlers{
		Auth:        handlers.NewAuthHandler(serviceset.Auth),
		UserProfile: handlers.NewUserProfileHandler(reposet.UserProfile),
		Observation: handlers.NewObservationHandler(serviceset.Observation),
		Content:     handlers.NewContentHandler(serviceset.Content),
		Pipeline:    handlers.NewPipelineHandler(serviceset.Pipeline),
	}
}

func wireMiddleware(log *logger.Logger, serviceset Services) *middleware.AuthMiddleware {
	return middleware.NewAuthMiddleware(log, serviceset.Auth)
}
