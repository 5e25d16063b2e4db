package app

import (
	"gorm.io/gorm"

	"github.com/wellora/wellora-backend/internal/logger"
	"github.com/wellora/wellora-backend/internal/repos"
)

type Repos struct {
	User          repos.UserRepo
	UserToken     repos.UserTokenRepo
	UserProfile   repos.UserProfileRepo
	Observation   repos.ObservationRepo
	Questionnaire repos.QuestionnaireRepo
	Content       repos.GeneratedContentRepo
	Runs          repos.PipelineRunRepo

	// Backed by the local sqlite cache, not postgres.
	TurnCache repos.ConversationTurnRepo
}

func wireRepos(pg *gorm.DB, cache *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		User:          repos.NewUserRepo(pg, log),
		UserToken:     repos.NewUserTokenRepo(pg, log),
		UserProfile:   repos.NewUserProfileRepo(pg, log),
		Observation:   repos.NewObservationRepo(pg, log),
		Questionnaire: repos.NewQuestionnaireRepo(pg, log),
		Content:       repos.NewGeneratedContentRepo(pg, log),
		Runs:          repos.NewPipelineRunRepo(pg, log),
		TurnCache:     repos.NewConversationTurnRepo(cache, log),
	}
}
