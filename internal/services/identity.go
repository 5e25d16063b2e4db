package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellora/wellora-backend/internal/logger"
	"github.com/wellora/wellora-backend/internal/repos"
)

var ErrNoSession = errors.New("no active user session")

// IdentityService reports which user the unattended pipeline should run
// for. Backed by the token table: the most recent unexpired session wins.
type IdentityService interface {
	CurrentUserID(ctx context.Context) (uuid.UUID, error)
}

type identityService struct {
	log    *logger.Logger
	tokens repos.UserTokenRepo
	now    func() time.Time
}

func NewIdentityService(log *logger.Logger, tokens repos.UserTokenRepo) IdentityService {
	return &identityService{
		log:    log.With("service", "IdentityService"),
		tokens: tokens,
		now:    time.Now,
	}
}

func (s *identityService) CurrentUserID(ctx context.Context) (uuid.UUID, error) {
	token, err := s.tokens.GetLatestActive(ctx, nil, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, ErrNoSession
		}
		return uuid.Nil, err
	}
	return token.UserID, nil
}
