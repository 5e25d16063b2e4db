package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/wellora/wellora-backend/internal/logger"
	"github.com/wellora/wellora-backend/internal/types"
	"github.com/wellora/wellora-backend/internal/utils"
)

// SqliteService is the local conversation-turn cache. It mirrors the raw
// turns the pipeline exchanges with the model so the rest of the app can
// look up the latest answer of a kind without touching the remote store.
type SqliteService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSqliteService(log *logger.Logger) (*SqliteService, error) {
	serviceLog := log.With("service", "SqliteService")

	path := utils.GetEnv("SQLITE_PATH", "wellora-cache.db", log)
	serviceLog.Info("Opening sqlite cache...", "path", path)
	gormDB, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		serviceLog.Error("Failed to open sqlite cache", "error", err)
		return nil, fmt.Errorf("failed to open sqlite cache: %w", err)
	}
	return &SqliteService{db: gormDB, log: serviceLog}, nil
}

func (s *SqliteService) AutoMigrateAll() error {
	s.log.Info("Auto migrating sqlite cache tables...")
	if err := s.db.AutoMigrate(&types.ConversationTurn{}); err != nil {
		s.log.Error("Auto migration failed for sqlite cache", "error", err)
		return err
	}
	return nil
}

func (s *SqliteService) DB() *gorm.DB {
	return s.db
}
