package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/wellora/wellora-backend/internal/logger"
	"github.com/wellora/wellora-backend/internal/utils"
)

// RunLock serializes daily pipeline runs per (user, date) across instances.
// The lock is advisory: a holder that dies leaves the key to expire with its
// TTL rather than wedging the next day's run.
type RunLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
	Close() error
}

type runLock struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

func NewRunLock(log *logger.Logger) (RunLock, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(utils.GetEnv("REDIS_ADDR", "", log))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &runLock{
		log:    log.With("service", "RedisRunLock"),
		rdb:    rdb,
		prefix: "wellora:pipeline:",
	}, nil
}

func (l *runLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, l.prefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (l *runLock) Release(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, l.prefix+key).Err()
}

func (l *runLock) Close() error {
	return l.rdb.Close()
}
