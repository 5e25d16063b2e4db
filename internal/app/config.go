package app

import (
	"time"

	"github.com/wellora/wellora-backend/internal/logger"
	"github.com/wellora/wellora-backend/internal/scheduler"
	"github.com/wellora/wellora-backend/internal/utils"
)

type Config struct {
	Environment     string
	HTTPAddr        string
	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Daily pipeline trigger, local time.
	TriggerHour   int
	TriggerMinute int
	RunOnStart    bool

	ScoreTablesPath string
	RedisEnabled    bool
	AllowOrigins    []string
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTLSeconds := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTLSeconds := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)

	triggerAt := utils.GetEnv("PIPELINE_TRIGGER_TIME", "06:30", log)
	hour, minute, err := scheduler.ParseTimeOfDay(triggerAt)
	if err != nil {
		log.Warn("invalid PIPELINE_TRIGGER_TIME, using 06:30", "value", triggerAt, "error", err)
		hour, minute = 6, 30
	}

	return Config{
		Environment:     utils.GetEnv("APP_ENV", "development", log),
		HTTPAddr:        utils.GetEnv("HTTP_ADDR", ":8080", log),
		JWTSecretKey:    jwtSecretKey,
		AccessTokenTTL:  time.Duration(accessTokenTTLSeconds) * time.Second,
		RefreshTokenTTL: time.Duration(refreshTokenTTLSeconds) * time.Second,
		TriggerHour:     hour,
		TriggerMinute:   minute,
		RunOnStart:      utils.GetEnvAsBool("PIPELINE_RUN_ON_START", false, log),
		ScoreTablesPath: utils.GetEnv("SCORE_TABLES_PATH", "", log),
		RedisEnabled:    utils.GetEnvAsBool("REDIS_ENABLED", false, log),
		AllowOrigins:    []string{utils.GetEnv("CORS_ALLOW_ORIGIN", "http://localhost:3000", log)},
	}
}
