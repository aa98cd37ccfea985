package app

import (
	"strings"
	"time"

	"github.com/yungbote/eventforge/internal/pkg/logger"
	"github.com/yungbote/eventforge/internal/scheduler"
	"github.com/yungbote/eventforge/internal/utils"
)

type Config struct {
	Port        string
	CORSOrigins []string
	RedisAddr   string

	FeedTimeout      time.Duration
	SaveDedupeTitles bool

	SchedulerEnabled bool
	GenerationAt     scheduler.TimeOfDay
	CleanupAt        scheduler.TimeOfDay
	ReplenishEvery   time.Duration
	JobTimeout       time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:             utils.GetEnv("PORT", "8080", log),
		RedisAddr:        strings.TrimSpace(utils.GetEnv("REDIS_ADDR", "", log)),
		FeedTimeout:      utils.GetEnvAsDuration("FEED_TIMEOUT", 15*time.Second, log),
		SaveDedupeTitles: utils.GetEnvAsBool("SAVE_DEDUPE_TITLES", false, log),
		SchedulerEnabled: utils.GetEnvAsBool("SCHEDULER_ENABLED", true, log),
		ReplenishEvery:   utils.GetEnvAsDuration("SCHEDULE_REPLENISH_EVERY", 4*time.Hour, log),
		JobTimeout:       utils.GetEnvAsDuration("SCHEDULE_JOB_TIMEOUT", 30*time.Minute, log),
		GenerationAt:     timeOfDay("SCHEDULE_GENERATION_AT", "03:00", log),
		CleanupAt:        timeOfDay("SCHEDULE_CLEANUP_AT", "04:30", log),
	}
	if raw := utils.GetEnv("CORS_ALLOW_ORIGINS", "", log); raw != "" {
		cfg.CORSOrigins = strings.Split(raw, ",")
	}
	return cfg
}

func timeOfDay(key, def string, log *logger.Logger) scheduler.TimeOfDay {
	tod, err := scheduler.ParseTimeOfDay(utils.GetEnv(key, def, log))
	if err != nil {
		log.Warn("Invalid time of day, using default", "key", key, "default", def, "error", err)
		tod, _ = scheduler.ParseTimeOfDay(def)
	}
	return tod
}
