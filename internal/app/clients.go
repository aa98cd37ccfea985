package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/eventforge/internal/clients/llm"
	"github.com/yungbote/eventforge/internal/feed"
	"github.com/yungbote/eventforge/internal/observability"
	"github.com/yungbote/eventforge/internal/pkg/logger"
)

type Clients struct {
	Redis   goredis.UniversalClient
	LLM     llm.Gateway
	Fetcher *feed.Fetcher
}

func wireClients(log *logger.Logger, cfg Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis
	var rdb goredis.UniversalClient
	if cfg.RedisAddr != "" {
		c := goredis.NewClient(&goredis.Options{
			Addr:        cfg.RedisAddr,
			DialTimeout: 5 * time.Second,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Ping(ctx).Err(); err != nil {
			_ = c.Close()
			return Clients{}, fmt.Errorf("redis ping: %w", err)
		}
		rdb = c
	}

	// Model gateway
	var cache llm.ResponseCache = llm.NewMemoryCache()
	if rdb != nil {
		cache = llm.NewRedisCache(rdb)
	}
	gw := llm.New(llm.ConfigFromEnv(log), log, llm.WithCache(cache), llm.WithMetrics(metrics))
	if !gw.Available() {
		log.Warn("No LLM API key configured, generation disabled and presets will be served")
	}

	// Feeds
	fetcher := feed.NewFetcher(log, feed.WithTimeout(cfg.FeedTimeout), feed.WithMetrics(metrics))

	return Clients{
		Redis:   rdb,
		LLM:     gw,
		Fetcher: fetcher,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
