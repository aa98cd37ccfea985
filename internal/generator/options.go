package generator

import (
	"time"

	"github.com/yungbote/eventforge/internal/pkg/logger"
	"github.com/yungbote/eventforge/internal/utils"
)

type Options struct {
	Concurrency int
	BatchSize   int
	MaxAttempts int
	ItemTimeout time.Duration
	Backoff     time.Duration
	MaxBackoff  time.Duration

	NewsTemperature     float64
	CreativeTemperature float64
	MaxTokens           int
}

func DefaultOptions() Options {
	return Options{
		Concurrency:         3,
		BatchSize:           10,
		MaxAttempts:         2,
		ItemTimeout:         90 * time.Second,
		Backoff:             time.Second,
		MaxBackoff:          8 * time.Second,
		NewsTemperature:     0.7,
		CreativeTemperature: 0.9,
		MaxTokens:           900,
	}
}

// OptionsFromEnv reads GEN_* variables over DefaultOptions.
func OptionsFromEnv(log *logger.Logger) Options {
	d := DefaultOptions()
	return Options{
		Concurrency:         utils.GetEnvAsInt("GEN_CONCURRENCY", d.Concurrency, log),
		BatchSize:           utils.GetEnvAsInt("GEN_BATCH_SIZE", d.BatchSize, log),
		MaxAttempts:         utils.GetEnvAsInt("GEN_MAX_ATTEMPTS", d.MaxAttempts, log),
		ItemTimeout:         utils.GetEnvAsDuration("GEN_ITEM_TIMEOUT", d.ItemTimeout, log),
		Backoff:             utils.GetEnvAsDuration("GEN_BACKOFF", d.Backoff, log),
		MaxBackoff:          d.MaxBackoff,
		NewsTemperature:     utils.GetEnvAsFloat("GEN_NEWS_TEMPERATURE", d.NewsTemperature, log),
		CreativeTemperature: utils.GetEnvAsFloat("GEN_CREATIVE_TEMPERATURE", d.CreativeTemperature, log),
		MaxTokens:           utils.GetEnvAsInt("GEN_MAX_TOKENS", d.MaxTokens, log),
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.Concurrency <= 0 {
		o.Concurrency = d.Concurrency
	}
	if o.BatchSize <= 0 {
		o.BatchSize = d.BatchSize
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 1
	}
	if o.ItemTimeout <= 0 {
		o.ItemTimeout = d.ItemTimeout
	}
	if o.Backoff < 0 {
		o.Backoff = 0
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = d.MaxBackoff
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = d.MaxTokens
	}
	return o
}
