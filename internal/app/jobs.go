package app

import (
	"context"

	"github.com/yungbote/eventforge/internal/observability"
	"github.com/yungbote/eventforge/internal/pkg/logger"
	"github.com/yungbote/eventforge/internal/scheduler"
)

const (
	JobGeneration = "generation"
	JobCleanup    = "cleanup"
	JobReplenish  = "replenish"
)

func wireScheduler(log *logger.Logger, cfg Config, clients Clients, svc Services, metrics *observability.Metrics) (*scheduler.Scheduler, error) {
	log.Info("Wiring scheduler...")
	opts := []scheduler.Option{scheduler.WithMetrics(metrics)}
	if clients.Redis != nil {
		opts = append(opts, scheduler.WithLocker(scheduler.NewRedisLocker(clients.Redis, "")))
	}
	s := scheduler.New(log, opts...)

	genAt, cleanAt := cfg.GenerationAt, cfg.CleanupAt
	jobs := []scheduler.Job{
		{
			Name:    JobGeneration,
			At:      &genAt,
			Timeout: cfg.JobTimeout,
			Run: func(ctx context.Context) error {
				_, err := svc.Pipeline.RunGeneration(ctx)
				return err
			},
		},
		{
			Name:    JobCleanup,
			At:      &cleanAt,
			Timeout: cfg.JobTimeout,
			Run: func(ctx context.Context) error {
				_, err := svc.Pipeline.RunCleanup(ctx)
				return err
			},
		},
		{
			Name:    JobReplenish,
			Every:   cfg.ReplenishEvery,
			Timeout: cfg.JobTimeout,
			Run: func(ctx context.Context) error {
				_, err := svc.Pipeline.RunReplenish(ctx)
				return err
			},
		},
	}
	for _, j := range jobs {
		if err := s.Add(j); err != nil {
			return nil, err
		}
	}
	return s, nil
}
