package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yungbote/eventforge/internal/data/repos"
	"github.com/yungbote/eventforge/internal/domain/events"
	"github.com/yungbote/eventforge/internal/feed"
	"github.com/yungbote/eventforge/internal/generator"
	"github.com/yungbote/eventforge/internal/observability"
	"github.com/yungbote/eventforge/internal/pkg/dbctx"
	"github.com/yungbote/eventforge/internal/pkg/logger"
	"github.com/yungbote/eventforge/internal/sources"
	"github.com/yungbote/eventforge/internal/utils"
)

// PoolConfig carries the selection and maintenance knobs shared by both services.
type PoolConfig struct {
	Mix     events.PoolMix
	Decay   events.DecaySchedule
	Cleanup events.CleanupPolicy

	ReplenishMinPerRank int
	ReplenishMaxPerRun  int
}

func (c PoolConfig) WithEnv(log *logger.Logger) PoolConfig {
	c.ReplenishMinPerRank = utils.GetEnvAsInt("REPLENISH_MIN_PER_RANK", 5, log)
	c.ReplenishMaxPerRun = utils.GetEnvAsInt("REPLENISH_MAX_PER_RUN", 6, log)
	return c
}

type NewsFetcher interface {
	FetchAll(ctx context.Context, reg *sources.Registry) feed.Result
}

type NewsTransformer interface {
	CreativeGenerator
	TransformNews(ctx context.Context, items []events.NewsItem) ([]events.GeneratedEvent, generator.Report)
}

type GenerationSummary struct {
	Fetched       int
	Rejected      int
	SourceErrors  int
	Generated     int
	Skipped       int
	Saved         int
	ModelDisabled bool
}

type ReplenishSummary struct {
	Requested int
	Saved     int
	Failed    int
	// Short lists ranks below the minimum before the run.
	Short []events.Rank
}

type PipelineService interface {
	RunGeneration(ctx context.Context) (GenerationSummary, error)
	RunCleanup(ctx context.Context) (int64, error)
	RunReplenish(ctx context.Context) (ReplenishSummary, error)
	Seed(ctx context.Context) (int, error)
}

type pipelineService struct {
	log       *logger.Logger
	registry  *sources.Registry
	fetcher   NewsFetcher
	gen       NewsTransformer
	repo      repos.EventRepo
	fallbacks *Fallbacks
	cfg       PoolConfig
	metrics   *observability.Metrics
}

func NewPipelineService(
	baseLog *logger.Logger,
	registry *sources.Registry,
	fetcher NewsFetcher,
	gen NewsTransformer,
	repo repos.EventRepo,
	fallbacks *Fallbacks,
	cfg PoolConfig,
	metrics *observability.Metrics,
) PipelineService {
	return &pipelineService{
		log:       baseLog.With("service", "PipelineService"),
		registry:  registry,
		fetcher:   fetcher,
		gen:       gen,
		repo:      repo,
		fallbacks: fallbacks,
		cfg:       cfg,
		metrics:   metrics,
	}
}

// RunGeneration is one fetch, transform and save cycle. Only a failed save is an error.
func (s *pipelineService) RunGeneration(ctx context.Context) (GenerationSummary, error) {
	var sum GenerationSummary
	res := s.fetcher.FetchAll(ctx, s.registry)
	sum.Fetched = len(res.Items)
	sum.Rejected = res.Rejected
	sum.SourceErrors = len(res.Errors)
	if len(res.Items) == 0 {
		s.log.Info("No news items this cycle", "source_errors", sum.SourceErrors, "rejected", sum.Rejected)
		return sum, nil
	}

	generated, rep := s.gen.TransformNews(ctx, res.Items)
	sum.Generated = rep.Generated
	sum.Skipped = rep.Skipped
	sum.ModelDisabled = rep.Unavailable
	if len(generated) == 0 {
		return sum, nil
	}

	saved, err := s.repo.SaveEvents(dbctx.New(ctx), generated)
	if err != nil {
		return sum, fmt.Errorf("saving generated events: %w", err)
	}
	sum.Saved = len(saved)
	s.log.Info("Generation run complete",
		"fetched", sum.Fetched,
		"generated", sum.Generated,
		"skipped", sum.Skipped,
		"saved", sum.Saved,
	)
	s.refreshPoolGauge(ctx)
	return sum, nil
}

func (s *pipelineService) RunCleanup(ctx context.Context) (int64, error) {
	n, err := s.repo.CleanupStale(dbctx.New(ctx), s.cfg.Decay, s.cfg.Cleanup)
	if err != nil {
		return 0, err
	}
	s.metrics.AddCleanupDeleted(n)
	s.log.Info("Cleanup run complete", "deleted", n)
	s.refreshPoolGauge(ctx)
	return n, nil
}

// RunReplenish tops up ranks whose news and creative pool is below the minimum
// with creative events, spending at most ReplenishMaxPerRun generations.
func (s *pipelineService) RunReplenish(ctx context.Context) (ReplenishSummary, error) {
	var sum ReplenishSummary
	budget := s.cfg.ReplenishMaxPerRun
	for _, rank := range events.AllRanks() {
		counts, err := s.repo.CountEligibleByOrigin(dbctx.New(ctx), rank)
		if err != nil {
			return sum, err
		}
		have := counts[events.OriginNews] + counts[events.OriginCreative]
		if have >= int64(s.cfg.ReplenishMinPerRank) {
			continue
		}
		sum.Short = append(sum.Short, rank)
		if !s.gen.Available() {
			continue
		}
		need := int(int64(s.cfg.ReplenishMinPerRank) - have)
		for i := 0; i < need && budget > 0; i++ {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			budget--
			sum.Requested++
			ev, err := s.gen.GenerateCreative(ctx, generator.CreativeRequest{
				Stats: events.TypicalStats(rank),
				Round: i,
				Rank:  rank,
			})
			if err != nil {
				sum.Failed++
				s.log.Warn("Replenish generation failed", "rank", rank.String(), "error", err)
				if errors.Is(err, context.Canceled) {
					return sum, err
				}
				continue
			}
			saved, err := s.repo.SaveEvents(dbctx.New(ctx), []events.GeneratedEvent{{Event: *ev}})
			if err != nil {
				return sum, fmt.Errorf("saving replenished event: %w", err)
			}
			sum.Saved += len(saved)
		}
	}
	if len(sum.Short) > 0 && !s.gen.Available() {
		s.log.Warn("Pool below minimum but model gateway unavailable", "ranks", len(sum.Short))
	}
	s.log.Info("Replenish run complete", "short_ranks", len(sum.Short), "requested", sum.Requested, "saved", sum.Saved, "failed", sum.Failed)
	if sum.Saved > 0 {
		s.refreshPoolGauge(ctx)
	}
	return sum, nil
}

func (s *pipelineService) Seed(ctx context.Context) (int, error) {
	n, err := s.repo.SeedFixed(dbctx.New(ctx), s.fallbacks.FixedPresets())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("Seeded preset events", "count", n)
	}
	return n, nil
}

func (s *pipelineService) refreshPoolGauge(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	counts, err := s.repo.CountByOrigin(dbctx.New(ctx))
	if err != nil {
		s.log.Warn("Pool count failed", "error", err)
		return
	}
	for origin, n := range counts {
		s.metrics.SetPoolSize(string(origin), n)
	}
}
