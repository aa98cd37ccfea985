package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/eventforge/internal/clients/llm"
	"github.com/yungbote/eventforge/internal/domain/events"
	"github.com/yungbote/eventforge/internal/observability"
	"github.com/yungbote/eventforge/internal/pkg/httpx"
	"github.com/yungbote/eventforge/internal/pkg/logger"
)

type Report struct {
	Total       int
	Generated   int
	Skipped     int
	Unavailable bool
	// Failures counts skipped items by final error kind.
	Failures map[string]int
}

func (r *Report) skip(err error) {
	r.Skipped++
	if r.Failures == nil {
		r.Failures = map[string]int{}
	}
	r.Failures[failureKind(err)]++
}

type CreativeRequest struct {
	Stats events.PlayerStats
	Round int
	Rank  events.Rank
}

type Generator struct {
	gw      llm.Gateway
	opts    Options
	log     *logger.Logger
	metrics *observability.Metrics
}

func New(gw llm.Gateway, opts Options, log *logger.Logger, metrics *observability.Metrics) *Generator {
	return &Generator{
		gw:      gw,
		opts:    opts.normalized(),
		log:     log.With("component", "EventGenerator"),
		metrics: metrics,
	}
}

func (g *Generator) Available() bool { return g.gw != nil && g.gw.Available() }

// TransformNews converts news items into events. Batches run in order; inside a
// batch at most Options.Concurrency items are in flight. Items that exhaust their
// attempts are skipped and counted, never fatal to the run.
func (g *Generator) TransformNews(ctx context.Context, items []events.NewsItem) ([]events.GeneratedEvent, Report) {
	rep := Report{Total: len(items)}
	if len(items) == 0 {
		return nil, rep
	}
	if !g.Available() {
		rep.Unavailable = true
		g.log.Warn("Model gateway unavailable; skipping news transform", "items", len(items))
		return nil, rep
	}

	var out []events.GeneratedEvent
	for start := 0; start < len(items); start += g.opts.BatchSize {
		end := min(start+g.opts.BatchSize, len(items))
		if err := ctx.Err(); err != nil {
			for i := start; i < len(items); i++ {
				rep.skip(err)
			}
			g.log.Warn("News transform interrupted", "remaining", len(items)-start, "error", err)
			break
		}
		batch := items[start:end]
		results := make([]*events.GeneratedEvent, len(batch))
		errs := make([]error, len(batch))

		var eg errgroup.Group
		eg.SetLimit(g.opts.Concurrency)
		for i, item := range batch {
			eg.Go(func() error {
				results[i], errs[i] = g.transformOne(ctx, item)
				return nil
			})
		}
		_ = eg.Wait()

		for i := range batch {
			if errs[i] != nil {
				rep.skip(errs[i])
				g.log.Warn("Skipping news item", "title", batch[i].Title, "source", batch[i].SourceName, "error", errs[i])
				continue
			}
			out = append(out, *results[i])
		}
		g.log.Debug("News batch done", "start", start, "size", len(batch))
	}
	rep.Generated = len(out)
	g.metrics.AddGenerated(string(events.OriginNews), rep.Generated)
	for kind, n := range rep.Failures {
		g.metrics.AddSkipped(kind, n)
	}
	g.log.Info("News transform complete", "total", rep.Total, "generated", rep.Generated, "skipped", rep.Skipped)
	return out, rep
}

func (g *Generator) transformOne(ctx context.Context, item events.NewsItem) (*events.GeneratedEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, g.opts.ItemTimeout)
	defer cancel()

	ev, err := g.withRetry(ctx, newsMessages(item), g.opts.NewsTemperature, func(d Draft) (events.DynamicEvent, error) {
		ev, notes := Normalize(d)
		if _, explicit := ExplicitBand(d); !explicit {
			band := CategoryBand(item.SourceCategory)
			ev.MinRank, ev.MaxRank = band.Min, band.Max
		}
		ev.Origin = events.OriginNews
		ev.QualityScore = NewsQuality(item.SourceWeight)
		ev.SourceURL = item.URL
		ev.SourceTitle = item.Title
		date := item.Date()
		ev.SourceDate = &date
		if len(notes) > 0 {
			g.log.Debug("Normalized news event", "title", ev.Title, "defaults", notes)
		}
		return ev, nil
	})
	if err != nil {
		return nil, err
	}
	date := item.Date()
	return &events.GeneratedEvent{
		Event:      ev,
		Provenance: &events.Provenance{URL: item.URL, Title: item.Title, Date: &date},
	}, nil
}

// GenerateCreative asks the model for one original event fitted to the player.
// It fails fast when the gateway has no key.
func (g *Generator) GenerateCreative(ctx context.Context, req CreativeRequest) (*events.DynamicEvent, error) {
	if !g.Available() {
		return nil, &events.GenerationError{Stage: "gateway", Err: llm.ErrUnavailable}
	}
	ctx, cancel := context.WithTimeout(llm.NoCache(ctx), g.opts.ItemTimeout)
	defer cancel()

	ev, err := g.withRetry(ctx, creativeMessages(req), g.opts.CreativeTemperature, func(d Draft) (events.DynamicEvent, error) {
		ev, notes := Normalize(d)
		if req.Rank.Valid() {
			ev.MinRank, ev.MaxRank = req.Rank, req.Rank
		}
		ev.ID = uuid.New()
		ev.Origin = events.OriginCreative
		ev.QualityScore = events.DefaultQualityScore
		if len(notes) > 0 {
			g.log.Debug("Normalized creative event", "title", ev.Title, "defaults", notes)
		}
		return ev, nil
	})
	if err != nil {
		g.metrics.AddSkipped(failureKind(err), 1)
		return nil, &events.GenerationError{Stage: failureKind(err), Err: err}
	}
	g.metrics.AddGenerated(string(events.OriginCreative), 1)
	return &ev, nil
}

// withRetry runs prompt, parse, validate and build with a bounded retry budget.
// Model errors and validation errors each consume one attempt.
func (g *Generator) withRetry(
	ctx context.Context,
	msgs []llm.Message,
	temperature float64,
	build func(Draft) (events.DynamicEvent, error),
) (events.DynamicEvent, error) {
	var lastErr error
	for attempt := 1; attempt <= g.opts.MaxAttempts; attempt++ {
		callCtx := ctx
		if attempt > 1 {
			callCtx = llm.NoCache(ctx)
		}
		ev, err := g.attempt(callCtx, msgs, temperature, build)
		if err == nil {
			return ev, nil
		}
		lastErr = err
		if !retryable(err) || attempt == g.opts.MaxAttempts {
			break
		}
		wait := httpx.JitterSleep(httpx.Backoff(attempt, g.opts.Backoff, g.opts.MaxBackoff))
		g.log.Debug("Generation attempt failed, retrying", "attempt", attempt, "wait", wait, "error", err)
		if err := httpx.Sleep(ctx, wait); err != nil {
			break
		}
	}
	return events.DynamicEvent{}, lastErr
}

func (g *Generator) attempt(
	ctx context.Context,
	msgs []llm.Message,
	temperature float64,
	build func(Draft) (events.DynamicEvent, error),
) (events.DynamicEvent, error) {
	reply, err := g.gw.Invoke(ctx, msgs, temperature, g.opts.MaxTokens)
	if err != nil {
		return events.DynamicEvent{}, err
	}
	draft, err := ParseDraft(reply)
	if err != nil {
		return events.DynamicEvent{}, err
	}
	if err := Validate(draft); err != nil {
		return events.DynamicEvent{}, err
	}
	ev, err := build(draft)
	if err != nil {
		return events.DynamicEvent{}, err
	}
	if err := ev.CheckInvariants(); err != nil {
		return events.DynamicEvent{}, err
	}
	return ev, nil
}

func retryable(err error) bool {
	if errors.Is(err, llm.ErrUnavailable) {
		return false
	}
	var vErr *events.ValidationError
	if errors.As(err, &vErr) {
		return true
	}
	return httpx.IsRetryableError(err)
}

func failureKind(err error) string {
	var (
		vErr *events.ValidationError
		mErr *llm.ModelCallError
	)
	switch {
	case errors.Is(err, llm.ErrUnavailable):
		return "unavailable"
	case errors.As(err, &vErr):
		return "validation"
	case errors.As(err, &mErr):
		if mErr.StatusCode > 0 {
			return fmt.Sprintf("http_%d", mErr.StatusCode)
		}
		return "model_" + strings.ReplaceAll(mErr.Detail, " ", "_")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	return "error"
}
