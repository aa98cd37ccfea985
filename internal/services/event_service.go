package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/yungbote/eventforge/internal/data/repos"
	"github.com/yungbote/eventforge/internal/domain/events"
	"github.com/yungbote/eventforge/internal/generator"
	"github.com/yungbote/eventforge/internal/observability"
	"github.com/yungbote/eventforge/internal/pkg/dbctx"
	"github.com/yungbote/eventforge/internal/pkg/logger"
)

// Selection is one event served to gameplay.
type Selection struct {
	Event *events.DynamicEvent
	// Fallback is true when the event came from static presets rather than the store.
	Fallback bool
}

// EventService is the gameplay-facing surface: selection, usage and creative events.
type EventService interface {
	Next(ctx context.Context, rank events.Rank) (*Selection, error)
	RecordUsage(ctx context.Context, eventID uuid.UUID, playerName string, rank events.Rank, choiceIndex int) error
	Creative(ctx context.Context, req generator.CreativeRequest) (*Selection, error)
	Description(rank events.Rank) string
}

type CreativeGenerator interface {
	Available() bool
	GenerateCreative(ctx context.Context, req generator.CreativeRequest) (*events.DynamicEvent, error)
}

type eventService struct {
	log       *logger.Logger
	repo      repos.EventRepo
	gen       CreativeGenerator
	fallbacks *Fallbacks
	cfg       PoolConfig
	metrics   *observability.Metrics
}

func NewEventService(
	baseLog *logger.Logger,
	repo repos.EventRepo,
	gen CreativeGenerator,
	fallbacks *Fallbacks,
	cfg PoolConfig,
	metrics *observability.Metrics,
) EventService {
	return &eventService{
		log:       baseLog.With("service", "EventService"),
		repo:      repo,
		gen:       gen,
		fallbacks: fallbacks,
		cfg:       cfg,
		metrics:   metrics,
	}
}

func (s *eventService) Next(ctx context.Context, rank events.Rank) (*Selection, error) {
	if !rank.Valid() {
		return nil, &events.ValidationError{Reason: "invalid rank"}
	}
	ev, err := s.repo.SelectEligible(dbctx.New(ctx), rank, s.cfg.Mix, s.cfg.Decay)
	if err == nil {
		s.metrics.IncSelection(string(ev.Origin))
		return &Selection{Event: ev}, nil
	}

	var pErr *events.PersistenceError
	switch {
	case errors.Is(err, events.ErrNoEligibleEvents):
		s.log.Warn("No eligible events in store, serving preset", "rank", rank.String())
	case errors.As(err, &pErr):
		s.log.Error("Event selection failed, serving preset", "rank", rank.String(), "error", err)
	default:
		return nil, err
	}
	if fb, ok := s.fallbacks.Fixed(rank); ok {
		s.metrics.IncFallback("fixed")
		return &Selection{Event: fb, Fallback: true}, nil
	}
	return nil, err
}

func (s *eventService) RecordUsage(ctx context.Context, eventID uuid.UUID, playerName string, rank events.Rank, choiceIndex int) error {
	if s.fallbacks.IsFallback(eventID) {
		s.log.Debug("Usage of preset fallback not recorded", "event_id", eventID)
		return nil
	}
	if err := s.repo.RecordUsage(dbctx.New(ctx), eventID, playerName, rank, choiceIndex); err != nil {
		return err
	}
	s.metrics.IncUsageRecorded()
	return nil
}

// Creative asks the generator for a fresh event and stores it in the pool. When the
// model cannot deliver, a preset creative event is served instead.
func (s *eventService) Creative(ctx context.Context, req generator.CreativeRequest) (*Selection, error) {
	ev, err := s.gen.GenerateCreative(ctx, req)
	if err != nil {
		s.log.Warn("Creative generation failed, serving preset", "rank", req.Rank.String(), "error", err)
		if fb, ok := s.fallbacks.Creative(req.Rank); ok {
			s.metrics.IncFallback("creative")
			return &Selection{Event: fb, Fallback: true}, nil
		}
		return nil, err
	}
	saved, err := s.repo.SaveEvents(dbctx.New(ctx), []events.GeneratedEvent{{Event: *ev}})
	if err != nil {
		s.log.Error("Failed to store creative event", "error", err)
		return &Selection{Event: ev}, nil
	}
	if len(saved) == 1 {
		ev = saved[0]
	}
	return &Selection{Event: ev}, nil
}

func (s *eventService) Description(rank events.Rank) string {
	return s.fallbacks.Description(rank)
}
