package events

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/eventforge/internal/domain/events"
	"github.com/yungbote/eventforge/internal/pkg/dbctx"
	"github.com/yungbote/eventforge/internal/pkg/logger"
)

type EventRepo interface {
	SaveEvents(dbc dbctx.Context, batch []types.GeneratedEvent) ([]*types.DynamicEvent, error)
	SeedFixed(dbc dbctx.Context, presets []types.DynamicEvent) (int, error)
	SelectEligible(dbc dbctx.Context, rank types.Rank, mix types.PoolMix, schedule types.DecaySchedule) (*types.DynamicEvent, error)
	RecordUsage(dbc dbctx.Context, eventID uuid.UUID, playerName string, rank types.Rank, choiceIndex int) error
	CleanupStale(dbc dbctx.Context, schedule types.DecaySchedule, policy types.CleanupPolicy) (int64, error)
	CountByOrigin(dbc dbctx.Context) (map[types.Origin]int64, error)
	CountEligibleByOrigin(dbc dbctx.Context, rank types.Rank) (map[types.Origin]int64, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.DynamicEvent, error)
	AdjustQuality(dbc dbctx.Context, id uuid.UUID, delta float64) (float64, error)
}

type Option func(*eventRepo)

// WithTitleDedupe skips news events whose source title is already stored.
func WithTitleDedupe(on bool) Option { return func(r *eventRepo) { r.dedupeTitles = on } }

// WithClock overrides time.Now for tests.
func WithClock(now func() time.Time) Option { return func(r *eventRepo) { r.now = now } }

// WithRand fixes the selection source for reproducible draws.
func WithRand(rng *rand.Rand) Option { return func(r *eventRepo) { r.rng = rng } }

type eventRepo struct {
	db  *gorm.DB
	log *logger.Logger

	dedupeTitles bool
	now          func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewEventRepo(db *gorm.DB, baseLog *logger.Logger, opts ...Option) EventRepo {
	r := &eventRepo{
		db:  db,
		log: baseLog.With("repo", "EventRepo"),
		now: func() time.Time { return time.Now().UTC() },
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *eventRepo) SaveEvents(dbc dbctx.Context, batch []types.GeneratedEvent) ([]*types.DynamicEvent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(batch) == 0 {
		return []*types.DynamicEvent{}, nil
	}

	now := r.now()
	rows := make([]*types.DynamicEvent, 0, len(batch))
	for i := range batch {
		ev := batch[i].Event
		if p := batch[i].Provenance; p != nil {
			ev.SourceURL = p.URL
			ev.SourceTitle = p.Title
			ev.SourceDate = p.Date
		}
		if ev.ID == uuid.Nil {
			ev.ID = uuid.New()
		}
		if ev.BaseWeight <= 0 {
			r.log.Debug("Base weight defaulted", "title", ev.Title, "base_weight", ev.BaseWeight, "default", types.DefaultBaseWeight)
			ev.BaseWeight = types.DefaultBaseWeight
		}
		if ev.CreatedAt.IsZero() {
			ev.CreatedAt = now
		}
		ev.UsageCount = 0
		ev.LastUsedAt = nil
		if err := ev.CheckInvariants(); err != nil {
			return nil, fmt.Errorf("event %d (%q): %w", i, ev.Title, err)
		}
		rows = append(rows, &ev)
	}

	var saved []*types.DynamicEvent
	err := transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		saved = make([]*types.DynamicEvent, 0, len(rows))
		for _, ev := range rows {
			if r.dedupeTitles && ev.Origin == types.OriginNews && ev.SourceTitle != "" {
				var n int64
				if err := txx.Model(&types.DynamicEvent{}).
					Where("origin = ? AND source_title = ?", types.OriginNews, ev.SourceTitle).
					Count(&n).Error; err != nil {
					return err
				}
				if n > 0 {
					r.log.Debug("Skipping duplicate news title", "source_title", ev.SourceTitle)
					continue
				}
			}
			saved = append(saved, ev)
		}
		if len(saved) == 0 {
			return nil
		}
		return txx.Create(&saved).Error
	})
	if err != nil {
		return nil, &types.PersistenceError{Op: "save_events", Err: err}
	}
	return saved, nil
}

func (r *eventRepo) SeedFixed(dbc dbctx.Context, presets []types.DynamicEvent) (int, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	inserted := 0
	err := transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		for i := range presets {
			ev := presets[i]
			var n int64
			if err := txx.Model(&types.DynamicEvent{}).
				Where("origin = ? AND title = ?", types.OriginFixed, ev.Title).
				Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				continue
			}
			ev.ID = uuid.New()
			ev.Origin = types.OriginFixed
			ev.CreatedAt = r.now()
			ev.UsageCount = 0
			ev.LastUsedAt = nil
			if ev.BaseWeight <= 0 {
				ev.BaseWeight = types.DefaultBaseWeight
			}
			if err := ev.CheckInvariants(); err != nil {
				return fmt.Errorf("preset %q: %w", ev.Title, err)
			}
			if err := txx.Create(&ev).Error; err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, &types.PersistenceError{Op: "seed_fixed", Err: err}
	}
	return inserted, nil
}

func (r *eventRepo) SelectEligible(dbc dbctx.Context, rank types.Rank, mix types.PoolMix, schedule types.DecaySchedule) (*types.DynamicEvent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if !rank.Valid() {
		return nil, &types.NoEligibleEventsError{Rank: rank}
	}
	var candidates []*types.DynamicEvent
	if err := transaction.WithContext(dbc.Ctx).
		Where("min_rank <= ? AND max_rank >= ?", rank, rank).
		Find(&candidates).Error; err != nil {
		return nil, &types.PersistenceError{Op: "select_eligible", Err: err}
	}
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return Select(candidates, rank, mix, schedule, r.now(), r.rng)
}

func (r *eventRepo) RecordUsage(dbc dbctx.Context, eventID uuid.UUID, playerName string, rank types.Rank, choiceIndex int) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if choiceIndex < 0 || choiceIndex >= types.OptionCount {
		return &types.ValidationError{Reason: fmt.Sprintf("choice index %d out of range", choiceIndex)}
	}
	now := r.now()
	err := transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		res := txx.Model(&types.DynamicEvent{}).
			Where("id = ?", eventID).
			Updates(map[string]interface{}{
				"usage_count":  gorm.Expr("usage_count + 1"),
				"last_used_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return types.ErrEventNotFound
		}
		return txx.Create(&types.EventUsageLog{
			EventID:     eventID,
			PlayerName:  playerName,
			PlayerRank:  rank,
			ChoiceIndex: choiceIndex,
			CreatedAt:   now,
		}).Error
	})
	if errors.Is(err, types.ErrEventNotFound) {
		return err
	}
	if err != nil {
		return &types.PersistenceError{Op: "record_usage", Err: err}
	}
	return nil
}

func (r *eventRepo) CleanupStale(dbc dbctx.Context, schedule types.DecaySchedule, policy types.CleanupPolicy) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if schedule.MaxAgeDays <= 0 {
		return 0, nil
	}
	now := r.now()
	ageCutoff := now.Add(-days(schedule.MaxAgeDays))
	recentCutoff := now.Add(-days(policy.RecentUseDays))
	res := transaction.WithContext(dbc.Ctx).
		Where("origin <> ?", types.OriginFixed).
		Where("created_at < ?", ageCutoff).
		Where("quality_score < ?", policy.LowQualityThreshold).
		Where("is_validated = ?", false).
		Where("(last_used_at IS NULL OR last_used_at < ?)", recentCutoff).
		Delete(&types.DynamicEvent{})
	if res.Error != nil {
		return 0, &types.PersistenceError{Op: "cleanup_stale", Err: res.Error}
	}
	if res.RowsAffected > 0 {
		r.log.Info("Removed stale events", "count", res.RowsAffected)
	}
	return res.RowsAffected, nil
}

type originCount struct {
	Origin types.Origin
	N      int64
}

func (r *eventRepo) CountByOrigin(dbc dbctx.Context) (map[types.Origin]int64, error) {
	return r.countBy(dbc, nil)
}

func (r *eventRepo) CountEligibleByOrigin(dbc dbctx.Context, rank types.Rank) (map[types.Origin]int64, error) {
	return r.countBy(dbc, &rank)
}

func (r *eventRepo) countBy(dbc dbctx.Context, rank *types.Rank) (map[types.Origin]int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.DynamicEvent{}).
		Select("origin, COUNT(*) AS n")
	if rank != nil {
		q = q.Where("min_rank <= ? AND max_rank >= ?", *rank, *rank)
	}
	var rows []originCount
	if err := q.Group("origin").Scan(&rows).Error; err != nil {
		return nil, &types.PersistenceError{Op: "count_by_origin", Err: err}
	}
	out := map[types.Origin]int64{}
	for _, o := range types.AllOrigins() {
		out[o] = 0
	}
	for _, row := range rows {
		out[row.Origin] = row.N
	}
	return out, nil
}

func (r *eventRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.DynamicEvent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var ev types.DynamicEvent
	err := transaction.WithContext(dbc.Ctx).Where("id = ?", id).First(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrEventNotFound
	}
	if err != nil {
		return nil, &types.PersistenceError{Op: "get_by_id", Err: err}
	}
	return &ev, nil
}

// AdjustQuality shifts the quality score by delta, clamped to [0,1], and returns the new value.
func (r *eventRepo) AdjustQuality(dbc dbctx.Context, id uuid.UUID, delta float64) (float64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var updated float64
	err := transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		q := txx
		if txx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var ev types.DynamicEvent
		if err := q.Where("id = ?", id).First(&ev).Error; err != nil {
			return err
		}
		updated = clamp01(ev.QualityScore + delta)
		return txx.Model(&types.DynamicEvent{}).
			Where("id = ?", id).
			Update("quality_score", updated).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, types.ErrEventNotFound
	}
	if err != nil {
		return 0, &types.PersistenceError{Op: "adjust_quality", Err: err}
	}
	return updated, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func days(d float64) time.Duration {
	return time.Duration(d * float64(24*time.Hour))
}
