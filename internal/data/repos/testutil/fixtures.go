package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/eventforge/internal/domain/events"
)

// NewEvent returns a valid event of the given origin covering band [lo, hi].
func NewEvent(origin types.Origin, title string, lo, hi types.Rank) types.DynamicEvent {
	return types.DynamicEvent{
		Origin:      origin,
		Title:       title,
		Description: "description of " + title,
		Options: []types.EventOption{
			{ID: "a", Text: "first", Effects: types.Effects{Cash: 5}, Feedback: "ok"},
			{ID: "b", Text: "second", Effects: types.Effects{Health: -5}, Feedback: "ok"},
			{ID: "c", Text: "third", Effects: types.Effects{Reputation: 10}, Feedback: "ok"},
		},
		MinRank:      lo,
		MaxRank:      hi,
		BaseWeight:   types.DefaultBaseWeight,
		QualityScore: types.DefaultQualityScore,
	}
}

// SeedEvent inserts ev directly, bypassing repository defaults, so tests can control every column.
func SeedEvent(tb testing.TB, ctx context.Context, tx *gorm.DB, ev types.DynamicEvent) *types.DynamicEvent {
	tb.Helper()
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	if err := tx.WithContext(ctx).Create(&ev).Error; err != nil {
		tb.Fatalf("seed event: %v", err)
	}
	return &ev
}
