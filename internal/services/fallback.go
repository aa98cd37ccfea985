package services

import (
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/yungbote/eventforge/internal/config"
	"github.com/yungbote/eventforge/internal/domain/events"
	"github.com/yungbote/eventforge/internal/pkg/logger"
)

var fallbackNamespace = uuid.MustParse("6f1c2a3e-8a1d-4e57-9d1b-3f0f5a0c7e21")

// Fallbacks is the static data served when the store or the model cannot answer.
type Fallbacks struct {
	fixed        []events.DynamicEvent
	creative     []events.DynamicEvent
	descriptions map[string]string
	ids          map[uuid.UUID]bool
}

func NewFallbacks(p config.Presets, log *logger.Logger) *Fallbacks {
	f := &Fallbacks{descriptions: p.Descriptions, ids: map[uuid.UUID]bool{}}
	add := func(dst *[]events.DynamicEvent, presets []config.PresetEvent, origin events.Origin) {
		for _, pe := range presets {
			ev, err := pe.ToEvent(origin)
			if err != nil {
				log.Warn("Ignoring invalid preset", "title", pe.Title, "error", err)
				continue
			}
			ev.ID = uuid.NewSHA1(fallbackNamespace, []byte(string(origin)+":"+ev.Title))
			f.ids[ev.ID] = true
			*dst = append(*dst, ev)
		}
	}
	add(&f.fixed, p.Fixed, events.OriginFixed)
	add(&f.creative, p.Creative, events.OriginCreative)
	return f
}

// FixedPresets returns copies of the preset fixed events for seeding.
func (f *Fallbacks) FixedPresets() []events.DynamicEvent {
	return append([]events.DynamicEvent(nil), f.fixed...)
}

func (f *Fallbacks) IsFallback(id uuid.UUID) bool { return f.ids[id] }

func (f *Fallbacks) Fixed(rank events.Rank) (*events.DynamicEvent, bool) {
	return pick(f.fixed, rank)
}

func (f *Fallbacks) Creative(rank events.Rank) (*events.DynamicEvent, bool) {
	return pick(f.creative, rank)
}

func (f *Fallbacks) Description(rank events.Rank) string {
	if f.descriptions == nil {
		return ""
	}
	return f.descriptions[rank.String()]
}

// pick draws a preset covering rank. An invalid rank matches every preset.
func pick(pool []events.DynamicEvent, rank events.Rank) (*events.DynamicEvent, bool) {
	var match []int
	for i := range pool {
		if !rank.Valid() || pool[i].Band().Contains(rank) {
			match = append(match, i)
		}
	}
	if len(match) == 0 {
		return nil, false
	}
	ev := pool[match[rand.IntN(len(match))]]
	return &ev, true
}
