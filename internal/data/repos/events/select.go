package events

import (
	"math/rand/v2"
	"time"

	types "github.com/yungbote/eventforge/internal/domain/events"
)

// EffectiveWeight is base weight x decay multiplier x quality. Fixed events do not decay.
func EffectiveWeight(ev *types.DynamicEvent, schedule types.DecaySchedule, now time.Time) float64 {
	decay := 1.0
	if ev.Origin != types.OriginFixed {
		decay = schedule.Multiplier(ev.AgeDays(now))
	}
	w := ev.BaseWeight * decay * ev.QualityScore
	if w < 0 {
		return 0
	}
	return w
}

// Select performs the two-stage draw: pick an origin by mix proportion, falling
// back to a uniform pick over non-empty origins when the drawn origin has no
// candidates, then pick an event proportionally to effective weight.
// Fully decayed candidates (effective weight 0) take part only when no
// candidate in the band has a positive weight; the draw is then uniform.
func Select(
	candidates []*types.DynamicEvent,
	rank types.Rank,
	mix types.PoolMix,
	schedule types.DecaySchedule,
	now time.Time,
	rng *rand.Rand,
) (*types.DynamicEvent, error) {
	type weighted struct {
		ev *types.DynamicEvent
		w  float64
	}
	live := map[types.Origin][]weighted{}
	dead := map[types.Origin][]weighted{}
	for _, ev := range candidates {
		if ev == nil || !ev.Band().Contains(rank) {
			continue
		}
		w := EffectiveWeight(ev, schedule, now)
		if w > 0 {
			live[ev.Origin] = append(live[ev.Origin], weighted{ev, w})
		} else {
			dead[ev.Origin] = append(dead[ev.Origin], weighted{ev, 0})
		}
	}
	groups := live
	if len(groups) == 0 {
		groups = dead
	}
	if len(groups) == 0 {
		return nil, &types.NoEligibleEventsError{Rank: rank}
	}

	origins := types.AllOrigins()
	mix = mix.Normalized()
	weights := make([]float64, len(origins))
	for i, o := range origins {
		weights[i] = mix.Weight(o)
	}
	origin := origins[weightedIndex(weights, rng)]
	if len(groups[origin]) == 0 {
		var nonEmpty []types.Origin
		for _, o := range origins {
			if len(groups[o]) > 0 {
				nonEmpty = append(nonEmpty, o)
			}
		}
		origin = nonEmpty[rng.IntN(len(nonEmpty))]
	}

	pool := groups[origin]
	ew := make([]float64, len(pool))
	for i, c := range pool {
		ew[i] = c.w
	}
	return pool[weightedIndex(ew, rng)].ev, nil
}

// weightedIndex draws an index proportionally to w. All-zero weights draw uniformly.
func weightedIndex(w []float64, rng *rand.Rand) int {
	total := 0.0
	for _, v := range w {
		if v > 0 {
			total += v
		}
	}
	if total <= 0 {
		return rng.IntN(len(w))
	}
	x := rng.Float64() * total
	for i, v := range w {
		if v <= 0 {
			continue
		}
		if x < v {
			return i
		}
		x -= v
	}
	for i := len(w) - 1; i >= 0; i-- {
		if w[i] > 0 {
			return i
		}
	}
	return len(w) - 1
}
