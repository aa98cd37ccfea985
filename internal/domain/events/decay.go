package events

import (
	"fmt"
	"math"
	"sort"
)

type DecayStep struct {
	Days       float64 `yaml:"days" json:"days"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
}

// DecaySchedule maps event age to a weight multiplier. It is immutable once loaded.
type DecaySchedule struct {
	Steps      []DecayStep `yaml:"steps" json:"steps"`
	MaxAgeDays float64     `yaml:"max_age_days" json:"max_age_days"`
}

func DefaultDecaySchedule() DecaySchedule {
	return DecaySchedule{
		Steps: []DecayStep{
			{Days: 0, Multiplier: 1.0},
			{Days: 3, Multiplier: 0.8},
			{Days: 7, Multiplier: 0.5},
			{Days: 14, Multiplier: 0.3},
			{Days: 30, Multiplier: 0.1},
		},
		MaxAgeDays: 60,
	}
}

func (s DecaySchedule) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("decay schedule: no steps")
	}
	if !sort.SliceIsSorted(s.Steps, func(i, j int) bool { return s.Steps[i].Days < s.Steps[j].Days }) {
		return fmt.Errorf("decay schedule: steps must be sorted by days")
	}
	prev := math.Inf(1)
	for i, st := range s.Steps {
		if st.Days < 0 {
			return fmt.Errorf("decay schedule: step %d has negative days", i)
		}
		if i > 0 && st.Days == s.Steps[i-1].Days {
			return fmt.Errorf("decay schedule: duplicate threshold %.2f", st.Days)
		}
		if st.Multiplier < 0 || st.Multiplier > 1 {
			return fmt.Errorf("decay schedule: step %d multiplier %.3f outside [0,1]", i, st.Multiplier)
		}
		if st.Multiplier > prev {
			return fmt.Errorf("decay schedule: multiplier increases at step %d", i)
		}
		prev = st.Multiplier
	}
	if s.MaxAgeDays <= s.Steps[len(s.Steps)-1].Days {
		return fmt.Errorf("decay schedule: max_age_days %.2f must exceed last threshold", s.MaxAgeDays)
	}
	return nil
}

// Multiplier returns the weight multiplier for an event of the given age.
// Ages before the first threshold count as fresh; ages at or beyond MaxAgeDays are fully decayed.
func (s DecaySchedule) Multiplier(ageDays float64) float64 {
	if ageDays < 0 {
		ageDays = 0
	}
	if s.MaxAgeDays > 0 && ageDays >= s.MaxAgeDays {
		return 0
	}
	m := 1.0
	for _, st := range s.Steps {
		if st.Days > ageDays {
			break
		}
		m = st.Multiplier
	}
	return m
}

// PoolMix holds target proportions per origin.
type PoolMix struct {
	Fixed    float64 `yaml:"fixed" json:"fixed"`
	News     float64 `yaml:"news" json:"news"`
	Creative float64 `yaml:"creative" json:"creative"`
}

func DefaultPoolMix() PoolMix { return PoolMix{Fixed: 0.4, News: 0.35, Creative: 0.25} }

func (m PoolMix) Weight(o Origin) float64 {
	switch o {
	case OriginFixed:
		return m.Fixed
	case OriginNews:
		return m.News
	case OriginCreative:
		return m.Creative
	}
	return 0
}

func (m PoolMix) Sum() float64 { return m.Fixed + m.News + m.Creative }

// Normalized rescales the proportions to sum to 1. A zero or negative mix becomes uniform.
func (m PoolMix) Normalized() PoolMix {
	if m.Fixed < 0 {
		m.Fixed = 0
	}
	if m.News < 0 {
		m.News = 0
	}
	if m.Creative < 0 {
		m.Creative = 0
	}
	sum := m.Sum()
	if sum <= 0 {
		return PoolMix{Fixed: 1.0 / 3, News: 1.0 / 3, Creative: 1.0 / 3}
	}
	return PoolMix{Fixed: m.Fixed / sum, News: m.News / sum, Creative: m.Creative / sum}
}

// CleanupPolicy decides which stale events are removed.
type CleanupPolicy struct {
	LowQualityThreshold float64 `yaml:"low_quality_threshold" json:"low_quality_threshold"`
	RecentUseDays       float64 `yaml:"recent_use_days" json:"recent_use_days"`
}

func DefaultCleanupPolicy() CleanupPolicy {
	return CleanupPolicy{LowQualityThreshold: 0.3, RecentUseDays: 7}
}
