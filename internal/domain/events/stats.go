package events

const StatFloor = 0

// PlayerStats is the simulated player state used to prompt creative events.
type PlayerStats struct {
	Cash       int `json:"cash"`
	Health     int `json:"health"`
	Reputation int `json:"reputation"`
	Progress   int `json:"progress"`
	Quality    int `json:"quality"`
}

// Apply returns the stats after an option's effects.
func (s PlayerStats) Apply(e Effects) PlayerStats {
	return PlayerStats{
		Cash:       s.Cash + e.Cash,
		Health:     s.Health + e.Health,
		Reputation: s.Reputation + e.Reputation,
		Progress:   s.Progress + e.Progress,
		Quality:    s.Quality + e.Quality,
	}
}

// BelowFloor counts how many stats are under StatFloor.
func (s PlayerStats) BelowFloor() int {
	n := 0
	for _, v := range []int{s.Cash, s.Health, s.Reputation, s.Progress, s.Quality} {
		if v < StatFloor {
			n++
		}
	}
	return n
}

// TypicalStats is a representative mid-career state for a rank, used when no live player is involved.
func TypicalStats(r Rank) PlayerStats {
	step := int(r) - int(MinRank)
	return PlayerStats{
		Cash:       30 + 10*step,
		Health:     70 - 3*step,
		Reputation: 10 + 12*step,
		Progress:   20 + 5*step,
		Quality:    25 + 8*step,
	}
}
