package events

import (
	"fmt"
	"strings"
)

// Rank is the player's progression level. Values are ordered; a higher Rank is a later career stage.
type Rank int

const (
	RankUndergraduate Rank = iota + 1
	RankMaster
	RankPhD
	RankPostdoc
	RankAssistantProfessor
	RankAssociateProfessor
	RankProfessor
)

const (
	MinRank = RankUndergraduate
	MaxRank = RankProfessor
)

var rankNames = map[Rank]string{
	RankUndergraduate:      "undergraduate",
	RankMaster:             "master",
	RankPhD:                "phd",
	RankPostdoc:            "postdoc",
	RankAssistantProfessor: "assistant_professor",
	RankAssociateProfessor: "associate_professor",
	RankProfessor:          "professor",
}

func (r Rank) String() string {
	if name, ok := rankNames[r]; ok {
		return name
	}
	return fmt.Sprintf("rank(%d)", int(r))
}

func (r Rank) Valid() bool { return r >= MinRank && r <= MaxRank }

// ParseRank accepts the canonical name (case-insensitive, '-' or ' ' for '_') or the numeric level.
func ParseRank(s string) (Rank, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	for r, name := range rankNames {
		if name == key {
			return r, nil
		}
	}
	var n int
	if _, err := fmt.Sscanf(key, "%d", &n); err == nil && Rank(n).Valid() {
		return Rank(n), nil
	}
	return 0, fmt.Errorf("unknown rank %q", s)
}

func AllRanks() []Rank {
	out := make([]Rank, 0, int(MaxRank))
	for r := MinRank; r <= MaxRank; r++ {
		out = append(out, r)
	}
	return out
}

// RankBand is an inclusive [Min, Max] range of ranks.
type RankBand struct {
	Min Rank
	Max Rank
}

func FullBand() RankBand { return RankBand{Min: MinRank, Max: MaxRank} }

func (b RankBand) Contains(r Rank) bool { return r >= b.Min && r <= b.Max }

func (b RankBand) Valid() bool { return b.Min.Valid() && b.Max.Valid() && b.Min <= b.Max }

// Normalized clamps both ends into the rank range and swaps them when reversed.
func (b RankBand) Normalized() RankBand {
	clamp := func(r Rank) Rank {
		if r < MinRank {
			return MinRank
		}
		if r > MaxRank {
			return MaxRank
		}
		return r
	}
	b.Min, b.Max = clamp(b.Min), clamp(b.Max)
	if b.Min > b.Max {
		b.Min, b.Max = b.Max, b.Min
	}
	return b
}
