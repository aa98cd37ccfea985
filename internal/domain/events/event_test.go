package events

import (
	"errors"
	"fmt"
	"testing"
)

func validEvent() *DynamicEvent {
	return &DynamicEvent{
		Origin:      OriginNews,
		Title:       "Grant freeze",
		Description: "Funding agencies pause new awards.",
		Options: []EventOption{
			{ID: "a", Text: "Wait it out", Effects: Effects{Cash: -10}},
			{ID: "b", Text: "Apply abroad", Effects: Effects{Reputation: 5, Health: -5}},
			{ID: "c", Text: "Industry consulting", Effects: Effects{Cash: 20, Progress: -10}},
		},
		MinRank:      RankPhD,
		MaxRank:      RankProfessor,
		BaseWeight:   DefaultBaseWeight,
		QualityScore: DefaultQualityScore,
	}
}

func TestEffectsClamp(t *testing.T) {
	e := Effects{Cash: 99, Health: -99, Reputation: 30, Progress: -30, Quality: 0}.Clamp()
	want := Effects{Cash: 30, Health: -30, Reputation: 30, Progress: -30, Quality: 0}
	if e != want {
		t.Fatalf("Clamp: want=%+v got=%+v", want, e)
	}
	if !e.Valid() {
		t.Fatalf("clamped effects must be valid")
	}
}

func TestCheckInvariants(t *testing.T) {
	if err := validEvent().CheckInvariants(); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}

	twoOptions := validEvent()
	twoOptions.Options = twoOptions.Options[:2]
	reversed := validEvent()
	reversed.MinRank, reversed.MaxRank = RankProfessor, RankPhD
	outOfRange := validEvent()
	outOfRange.Options[1].Effects.Cash = 31

	for i, ev := range []*DynamicEvent{twoOptions, reversed, outOfRange} {
		err := ev.CheckInvariants()
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("case %d: want ValidationError got=%v", i, err)
		}
	}
}

func TestParseRank(t *testing.T) {
	cases := map[string]Rank{
		"phd":                 RankPhD,
		"Assistant-Professor": RankAssistantProfessor,
		"associate professor": RankAssociateProfessor,
		"7":                   RankProfessor,
	}
	for in, want := range cases {
		got, err := ParseRank(in)
		if err != nil || got != want {
			t.Fatalf("ParseRank(%q): want=%v got=%v err=%v", in, want, got, err)
		}
	}
	if _, err := ParseRank("dean"); err == nil {
		t.Fatalf("ParseRank(dean): expected error")
	}
}

func TestRankBandNormalized(t *testing.T) {
	b := RankBand{Min: RankProfessor, Max: 0}.Normalized()
	if b.Min != RankUndergraduate || b.Max != RankProfessor {
		t.Fatalf("Normalized: got=%+v", b)
	}
}

func TestNoEligibleEventsErrorIs(t *testing.T) {
	err := fmt.Errorf("select: %w", &NoEligibleEventsError{Rank: RankMaster})
	if !errors.Is(err, ErrNoEligibleEvents) {
		t.Fatalf("expected errors.Is(ErrNoEligibleEvents)")
	}
}
