package events

import (
	"math"
	"testing"
)

func TestDecayMultiplier(t *testing.T) {
	s := DefaultDecaySchedule()
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	cases := []struct {
		age  float64
		want float64
	}{
		{0, 1.0},
		{2.9, 1.0},
		{3, 0.8},
		{10, 0.5},
		{29.99, 0.3},
		{45, 0.1},
		{59.9, 0.1},
		{60, 0},
		{400, 0},
	}
	for _, tc := range cases {
		if got := s.Multiplier(tc.age); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("Multiplier(%v): want=%v got=%v", tc.age, tc.want, got)
		}
	}
}

func TestDecayMultiplierNonIncreasing(t *testing.T) {
	s := DefaultDecaySchedule()
	prev := s.Multiplier(0)
	for age := 0.0; age <= 70; age += 0.25 {
		m := s.Multiplier(age)
		if m > prev {
			t.Fatalf("multiplier increased at age %v: %v > %v", age, m, prev)
		}
		prev = m
	}
}

func TestDecayScheduleValidateRejects(t *testing.T) {
	bad := []DecaySchedule{
		{},
		{Steps: []DecayStep{{Days: 5, Multiplier: 0.5}, {Days: 1, Multiplier: 0.4}}, MaxAgeDays: 10},
		{Steps: []DecayStep{{Days: 0, Multiplier: 0.5}, {Days: 1, Multiplier: 0.9}}, MaxAgeDays: 10},
		{Steps: []DecayStep{{Days: 0, Multiplier: 1}, {Days: 10, Multiplier: 0.5}}, MaxAgeDays: 10},
	}
	for i, s := range bad {
		if err := s.Validate(); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestPoolMixNormalized(t *testing.T) {
	m := PoolMix{Fixed: 2, News: 1, Creative: 1}.Normalized()
	if math.Abs(m.Sum()-1) > 1e-9 || math.Abs(m.Fixed-0.5) > 1e-9 {
		t.Fatalf("unexpected normalized mix: %+v", m)
	}
	u := PoolMix{}.Normalized()
	if math.Abs(u.News-1.0/3) > 1e-9 {
		t.Fatalf("zero mix should be uniform: %+v", u)
	}
}
