package generator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/yungbote/eventforge/internal/domain/events"
)

// Draft is the raw event shape returned by the model, before validation.
type Draft struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Options     []json.RawMessage `json:"options"`
	MinRank     json.RawMessage   `json:"min_rank,omitempty"`
	MaxRank     json.RawMessage   `json:"max_rank,omitempty"`
}

type draftOption struct {
	ID       string             `json:"id"`
	Text     string             `json:"text"`
	Effects  map[string]float64 `json:"effects"`
	Feedback string             `json:"feedback"`
}

var optionIDs = []string{"a", "b", "c"}

var statKeys = []string{"cash", "health", "reputation", "progress", "quality"}

// ParseDraft extracts the JSON object from a model reply. Fenced blocks and
// leading or trailing prose are tolerated; type mismatches are not.
func ParseDraft(text string) (Draft, error) {
	body := extractJSON(text)
	if body == "" {
		return Draft{}, &events.ValidationError{Reason: "no json object in reply"}
	}
	var d Draft
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		return Draft{}, &events.ValidationError{Reason: fmt.Sprintf("decode: %v", err)}
	}
	return d, nil
}

func extractJSON(text string) string {
	s := strings.TrimSpace(text)
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 && !strings.HasPrefix(strings.TrimSpace(rest[:nl]), "{") {
			rest = rest[nl+1:]
		}
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		s = strings.TrimSpace(rest)
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// Validate checks the structural minimum: title, description and at least three object options.
func Validate(d Draft) error {
	if strings.TrimSpace(d.Title) == "" {
		return &events.ValidationError{Reason: "missing title"}
	}
	if strings.TrimSpace(d.Description) == "" {
		return &events.ValidationError{Reason: "missing description"}
	}
	if len(d.Options) < events.OptionCount {
		return &events.ValidationError{Reason: fmt.Sprintf("expected at least %d options, got %d", events.OptionCount, len(d.Options))}
	}
	for i, raw := range d.Options[:events.OptionCount] {
		if _, err := decodeOption(raw); err != nil {
			return &events.ValidationError{Reason: fmt.Sprintf("option %d: %v", i, err)}
		}
	}
	return nil
}

func decodeOption(raw json.RawMessage) (draftOption, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return draftOption{}, fmt.Errorf("not an object")
	}
	var o draftOption
	if err := json.Unmarshal(trimmed, &o); err != nil {
		return draftOption{}, err
	}
	return o, nil
}

// Normalize turns a validated draft into an event with exactly three options.
// Every default it applies is returned so callers can log it.
func Normalize(d Draft) (events.DynamicEvent, []string) {
	var notes []string
	if len(d.Options) > events.OptionCount {
		notes = append(notes, fmt.Sprintf("trimmed %d extra options", len(d.Options)-events.OptionCount))
	}
	used := map[string]bool{}
	opts := make([]events.EventOption, 0, events.OptionCount)
	for i, raw := range d.Options[:events.OptionCount] {
		o, _ := decodeOption(raw)
		id := strings.ToLower(strings.TrimSpace(o.ID))
		if id == "" || used[id] {
			id = optionIDs[i]
			for used[id] {
				id += "'"
			}
			notes = append(notes, fmt.Sprintf("option %d: assigned id %q", i, id))
		}
		used[id] = true
		text := strings.TrimSpace(o.Text)
		if text == "" {
			text = "Option " + strings.ToUpper(optionIDs[i])
			notes = append(notes, fmt.Sprintf("option %d: default text", i))
		}
		feedback := strings.TrimSpace(o.Feedback)
		if feedback == "" {
			feedback = "You made your choice and moved on."
			notes = append(notes, fmt.Sprintf("option %d: default feedback", i))
		}
		eff, effNotes := normalizeEffects(o.Effects)
		for _, n := range effNotes {
			notes = append(notes, fmt.Sprintf("option %d: %s", i, n))
		}
		opts = append(opts, events.EventOption{ID: id, Text: text, Effects: eff, Feedback: feedback})
	}

	band := events.FullBand()
	if explicit, ok := ExplicitBand(d); ok {
		band = explicit
	}
	return events.DynamicEvent{
		Title:        strings.TrimSpace(d.Title),
		Description:  strings.TrimSpace(d.Description),
		Options:      opts,
		MinRank:      band.Min,
		MaxRank:      band.Max,
		BaseWeight:   events.DefaultBaseWeight,
		QualityScore: events.DefaultQualityScore,
		LLMEnhanced:  true,
	}, notes
}

func normalizeEffects(in map[string]float64) (events.Effects, []string) {
	var notes []string
	vals := make(map[string]int, len(statKeys))
	for _, k := range statKeys {
		v, ok := lookupStat(in, k)
		if !ok {
			notes = append(notes, fmt.Sprintf("effect %s defaulted to 0", k))
			continue
		}
		r := math.Round(v)
		if math.IsNaN(r) {
			notes = append(notes, fmt.Sprintf("effect %s not a number, defaulted to 0", k))
			continue
		}
		if r < events.EffectMin || r > events.EffectMax {
			notes = append(notes, fmt.Sprintf("effect %s clamped from %g", k, r))
			r = math.Max(events.EffectMin, math.Min(events.EffectMax, r))
		}
		vals[k] = int(r)
	}
	raw := events.Effects{
		Cash:       vals["cash"],
		Health:     vals["health"],
		Reputation: vals["reputation"],
		Progress:   vals["progress"],
		Quality:    vals["quality"],
	}
	return raw.Clamp(), notes
}

func lookupStat(in map[string]float64, key string) (float64, bool) {
	if v, ok := in[key]; ok {
		return v, true
	}
	for k, v := range in {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return 0, false
}

// ExplicitBand returns the model-provided rank band when both ends parse.
// A reversed pair is swapped.
func ExplicitBand(d Draft) (events.RankBand, bool) {
	lo, ok1 := parseRankValue(d.MinRank)
	hi, ok2 := parseRankValue(d.MaxRank)
	if !ok1 || !ok2 {
		return events.RankBand{}, false
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return events.RankBand{Min: lo, Max: hi}, true
}

func parseRankValue(raw json.RawMessage) (events.Rank, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return 0, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		r, err := events.ParseRank(s)
		return r, err == nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil && events.Rank(n).Valid() {
		return events.Rank(n), true
	}
	return 0, false
}
