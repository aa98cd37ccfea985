package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Origin string

const (
	OriginFixed    Origin = "fixed"
	OriginNews     Origin = "news"
	OriginCreative Origin = "creative"
)

func AllOrigins() []Origin { return []Origin{OriginFixed, OriginNews, OriginCreative} }

func ParseOrigin(s string) (Origin, error) {
	switch o := Origin(strings.ToLower(strings.TrimSpace(s))); o {
	case OriginFixed, OriginNews, OriginCreative:
		return o, nil
	}
	return "", fmt.Errorf("unknown origin %q", s)
}

const (
	EffectMin = -30
	EffectMax = 30

	OptionCount = 3

	DefaultBaseWeight   = 1.0
	DefaultQualityScore = 0.5
)

// Effects is the stat delta applied when a player picks an option.
type Effects struct {
	Cash       int `json:"cash"`
	Health     int `json:"health"`
	Reputation int `json:"reputation"`
	Progress   int `json:"progress"`
	Quality    int `json:"quality"`
}

func clampEffect(v int) int {
	if v < EffectMin {
		return EffectMin
	}
	if v > EffectMax {
		return EffectMax
	}
	return v
}

func (e Effects) Clamp() Effects {
	return Effects{
		Cash:       clampEffect(e.Cash),
		Health:     clampEffect(e.Health),
		Reputation: clampEffect(e.Reputation),
		Progress:   clampEffect(e.Progress),
		Quality:    clampEffect(e.Quality),
	}
}

func (e Effects) Valid() bool { return e == e.Clamp() }

type EventOption struct {
	ID       string  `json:"id"`
	Text     string  `json:"text"`
	Effects  Effects `json:"effects"`
	Feedback string  `json:"feedback"`
}

// DynamicEvent is a persisted decision event. Column names are a durable contract.
type DynamicEvent struct {
	ID           uuid.UUID                        `gorm:"type:uuid;primaryKey" json:"id"`
	Origin       Origin                           `gorm:"column:origin;not null;index" json:"origin"`
	SourceURL    string                           `gorm:"column:source_url;index" json:"source_url,omitempty"`
	SourceTitle  string                           `gorm:"column:source_title;index" json:"source_title,omitempty"`
	SourceDate   *time.Time                       `gorm:"column:source_date" json:"source_date,omitempty"`
	Title        string                           `gorm:"column:title;not null" json:"title"`
	Description  string                           `gorm:"column:description;not null" json:"description"`
	Options      datatypes.JSONSlice[EventOption] `gorm:"column:options;not null" json:"options"`
	MinRank      Rank                             `gorm:"column:min_rank;not null;index" json:"min_rank"`
	MaxRank      Rank                             `gorm:"column:max_rank;not null;index" json:"max_rank"`
	BaseWeight   float64                          `gorm:"column:base_weight;not null" json:"base_weight"`
	CreatedAt    time.Time                        `gorm:"column:created_at;not null;index" json:"created_at"`
	LastUsedAt   *time.Time                       `gorm:"column:last_used_at;index" json:"last_used_at,omitempty"`
	UsageCount   int64                            `gorm:"column:usage_count;not null" json:"usage_count"`
	IsValidated  bool                             `gorm:"column:is_validated;not null" json:"is_validated"`
	QualityScore float64                          `gorm:"column:quality_score;not null" json:"quality_score"`
	LLMEnhanced  bool                             `gorm:"column:llm_enhanced;not null" json:"llm_enhanced"`
}

func (DynamicEvent) TableName() string { return "dynamic_event" }

func (e *DynamicEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return nil
}

func (e *DynamicEvent) Band() RankBand { return RankBand{Min: e.MinRank, Max: e.MaxRank} }

// CheckInvariants returns a ValidationError describing the first violated invariant.
func (e *DynamicEvent) CheckInvariants() error {
	if e == nil {
		return &ValidationError{Reason: "nil event"}
	}
	if strings.TrimSpace(e.Title) == "" {
		return &ValidationError{Reason: "missing title"}
	}
	if strings.TrimSpace(e.Description) == "" {
		return &ValidationError{Reason: "missing description"}
	}
	if len(e.Options) != OptionCount {
		return &ValidationError{Reason: fmt.Sprintf("expected %d options, got %d", OptionCount, len(e.Options))}
	}
	for i, opt := range e.Options {
		if !opt.Effects.Valid() {
			return &ValidationError{Reason: fmt.Sprintf("option %d effects out of range", i)}
		}
	}
	if !e.Band().Valid() {
		return &ValidationError{Reason: fmt.Sprintf("invalid rank band [%d,%d]", e.MinRank, e.MaxRank)}
	}
	if e.BaseWeight <= 0 {
		return &ValidationError{Reason: "base weight must be positive"}
	}
	if e.QualityScore < 0 || e.QualityScore > 1 {
		return &ValidationError{Reason: "quality score out of [0,1]"}
	}
	if e.UsageCount < 0 {
		return &ValidationError{Reason: "negative usage count"}
	}
	return nil
}

// AgeDays is the event age in fractional days at now.
func (e *DynamicEvent) AgeDays(now time.Time) float64 {
	if e.CreatedAt.IsZero() || now.Before(e.CreatedAt) {
		return 0
	}
	return now.Sub(e.CreatedAt).Hours() / 24
}

// Provenance records where a news-derived event came from.
type Provenance struct {
	URL   string
	Title string
	Date  *time.Time
}

// GeneratedEvent pairs a freshly produced event with its provenance for persistence.
type GeneratedEvent struct {
	Event      DynamicEvent
	Provenance *Provenance
}

// EventUsageLog is append-only and never read by selection.
type EventUsageLog struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EventID     uuid.UUID `gorm:"type:uuid;column:event_id;not null;index" json:"event_id"`
	PlayerName  string    `gorm:"column:player_name;not null" json:"player_name"`
	PlayerRank  Rank      `gorm:"column:player_rank;not null;index" json:"player_rank"`
	ChoiceIndex int       `gorm:"column:choice_index;not null" json:"choice_index"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;index" json:"created_at"`
}

func (EventUsageLog) TableName() string { return "event_usage_log" }

func (l *EventUsageLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	return nil
}
