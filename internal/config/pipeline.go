package config

import (
	"embed"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/eventforge/internal/domain/events"
	"github.com/yungbote/eventforge/internal/pkg/logger"
)

const pipelineEnv = "EVENTFORGE_PIPELINE_YAML"

//go:embed pipeline.yaml
var pipelineFS embed.FS

type Source struct {
	Name     string  `yaml:"name"`
	URL      string  `yaml:"url"`
	Weight   float64 `yaml:"weight"`
	Category string  `yaml:"category"`
	Enabled  *bool   `yaml:"enabled,omitempty"`
}

func (s Source) IsEnabled() bool { return s.Enabled == nil || *s.Enabled }

type Keywords struct {
	Whitelist []string `yaml:"whitelist"`
	Blacklist []string `yaml:"blacklist"`
	Strong    []string `yaml:"strong"`
}

type PresetOption struct {
	ID       string         `yaml:"id"`
	Text     string         `yaml:"text"`
	Effects  events.Effects `yaml:"effects"`
	Feedback string         `yaml:"feedback"`
}

type PresetEvent struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	MinRank     string         `yaml:"min_rank"`
	MaxRank     string         `yaml:"max_rank"`
	Options     []PresetOption `yaml:"options"`
}

type Presets struct {
	Fixed        []PresetEvent     `yaml:"fixed"`
	Creative     []PresetEvent     `yaml:"creative"`
	Descriptions map[string]string `yaml:"descriptions"`
}

// Pipeline is the static, authored part of the configuration.
type Pipeline struct {
	Sources  []Source             `yaml:"sources"`
	Keywords Keywords             `yaml:"keywords"`
	Decay    events.DecaySchedule `yaml:"decay"`
	Cleanup  events.CleanupPolicy `yaml:"cleanup"`
	PoolMix  events.PoolMix       `yaml:"pool_mix"`
	Presets  Presets              `yaml:"presets"`
}

// Load reads the pipeline from EVENTFORGE_PIPELINE_YAML when set, otherwise the embedded default.
func Load(log *logger.Logger) (*Pipeline, error) {
	if path := strings.TrimSpace(os.Getenv(pipelineEnv)); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if log != nil {
			log.Info("Loading pipeline config", "path", path)
		}
		return Parse(raw, log)
	}
	raw, err := pipelineFS.ReadFile("pipeline.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded pipeline: %w", err)
	}
	return Parse(raw, log)
}

// Default returns the embedded pipeline. It panics only if the embedded file is broken.
func Default() *Pipeline {
	raw, err := pipelineFS.ReadFile("pipeline.yaml")
	if err != nil {
		panic(err)
	}
	p, err := Parse(raw, nil)
	if err != nil {
		panic(err)
	}
	return p
}

func Parse(raw []byte, log *logger.Logger) (*Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parsing pipeline yaml: %w", err)
	}
	if len(p.Decay.Steps) == 0 {
		p.Decay = events.DefaultDecaySchedule()
	}
	if p.Cleanup == (events.CleanupPolicy{}) {
		p.Cleanup = events.DefaultCleanupPolicy()
	}
	if p.PoolMix.Sum() == 0 {
		p.PoolMix = events.DefaultPoolMix()
	}
	if math.Abs(p.PoolMix.Sum()-1) > 0.001 {
		if log != nil {
			log.Warn("pool_mix does not sum to 1, renormalising", "sum", p.PoolMix.Sum())
		}
		p.PoolMix = p.PoolMix.Normalized()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Pipeline) Validate() error {
	var errs []error
	if err := p.Decay.Validate(); err != nil {
		errs = append(errs, err)
	}
	seen := map[string]bool{}
	for i, s := range p.Sources {
		if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.URL) == "" {
			errs = append(errs, fmt.Errorf("source %d: name and url are required", i))
			continue
		}
		if seen[s.Name] {
			errs = append(errs, fmt.Errorf("source %s: duplicate name", s.Name))
		}
		seen[s.Name] = true
		if s.Weight <= 0 {
			errs = append(errs, fmt.Errorf("source %s: weight must be positive", s.Name))
		}
		if _, err := events.ParseSourceCategory(s.Category); err != nil {
			errs = append(errs, fmt.Errorf("source %s: %w", s.Name, err))
		}
	}
	if len(p.Keywords.Whitelist) == 0 {
		errs = append(errs, errors.New("keywords.whitelist must not be empty"))
	}
	for _, pe := range append(append([]PresetEvent{}, p.Presets.Fixed...), p.Presets.Creative...) {
		if _, err := pe.ToEvent(events.OriginFixed); err != nil {
			errs = append(errs, fmt.Errorf("preset %q: %w", pe.Title, err))
		}
	}
	return errors.Join(errs...)
}

// ToEvent converts an authored preset into a DynamicEvent. Presets are validated by construction.
func (pe PresetEvent) ToEvent(origin events.Origin) (events.DynamicEvent, error) {
	band := events.FullBand()
	if pe.MinRank != "" {
		r, err := events.ParseRank(pe.MinRank)
		if err != nil {
			return events.DynamicEvent{}, err
		}
		band.Min = r
	}
	if pe.MaxRank != "" {
		r, err := events.ParseRank(pe.MaxRank)
		if err != nil {
			return events.DynamicEvent{}, err
		}
		band.Max = r
	}
	opts := make([]events.EventOption, 0, len(pe.Options))
	for _, o := range pe.Options {
		opts = append(opts, events.EventOption{
			ID:       o.ID,
			Text:     o.Text,
			Effects:  o.Effects.Clamp(),
			Feedback: o.Feedback,
		})
	}
	ev := events.DynamicEvent{
		Origin:       origin,
		Title:        pe.Title,
		Description:  pe.Description,
		Options:      opts,
		MinRank:      band.Min,
		MaxRank:      band.Max,
		BaseWeight:   events.DefaultBaseWeight,
		QualityScore: 1.0,
		IsValidated:  true,
	}
	if err := ev.CheckInvariants(); err != nil {
		return events.DynamicEvent{}, err
	}
	return ev, nil
}

// Description returns the preset flavour text for a rank, or "".
func (p *Presets) Description(r events.Rank) string {
	if p == nil || p.Descriptions == nil {
		return ""
	}
	return p.Descriptions[r.String()]
}
