package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/yungbote/eventforge/internal/domain/events"
)

func TestDefaultPipelineLoads(t *testing.T) {
	p := Default()
	if len(p.Sources) == 0 {
		t.Fatalf("expected sources in embedded pipeline")
	}
	if len(p.Presets.Fixed) == 0 || len(p.Presets.Creative) == 0 {
		t.Fatalf("expected fixed and creative presets")
	}
	if math.Abs(p.PoolMix.Sum()-1) > 0.001 {
		t.Fatalf("pool mix sum: got=%v", p.PoolMix.Sum())
	}
	if got := p.Decay.Multiplier(0); got != 1.0 {
		t.Fatalf("Multiplier(0): want=1 got=%v", got)
	}
	for _, pe := range p.Presets.Fixed {
		ev, err := pe.ToEvent(events.OriginFixed)
		if err != nil {
			t.Fatalf("preset %q: %v", pe.Title, err)
		}
		if len(ev.Options) != events.OptionCount {
			t.Fatalf("preset %q: want 3 options got=%d", pe.Title, len(ev.Options))
		}
	}
	if p.Presets.Description(events.RankPhD) == "" {
		t.Fatalf("expected a phd description")
	}
}

func TestLoadFromEnvPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	doc := `
sources:
  - {name: a, url: "http://example.test/a.xml", weight: 1, category: tech}
  - {name: b, url: "http://example.test/b.xml", weight: 2, category: general, enabled: false}
keywords:
  whitelist: [research]
pool_mix: {fixed: 2, news: 1, creative: 1}
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(pipelineEnv, path)

	p, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(p.Sources) != 2 || p.Sources[1].IsEnabled() {
		t.Fatalf("unexpected sources: %+v", p.Sources)
	}
	if math.Abs(p.PoolMix.Fixed-0.5) > 1e-9 {
		t.Fatalf("pool mix not renormalised: %+v", p.PoolMix)
	}
	if p.Decay.MaxAgeDays != events.DefaultDecaySchedule().MaxAgeDays {
		t.Fatalf("expected default decay schedule, got=%+v", p.Decay)
	}
	if p.Cleanup != events.DefaultCleanupPolicy() {
		t.Fatalf("expected default cleanup policy, got=%+v", p.Cleanup)
	}
}

func TestParseRejectsBadSources(t *testing.T) {
	doc := `
sources:
  - {name: a, url: "http://example.test/a.xml", weight: 0, category: sports}
keywords:
  whitelist: [research]
`
	if _, err := Parse([]byte(doc), nil); err == nil {
		t.Fatalf("expected validation error")
	}
}
