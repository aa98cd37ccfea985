package sources

import (
	"strings"

	"github.com/yungbote/eventforge/internal/config"
	"github.com/yungbote/eventforge/internal/domain/events"
	"github.com/yungbote/eventforge/internal/pkg/logger"
)

// Source is one configured feed. The registry is read-only after construction.
type Source struct {
	Name     string
	URL      string
	Weight   float64
	Category events.SourceCategory
}

type Registry struct {
	sources []Source
	filter  *Filter
}

// NewRegistry keeps only enabled sources with a known category.
func NewRegistry(p *config.Pipeline, log *logger.Logger) *Registry {
	r := &Registry{filter: NewFilter(p.Keywords.Whitelist, p.Keywords.Blacklist, p.Keywords.Strong)}
	for _, s := range p.Sources {
		if !s.IsEnabled() {
			if log != nil {
				log.Debug("Skipping disabled source", "source", s.Name)
			}
			continue
		}
		cat, err := events.ParseSourceCategory(s.Category)
		if err != nil {
			if log != nil {
				log.Warn("Skipping source with unknown category", "source", s.Name, "error", err)
			}
			continue
		}
		r.sources = append(r.sources, Source{
			Name:     s.Name,
			URL:      s.URL,
			Weight:   s.Weight,
			Category: cat,
		})
	}
	return r
}

// NewStaticRegistry builds a registry directly. A nil filter keeps every item.
func NewStaticRegistry(srcs []Source, filter *Filter) *Registry {
	return &Registry{sources: append([]Source(nil), srcs...), filter: filter}
}

func (r *Registry) Enabled() []Source {
	return append([]Source(nil), r.sources...)
}

func (r *Registry) Filter() *Filter { return r.filter }

// Filter implements the keyword rule: keep iff a whitelist term matches and
// either no blacklist term matches or a strong term overrides it.
type Filter struct {
	whitelist []string
	blacklist []string
	strong    []string
}

func NewFilter(whitelist, blacklist, strong []string) *Filter {
	return &Filter{
		whitelist: lowerAll(whitelist),
		blacklist: lowerAll(blacklist),
		strong:    lowerAll(strong),
	}
}

func (f *Filter) Keep(title, body string) bool {
	if f == nil {
		return true
	}
	text := strings.ToLower(title + "\n" + body)
	if !containsAny(text, f.whitelist) {
		return false
	}
	if !containsAny(text, f.blacklist) {
		return true
	}
	return containsAny(text, f.strong)
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
