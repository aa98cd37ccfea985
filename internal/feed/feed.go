package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/eventforge/internal/domain/events"
	"github.com/yungbote/eventforge/internal/observability"
	"github.com/yungbote/eventforge/internal/pkg/logger"
	"github.com/yungbote/eventforge/internal/sources"
)

const (
	DefaultTimeout = 15 * time.Second
	maxBodyRunes   = 2000
)

type Result struct {
	Items    []events.NewsItem
	Errors   []error
	Rejected int
}

type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	log     *logger.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

type Option func(*Fetcher)

func WithHTTPClient(c *http.Client) Option { return func(f *Fetcher) { f.client = c } }

func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

func WithMetrics(m *observability.Metrics) Option { return func(f *Fetcher) { f.metrics = m } }

func NewFetcher(log *logger.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:  http.DefaultClient,
		timeout: DefaultTimeout,
		log:     log.With("component", "FeedFetcher"),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// dedupSet is shared by all source goroutines of one cycle.
type dedupSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func (d *dedupSet) add(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

type sourceResult struct {
	items    []events.NewsItem
	rejected int
	err      error
}

// FetchAll fetches every enabled source concurrently. A failing source is logged
// and reported in Result.Errors; it never aborts the cycle.
func (f *Fetcher) FetchAll(ctx context.Context, reg *sources.Registry) Result {
	srcs := reg.Enabled()
	filter := reg.Filter()
	seen := &dedupSet{seen: map[string]struct{}{}}
	results := make([]sourceResult, len(srcs))

	var g errgroup.Group
	for i, src := range srcs {
		g.Go(func() error {
			items, err := f.fetchSource(ctx, src)
			if err != nil {
				results[i].err = &events.SourceUnavailableError{Source: src.Name, Err: err}
				return nil
			}
			for _, it := range items {
				if !filter.Keep(it.Title, it.Body) {
					results[i].rejected++
					continue
				}
				key := CanonicalURL(it.URL)
				if key == "" {
					key = strings.ToLower(strings.TrimSpace(it.Title))
				}
				if !seen.add(key) {
					continue
				}
				results[i].items = append(results[i].items, it)
			}
			return nil
		})
	}
	_ = g.Wait()

	var out Result
	for i, r := range results {
		name := srcs[i].Name
		if r.err != nil {
			f.log.Warn("Feed source unavailable", "source", name, "error", r.err)
			f.metrics.IncFeedError(name)
			out.Errors = append(out.Errors, r.err)
			continue
		}
		f.metrics.AddFeedItems(name, len(r.items))
		out.Items = append(out.Items, r.items...)
		out.Rejected += r.rejected
	}
	f.metrics.AddFeedRejected(out.Rejected)
	f.log.Info("Feed cycle complete",
		"sources", len(srcs),
		"items", len(out.Items),
		"rejected", out.Rejected,
		"failed", len(out.Errors),
	)
	return out
}

func (f *Fetcher) fetchSource(ctx context.Context, src sources.Source) ([]events.NewsItem, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	parser := gofeed.NewParser()
	parser.Client = f.client
	parsed, err := parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", src.URL, err)
	}

	now := f.now()
	out := make([]events.NewsItem, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		title := strings.TrimSpace(stripHTML(item.Title))
		if title == "" {
			continue
		}
		body := item.Description
		if body == "" {
			body = item.Content
		}
		var published *time.Time
		if item.PublishedParsed != nil {
			t := item.PublishedParsed.UTC()
			published = &t
		} else if item.UpdatedParsed != nil {
			t := item.UpdatedParsed.UTC()
			published = &t
		}
		out = append(out, events.NewsItem{
			Title:          title,
			Body:           truncate(stripHTML(body), maxBodyRunes),
			URL:            strings.TrimSpace(item.Link),
			SourceName:     src.Name,
			SourceCategory: src.Category,
			SourceWeight:   src.Weight,
			PublishedAt:    published,
			FetchedAt:      now,
		})
	}
	return out, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
