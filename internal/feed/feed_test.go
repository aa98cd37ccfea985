package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/eventforge/internal/domain/events"
	"github.com/yungbote/eventforge/internal/pkg/logger"
	"github.com/yungbote/eventforge/internal/sources"
)

type rssItem struct {
	title, link, desc string
}

func rssServer(t *testing.T, items ...rssItem) *httptest.Server {
	t.Helper()
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>t</title>`)
	for _, it := range items {
		fmt.Fprintf(&b, `<item><title>%s</title><link>%s</link><description><![CDATA[%s]]></description><pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate></item>`, it.title, it.link, it.desc)
	}
	b.WriteString(`</channel></rss>`)
	body := b.String()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newFetcher() *Fetcher {
	return NewFetcher(logger.Nop(), WithTimeout(2*time.Second))
}

func TestFetchAllDedupsAcrossSources(t *testing.T) {
	a := rssServer(t,
		rssItem{"University cuts research budget", "https://News.Example.com/a/?utm_source=rss", "<p>Details</p>"},
		rssItem{"PhD stipends rise", "https://news.example.com/b", "More"},
	)
	b := rssServer(t,
		rssItem{"University cuts research budget", "https://news.example.com/a#top", "Same story"},
		rssItem{"Celebrity gossip", "https://news.example.com/c", "nothing academic"},
	)
	reg := sources.NewStaticRegistry([]sources.Source{
		{Name: "a", URL: a.URL, Weight: 1.5, Category: events.CategoryProfessional},
		{Name: "b", URL: b.URL, Weight: 1.0, Category: events.CategoryGeneral},
	}, sources.NewFilter([]string{"university", "phd"}, []string{"gossip"}, nil))

	res := newFetcher().FetchAll(context.Background(), reg)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Items) != 2 {
		t.Fatalf("items: want=2 got=%d (%+v)", len(res.Items), res.Items)
	}
	if res.Rejected != 1 {
		t.Fatalf("rejected: want=1 got=%d", res.Rejected)
	}
	seen := map[string]bool{}
	for _, it := range res.Items {
		key := CanonicalURL(it.URL)
		if seen[key] {
			t.Fatalf("duplicate canonical url %q", key)
		}
		seen[key] = true
		if it.PublishedAt == nil {
			t.Fatalf("expected published date on %q", it.Title)
		}
		if strings.Contains(it.Body, "<p>") {
			t.Fatalf("html not stripped: %q", it.Body)
		}
	}
}

func TestFetchAllSkipsFailingSource(t *testing.T) {
	good := rssServer(t, rssItem{"Research grant awarded", "https://example.com/g", "ok"})
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer bad.Close()

	reg := sources.NewStaticRegistry([]sources.Source{
		{Name: "bad", URL: bad.URL, Weight: 1, Category: events.CategoryTech},
		{Name: "good", URL: good.URL, Weight: 1, Category: events.CategoryTech},
	}, sources.NewFilter([]string{"research"}, nil, nil))

	res := newFetcher().FetchAll(context.Background(), reg)
	if len(res.Items) != 1 || res.Items[0].SourceName != "good" {
		t.Fatalf("items: got=%+v", res.Items)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("errors: want=1 got=%d", len(res.Errors))
	}
	var su *events.SourceUnavailableError
	if !errors.As(res.Errors[0], &su) || su.Source != "bad" {
		t.Fatalf("want SourceUnavailableError for bad, got=%v", res.Errors[0])
	}
}

func TestFetchAllSourceTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()
	reg := sources.NewStaticRegistry([]sources.Source{
		{Name: "slow", URL: slow.URL, Weight: 1, Category: events.CategoryTech},
	}, nil)

	start := time.Now()
	res := NewFetcher(logger.Nop(), WithTimeout(50*time.Millisecond)).FetchAll(context.Background(), reg)
	if len(res.Errors) != 1 {
		t.Fatalf("want timeout error, got=%+v", res)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("per-source timeout not honoured")
	}
}

func TestCanonicalURL(t *testing.T) {
	cases := map[string]string{
		"HTTPS://Example.COM/Path/?utm_source=x&id=3#frag": "https://example.com/Path?id=3",
		"https://example.com/a/?fbclid=abc":                "https://example.com/a",
		"not a url":                                        "not a url",
	}
	for in, want := range cases {
		if got := CanonicalURL(in); got != want {
			t.Fatalf("CanonicalURL(%q): want=%q got=%q", in, want, got)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("héllo world", 5); got != "hé..." {
		t.Fatalf("truncate: want=%q got=%q", "hé...", got)
	}
}
