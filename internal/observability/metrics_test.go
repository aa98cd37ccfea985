package observability

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.AddFeedItems("a", 2)
	m.IncFeedError("a")
	m.ObserveLLMRequest("openai", "ok", time.Second)
	m.ObserveJob("cleanup", "ok", time.Second)
	m.SetPoolSize("news", 3)
	if m.Registry() != nil {
		t.Fatalf("nil metrics should expose no registry")
	}
}

func TestMetricsCountAndServe(t *testing.T) {
	m := New()
	m.AddGenerated("news", 3)
	m.AddGenerated("news", 2)
	m.IncSelection("fixed")

	if got := testutil.ToFloat64(m.generated.WithLabelValues("news")); got != 5 {
		t.Fatalf("generated: want=5 got=%v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `eventforge_selections_total{origin="fixed"} 1`) {
		t.Fatalf("selection counter missing from exposition:\n%s", body)
	}
}
