package observability

import (
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/eventforge/internal/pkg/logger"
)

// Metrics holds every collector the pipeline reports. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests    *prometheus.CounterVec
	apiLatency     *prometheus.HistogramVec
	feedItems      *prometheus.CounterVec
	feedErrors     *prometheus.CounterVec
	feedRejected   prometheus.Counter
	llmRequests    *prometheus.CounterVec
	llmLatency     *prometheus.HistogramVec
	llmCache       *prometheus.CounterVec
	generated      *prometheus.CounterVec
	skipped        *prometheus.CounterVec
	selections     *prometheus.CounterVec
	fallbacks      *prometheus.CounterVec
	usageRecorded  prometheus.Counter
	cleanupDeleted prometheus.Counter
	jobRuns        *prometheus.CounterVec
	jobLatency     *prometheus.HistogramVec
	poolSize       *prometheus.GaugeVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func Current() *Metrics {
	return instance
}

// Init builds the process-wide metrics once. It returns nil when METRICS_ENABLED is off.
func Init(log *logger.Logger) *Metrics {
	initOnce.Do(func() {
		if !Enabled() {
			return
		}
		instance = New()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

// New returns a Metrics on its own registry. Tests use it directly.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventforge_api_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eventforge_api_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		feedItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventforge_feed_items_total",
			Help: "News items accepted per source.",
		}, []string{"source"}),
		feedErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventforge_feed_errors_total",
			Help: "Failed source fetches.",
		}, []string{"source"}),
		feedRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eventforge_feed_rejected_total",
			Help: "News items dropped by the keyword filter.",
		}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventforge_llm_requests_total",
			Help: "Model calls by provider and outcome.",
		}, []string{"provider", "status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eventforge_llm_request_duration_seconds",
			Help:    "Model call latency.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}, []string{"provider"}),
		llmCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventforge_llm_cache_total",
			Help: "Response cache lookups by result.",
		}, []string{"result"}),
		generated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventforge_events_generated_total",
			Help: "Events produced by origin.",
		}, []string{"origin"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventforge_events_skipped_total",
			Help: "Items skipped during generation by reason.",
		}, []string{"reason"}),
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventforge_selections_total",
			Help: "Events served to gameplay by origin.",
		}, []string{"origin"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventforge_fallbacks_total",
			Help: "Static fallbacks served by kind.",
		}, []string{"kind"}),
		usageRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eventforge_usage_recorded_total",
			Help: "Recorded event usages.",
		}),
		cleanupDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eventforge_cleanup_deleted_total",
			Help: "Events removed by cleanup.",
		}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventforge_job_runs_total",
			Help: "Scheduler job runs by job and outcome.",
		}, []string{"job", "status"}),
		jobLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eventforge_job_duration_seconds",
			Help:    "Scheduler job duration.",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 1800, 3600},
		}, []string{"job"}),
		poolSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eventforge_pool_events",
			Help: "Stored events by origin after the last pipeline run.",
		}, []string{"origin"}),
	}
	reg.MustRegister(
		m.apiRequests, m.apiLatency,
		m.feedItems, m.feedErrors, m.feedRejected,
		m.llmRequests, m.llmLatency, m.llmCache,
		m.generated, m.skipped,
		m.selections, m.fallbacks, m.usageRecorded, m.cleanupDeleted,
		m.jobRuns, m.jobLatency, m.poolSize,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) AddFeedItems(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.feedItems.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) IncFeedError(source string) {
	if m == nil {
		return
	}
	m.feedErrors.WithLabelValues(source).Inc()
}

func (m *Metrics) AddFeedRejected(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.feedRejected.Add(float64(n))
}

func (m *Metrics) ObserveLLMRequest(provider, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.llmRequests.WithLabelValues(provider, status).Inc()
	m.llmLatency.WithLabelValues(provider).Observe(dur.Seconds())
}

func (m *Metrics) IncLLMCache(result string) {
	if m == nil {
		return
	}
	m.llmCache.WithLabelValues(result).Inc()
}

func (m *Metrics) AddGenerated(origin string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.generated.WithLabelValues(origin).Add(float64(n))
}

func (m *Metrics) AddSkipped(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.skipped.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) IncSelection(origin string) {
	if m == nil {
		return
	}
	m.selections.WithLabelValues(origin).Inc()
}

func (m *Metrics) IncFallback(kind string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncUsageRecorded() {
	if m == nil {
		return
	}
	m.usageRecorded.Inc()
}

func (m *Metrics) AddCleanupDeleted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.cleanupDeleted.Add(float64(n))
}

func (m *Metrics) ObserveJob(job, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, status).Inc()
	m.jobLatency.WithLabelValues(job).Observe(dur.Seconds())
}

func (m *Metrics) SetPoolSize(origin string, n int64) {
	if m == nil {
		return
	}
	m.poolSize.WithLabelValues(origin).Set(float64(n))
}
