package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors of the ingestion and analysis pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	fetchDuration   *prometheus.HistogramVec
	fetchTimeouts   *prometheus.CounterVec
	rowsLoaded      *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	analysisRuns    *prometheus.CounterVec
	analysisLatency prometheus.Histogram
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gasinsight_fetch_duration_seconds",
			Help:    "Duration of one (sensor, day) fetch against the telemetry store.",
			Buckets: prometheus.DefBuckets,
		}, []string{"table"}),
		fetchTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gasinsight_fetch_timeouts_total",
			Help: "Fetches that hit the query timeout and were replaced by an empty day.",
		}, []string{"table"}),
		rowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gasinsight_rows_loaded_total",
			Help: "Raw rows loaded per sensor table, from cache or store.",
		}, []string{"table"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gasinsight_cache_hits_total",
			Help: "Cache hits by cache layer.",
		}, []string{"cache"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gasinsight_cache_misses_total",
			Help: "Cache misses by cache layer.",
		}, []string{"cache"}),
		analysisRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gasinsight_analysis_runs_total",
			Help: "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		analysisLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gasinsight_analysis_duration_seconds",
			Help:    "End to end pipeline duration.",
			Buckets: prometheus.DefBuckets,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gasinsight_http_requests_total",
			Help: "HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gasinsight_http_request_duration_seconds",
			Help:    "HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		m.fetchDuration,
		m.fetchTimeouts,
		m.rowsLoaded,
		m.cacheHits,
		m.cacheMisses,
		m.analysisRuns,
		m.analysisLatency,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveFetch(table string, d time.Duration, rows int) {
	if m == nil {
		return
	}
	m.fetchDuration.WithLabelValues(table).Observe(d.Seconds())
	m.rowsLoaded.WithLabelValues(table).Add(float64(rows))
}

// RowsLoaded counts rows served from the file cache. Store fetches are counted by ObserveFetch.
func (m *Metrics) RowsLoaded(table string, rows int) {
	if m == nil {
		return
	}
	m.rowsLoaded.WithLabelValues(table).Add(float64(rows))
}

func (m *Metrics) FetchTimeout(table string) {
	if m == nil {
		return
	}
	m.fetchTimeouts.WithLabelValues(table).Inc()
}

func (m *Metrics) CacheHit(cache string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(cache).Inc()
}

func (m *Metrics) CacheMiss(cache string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(cache).Inc()
}

func (m *Metrics) ObserveAnalysis(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.analysisRuns.WithLabelValues(outcome).Inc()
	m.analysisLatency.Observe(d.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request counts and latencies per matched route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
