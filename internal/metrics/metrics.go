package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Pipeline metrics
	scansTotal       prometheus.Counter
	scanDuration     prometheus.Histogram
	symbolsScored    *prometheus.CounterVec
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	backtestsTotal   prometheus.Counter
	backtestDuration prometheus.Histogram
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Pipeline metrics
	r.scansTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vcpscan_scans_total",
			Help: "Total number of ranking passes executed",
		},
	)
	r.scanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vcpscan_scan_duration_seconds",
			Help:    "Ranking pass duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)
	r.symbolsScored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vcpscan_symbols_scored_total",
			Help: "Symbols processed by the scanner, by outcome",
		},
		[]string{"outcome"}, // "ranked", "gated", "skipped"
	)
	r.cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vcpscan_cache_hits_total",
			Help: "Run-cache hits",
		},
	)
	r.cacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vcpscan_cache_misses_total",
			Help: "Run-cache misses",
		},
	)
	r.backtestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vcpscan_backtests_total",
			Help: "Total number of backtest runs",
		},
	)
	r.backtestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vcpscan_backtest_duration_seconds",
			Help:    "Backtest run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	reg.MustRegister(r.scansTotal)
	reg.MustRegister(r.scanDuration)
	reg.MustRegister(r.symbolsScored)
	reg.MustRegister(r.cacheHits)
	reg.MustRegister(r.cacheMisses)
	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)

	return r
}

// RecordHTTPRequest records an HTTP request.
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncInFlight increments the in-flight gauge.
func (r *Registry) IncInFlight() { r.httpRequestsInFlight.Inc() }

// DecInFlight decrements the in-flight gauge.
func (r *Registry) DecInFlight() { r.httpRequestsInFlight.Dec() }

// RecordScan records a completed ranking pass.
func (r *Registry) RecordScan(duration time.Duration) {
	r.scansTotal.Inc()
	r.scanDuration.Observe(duration.Seconds())
}

// RecordSymbol records a per-symbol scanner outcome.
func (r *Registry) RecordSymbol(outcome string) {
	r.symbolsScored.WithLabelValues(outcome).Inc()
}

// RecordCache records run-cache totals at the end of a pass.
func (r *Registry) RecordCache(hits, misses int64) {
	r.cacheHits.Add(float64(hits))
	r.cacheMisses.Add(float64(misses))
}

// RecordBacktest records a completed backtest run.
func (r *Registry) RecordBacktest(duration time.Duration) {
	r.backtestsTotal.Inc()
	r.backtestDuration.Observe(duration.Seconds())
}
