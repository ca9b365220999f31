package metrics

import (
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

	// Backtest metrics
	backtestsTotal     *prometheus.CounterVec
	backtestDuration   prometheus.Histogram
	tradesTotal        *prometheus.CounterVec
	signalsTotal       *prometheus.CounterVec
	returnPct          *prometheus.HistogramVec
	cacheLookups       *prometheus.CounterVec
	snapshotsPublished prometheus.Counter
	jobsActive         *prometheus.GaugeVec
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

	r.backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradebot_backtests_total",
			Help: "Total number of backtests run",
		},
		[]string{"status"},
	)
	r.backtestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tradebot_backtest_duration_seconds",
			Help:    "Backtest duration in seconds, including data fetch",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
	)
	r.tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradebot_trades_total",
			Help: "Simulated trades by action",
		},
		[]string{"action"},
	)
	r.signalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradebot_signals_total",
			Help: "Policy decisions by signal",
		},
		[]string{"signal"},
	)
	r.returnPct = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tradebot_backtest_return_percent",
			Help:    "Total return of completed backtests in percent",
			Buckets: []float64{-50, -20, -10, -5, 0, 5, 10, 20, 50, 100},
		},
		[]string{"strategy"},
	)
	r.cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradebot_history_cache_lookups_total",
			Help: "Historical data lookups by result",
		},
		[]string{"result"},
	)
	r.snapshotsPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tradebot_snapshots_published_total",
			Help: "Snapshots published to the state hub",
		},
	)
	r.jobsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tradebot_jobs_active",
			Help: "Number of active jobs",
		},
		[]string{"type"},
	)

	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)
	reg.MustRegister(r.tradesTotal)
	reg.MustRegister(r.signalsTotal)
	reg.MustRegister(r.returnPct)
	reg.MustRegister(r.cacheLookups)
	reg.MustRegister(r.snapshotsPublished)
	reg.MustRegister(r.jobsActive)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordBacktest records a backtest completion.
func (r *Registry) RecordBacktest(status string, duration float64) {
	r.backtestsTotal.WithLabelValues(status).Inc()
	r.backtestDuration.Observe(duration)
}

// RecordOutcome records what a successful run traded and decided.
func (r *Registry) RecordOutcome(strategy string, returnPct float64, trades, signals map[string]int) {
	r.returnPct.WithLabelValues(strategy).Observe(returnPct)
	for action, n := range trades {
		r.tradesTotal.WithLabelValues(action).Add(float64(n))
	}
	for signal, n := range signals {
		r.signalsTotal.WithLabelValues(signal).Add(float64(n))
	}
}

// RecordCacheLookup counts a history lookup as "hit" or "miss".
func (r *Registry) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// RecordSnapshot counts a published snapshot.
func (r *Registry) RecordSnapshot() {
	r.snapshotsPublished.Inc()
}

// SetJobsActive sets the number of active jobs of a type.
func (r *Registry) SetJobsActive(jobType string, count int) {
	r.jobsActive.WithLabelValues(jobType).Set(float64(count))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
