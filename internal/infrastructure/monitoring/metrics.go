package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "webclient"

// Call outcomes used as the "outcome" label.
const (
	OutcomeOK = "ok"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Call metrics
	CallsTotal    *prometheus.CounterVec
	CallDuration  *prometheus.HistogramVec
	AttemptsTotal *prometheus.CounterVec
	RetriesTotal  *prometheus.CounterVec
	RequestSize   *prometheus.HistogramVec

	// Queue metrics
	QueueWait prometheus.Histogram

	// Served metrics, recorded by Middleware
	ServedTotal    *prometheus.CounterVec
	ServedDuration *prometheus.HistogramVec

	factory  promauto.Factory
	gatherer prometheus.Gatherer

	// Snapshot for Stats - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values
type MetricsSnapshot struct {
	TotalCalls    int64
	TotalErrors   int64
	TotalAttempts int64
	TotalRetries  int64
	TotalDuration float64 // sum of all call durations
}

// AverageDuration returns the mean call duration.
func (s MetricsSnapshot) AverageDuration() time.Duration {
	if s.TotalCalls == 0 {
		return 0
	}
	return time.Duration(s.TotalDuration / float64(s.TotalCalls) * float64(time.Second))
}

// NewMetrics creates a metrics collector registered with reg. A nil reg
// gets a private registry, so several clients in one process never collide
// on the global default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	var gatherer prometheus.Gatherer
	if reg == nil {
		r := prometheus.NewRegistry()
		reg, gatherer = r, r
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	f := promauto.With(reg)
	m := &Metrics{
		factory:  f,
		gatherer: gatherer,

		CallsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "calls_total",
				Help:      "Total number of API calls by outcome",
			},
			[]string{"method", "outcome"},
		),
		CallDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "call_duration_seconds",
				Help:      "API call duration in seconds, including retries and queueing",
				Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300},
			},
			[]string{"method"},
		),
		AttemptsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "attempts_total",
				Help:      "Total number of HTTP attempts",
			},
			[]string{"method"},
		),
		RetriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "retries_total",
				Help:      "Total number of retries by triggering error code",
			},
			[]string{"method", "code"},
		),
		RequestSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "request_size_bytes",
				Help:      "Request body size in bytes",
				Buckets:   []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method"},
		),
		QueueWait: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "queue_wait_seconds",
				Help:      "Time calls spent waiting for a concurrency slot",
				Buckets:   []float64{0, .001, .01, .1, .5, 1, 5, 30},
			},
		),
		ServedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "served_requests_total",
				Help:      "Total number of HTTP requests served",
			},
			[]string{"method", "path", "status"},
		),
		ServedDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "served_request_duration_seconds",
				Help:      "Served HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
	}

	return m
}

// ObserveQueue registers gauges that read in-flight and queued counts on
// every scrape. Call it once per Metrics.
func (m *Metrics) ObserveQueue(inFlight, queued func() int) {
	m.factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "calls_in_flight",
			Help:      "Number of calls holding a concurrency slot",
		},
		func() float64 { return float64(inFlight()) },
	)
	m.factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "calls_queued",
			Help:      "Number of calls waiting for a concurrency slot",
		},
		func() float64 { return float64(queued()) },
	)
}

// ObserveBreaker registers a gauge reading the circuit state on every
// scrape: 0 closed, 1 half-open, 2 open.
func (m *Metrics) ObserveBreaker(state func() int) {
	m.factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		func() float64 { return float64(state()) },
	)
}

// ObserveDroppedSpans registers a counter reading how many trace spans were
// lost to a full buffer.
func (m *Metrics) ObserveDroppedSpans(dropped func() uint64) {
	m.factory.NewCounterFunc(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "spans_dropped_total",
			Help:      "Trace spans dropped because the span buffer was full",
		},
		func() float64 { return float64(dropped()) },
	)
}

// Gatherer returns the registry metrics were registered with, or nil when
// the Registerer given to NewMetrics cannot gather.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.gatherer
}

// RecordCall records a finished call. outcome is OutcomeOK or an error code.
func (m *Metrics) RecordCall(method, outcome string, duration time.Duration) {
	m.CallsTotal.WithLabelValues(method, outcome).Inc()
	m.CallDuration.WithLabelValues(method).Observe(duration.Seconds())

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalCalls++
	m.snapshot.TotalDuration += duration.Seconds()
	if outcome != OutcomeOK {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordAttempt records one HTTP attempt and its request body size.
func (m *Metrics) RecordAttempt(method string, size int) {
	m.AttemptsTotal.WithLabelValues(method).Inc()
	m.RequestSize.WithLabelValues(method).Observe(float64(size))

	m.mu.Lock()
	m.snapshot.TotalAttempts++
	m.mu.Unlock()
}

// RecordRetry records a retry triggered by an error with the given code.
func (m *Metrics) RecordRetry(method, code string) {
	m.RetriesTotal.WithLabelValues(method, code).Inc()

	m.mu.Lock()
	m.snapshot.TotalRetries++
	m.mu.Unlock()
}

// RecordQueueWait records how long a call waited for admission.
func (m *Metrics) RecordQueueWait(wait time.Duration) {
	m.QueueWait.Observe(wait.Seconds())
}

// RecordServed records an HTTP request handled by a server.
func (m *Metrics) RecordServed(method, path, status string, duration time.Duration) {
	m.ServedTotal.WithLabelValues(method, path, status).Inc()
	m.ServedDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
