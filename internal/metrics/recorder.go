package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "roshi"

// Recorder exposes scanner counters on a Prometheus registry.
type Recorder struct {
	registry *prometheus.Registry

	cycles        *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	outcomes      *prometheus.CounterVec
	alerts        *prometheus.CounterVec
	fetchLatency  *prometheus.HistogramVec
	breakerState  *prometheus.GaugeVec
	lastCycle     prometheus.Gauge
}

// NewRecorder registers all collectors on a fresh registry. Go runtime and
// process collectors are included so /metrics is useful on its own.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Recorder{
		registry: reg,
		// Labels: result (completed, skipped)
		cycles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "cycles_total",
			Help:      "Scan cycles by result",
		}, []string{"result"}),
		cycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of a full scan cycle",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120},
		}),
		// Labels: instrument, outcome
		outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "instrument_outcomes_total",
			Help:      "Per-instrument scan outcomes",
		}, []string{"instrument", "outcome"}),
		// Labels: strategy, setup
		alerts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "sent_total",
			Help:      "Alerts delivered to the notifier",
		}, []string{"strategy", "setup"}),
		// Labels: source, status (ok, error)
		fetchLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "fetch_duration_seconds",
			Help:      "Market data fetch latency",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
		}, []string{"source", "status"}),
		// 0 closed, 1 open, 2 half-open
		breakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "breaker_state",
			Help:      "Circuit breaker state per upstream",
		}, []string{"name"}),
		lastCycle: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "last_cycle_timestamp_seconds",
			Help:      "Unix time the last scan cycle finished",
		}),
	}
}

// Registry returns the registry backing this recorder, for promhttp.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) ObserveCycle(skipped bool, took time.Duration, finished time.Time) {
	if r == nil {
		return
	}
	if skipped {
		r.cycles.WithLabelValues("skipped").Inc()
		return
	}
	r.cycles.WithLabelValues("completed").Inc()
	r.cycleDuration.Observe(took.Seconds())
	r.lastCycle.Set(float64(finished.Unix()))
}

func (r *Recorder) ObserveOutcome(instrument, outcome string) {
	if r == nil {
		return
	}
	r.outcomes.WithLabelValues(instrument, outcome).Inc()
}

func (r *Recorder) ObserveAlert(strategy, setup string) {
	if r == nil {
		return
	}
	r.alerts.WithLabelValues(strategy, setup).Inc()
}

func (r *Recorder) ObserveFetch(source string, took time.Duration, err error) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.fetchLatency.WithLabelValues(source, status).Observe(took.Seconds())
}

// SetBreakerState records a breaker state as its numeric value.
func (r *Recorder) SetBreakerState(name string, state int) {
	if r == nil {
		return
	}
	r.breakerState.WithLabelValues(name).Set(float64(state))
}
