// Package metrics exposes signal dispatch statistics to Prometheus.
//
// A Recorder does two things. As a dispatch.Observer it counts background
// dispatches and times them. As a collector it polls tracked decorators
// (throttled, threaded and timer signals) for their Stats on every scrape.
//
// Metrics exported (with the default namespace):
//   - sigslot_dispatches_total: background dispatches by signal and outcome
//   - sigslot_dispatch_duration_seconds: background dispatch duration
//   - sigslot_signal_emitted_total: accepted emissions of tracked signals
//   - sigslot_signal_delivered_total: emissions dispatched to slots
//   - sigslot_signal_dropped_total: emissions rejected after close
//   - sigslot_signal_panics_total: background dispatches where a slot panicked
//   - sigslot_signal_pending: emissions waiting for delivery
//
// Example:
//
//	rec := metrics.New(metrics.WithRegistry(reg))
//	th := signal.NewThreaded[string](sig, signal.WithObserver(rec.Observe))
//	rec.Track("threaded", th)
//	http.Handle("/metrics", rec.Handler())
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dshills/sigslot/internal/signal"
	"github.com/dshills/sigslot/internal/signal/dispatch"
)

// Config configures a Recorder.
type Config struct {
	// Namespace is the metrics namespace (default: "sigslot").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for dispatch duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registerer to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer

	// Gatherer is what Handler serves.
	// Default: prometheus.DefaultGatherer
	Gatherer prometheus.Gatherer
}

// Option configures a Recorder.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry registers with and serves from reg.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(c *Config) {
		c.Registry = reg
		c.Gatherer = reg
	}
}

// defaultConfig returns the default metrics configuration.
func defaultConfig() Config {
	return Config{
		Namespace: "sigslot",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
		Gatherer:  prometheus.DefaultGatherer,
	}
}

// Recorder collects dispatch metrics.
type Recorder struct {
	dispatches *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	stats      *statsCollector
	gatherer   prometheus.Gatherer
}

// New creates a Recorder and registers its metrics.
// It panics if the metrics are already registered, like promauto.
func New(opts ...Option) *Recorder {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	factory := promauto.With(cfg.Registry)

	r := &Recorder{
		dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "dispatches_total",
			Help:        "Total number of background signal dispatches",
			ConstLabels: cfg.ConstLabels,
		}, []string{"signal", "outcome"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "dispatch_duration_seconds",
			Help:        "Background signal dispatch duration in seconds",
			ConstLabels: cfg.ConstLabels,
			Buckets:     cfg.Buckets,
		}, []string{"signal"}),

		stats:    newStatsCollector(cfg),
		gatherer: cfg.Gatherer,
	}

	cfg.Registry.MustRegister(r.stats)
	return r
}

// Observe records one dispatch result. It has the dispatch.Observer
// signature.
func (r *Recorder) Observe(result dispatch.Result) {
	outcome := "ok"
	if result.Panicked {
		outcome = "panic"
	}
	r.dispatches.WithLabelValues(result.Signal, outcome).Inc()
	r.duration.WithLabelValues(result.Signal).Observe(result.Duration.Seconds())
}

// Track polls src for statistics on every scrape, labelled with its name
// and kind. Tracking a name again replaces the earlier source.
func (r *Recorder) Track(kind string, src signal.StatsSource) {
	r.stats.add(kind, src)
}

// Untrack stops polling the source with the given name.
func (r *Recorder) Untrack(name string) {
	r.stats.remove(name)
}

// Handler returns the HTTP handler serving the gathered metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
