package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/sigslot/internal/signal"
)

type trackedSource struct {
	kind string
	src  signal.StatsSource
}

// statsCollector reports the Stats of tracked signals as const metrics.
type statsCollector struct {
	emitted   *prometheus.Desc
	delivered *prometheus.Desc
	dropped   *prometheus.Desc
	panics    *prometheus.Desc
	pending   *prometheus.Desc

	mu      sync.RWMutex
	sources map[string]trackedSource
}

func newStatsCollector(cfg Config) *statsCollector {
	labels := []string{"signal", "kind"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(cfg.Namespace, cfg.Subsystem, name),
			help, labels, cfg.ConstLabels,
		)
	}

	return &statsCollector{
		emitted:   desc("signal_emitted_total", "Emissions accepted by a tracked signal"),
		delivered: desc("signal_delivered_total", "Emissions dispatched to slots"),
		dropped:   desc("signal_dropped_total", "Emissions rejected after close"),
		panics:    desc("signal_panics_total", "Background dispatches where a slot panicked"),
		pending:   desc("signal_pending", "Emissions waiting for delivery"),
		sources:   make(map[string]trackedSource),
	}
}

func (c *statsCollector) add(kind string, src signal.StatsSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[src.Name()] = trackedSource{kind: kind, src: src}
}

func (c *statsCollector) remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sources, name)
}

// Describe implements prometheus.Collector.
func (c *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.emitted
	ch <- c.delivered
	ch <- c.dropped
	ch <- c.panics
	ch <- c.pending
}

// Collect implements prometheus.Collector.
func (c *statsCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for name, t := range c.sources {
		s := t.src.Stats()
		ch <- prometheus.MustNewConstMetric(c.emitted, prometheus.CounterValue, float64(s.Emitted), name, t.kind)
		ch <- prometheus.MustNewConstMetric(c.delivered, prometheus.CounterValue, float64(s.Delivered), name, t.kind)
		ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(s.Dropped), name, t.kind)
		ch <- prometheus.MustNewConstMetric(c.panics, prometheus.CounterValue, float64(s.Panics), name, t.kind)
		ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(s.Pending), name, t.kind)
	}
}
