// Package prometheus provides a Prometheus-based stats collector.
package prometheus

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/discochess/blobkeep/internal/stats"
)

// Collector implements stats.Collector using Prometheus metrics.
// Metrics are created and registered on first use.
type Collector struct {
	registry prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

// Compile-time check that Collector implements stats.Collector.
var _ stats.Collector = (*Collector)(nil)

// New creates a new Prometheus collector.
// If registry is nil, prometheus.DefaultRegisterer is used.
func New(registry prometheus.Registerer) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	return &Collector{
		registry:   registry,
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
}

// IncCounter increments a counter metric.
func (c *Collector) IncCounter(name string, delta int64) {
	c.mu.Lock()
	counter := getOrRegister(c.registry, c.counters, name, func() prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: stats.Help(name)})
	})
	c.mu.Unlock()
	counter.Add(float64(delta))
}

// SetGauge sets a gauge metric.
func (c *Collector) SetGauge(name string, value int64) {
	c.mu.Lock()
	gauge := getOrRegister(c.registry, c.gauges, name, func() prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: stats.Help(name)})
	})
	c.mu.Unlock()
	gauge.Set(float64(value))
}

// ObserveHistogram records a value in a histogram.
// Metrics whose name ends in "_bytes" use exponential size buckets.
func (c *Collector) ObserveHistogram(name string, value float64) {
	c.mu.Lock()
	histogram := getOrRegister(c.registry, c.histograms, name, func() prometheus.Histogram {
		buckets := prometheus.DefBuckets
		if strings.HasSuffix(name, "_bytes") {
			buckets = prometheus.ExponentialBuckets(256, 4, 10)
		}
		return prometheus.NewHistogram(prometheus.HistogramOpts{Name: name, Help: stats.Help(name), Buckets: buckets})
	})
	c.mu.Unlock()
	histogram.Observe(value)
}

// getOrRegister returns the cached metric called name, creating and
// registering it on first use. If an equivalent metric is already registered
// elsewhere, that one is reused. Callers must hold the collector lock.
func getOrRegister[M prometheus.Collector](reg prometheus.Registerer, cache map[string]M, name string, create func() M) M {
	if m, ok := cache[name]; ok {
		return m
	}

	m := create()
	if err := reg.Register(m); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(M); ok {
				m = existing
			}
		}
		// Otherwise keep the unregistered metric; it still records values.
	}
	cache[name] = m
	return m
}
