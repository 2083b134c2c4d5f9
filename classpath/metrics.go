package classpath

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Load outcomes recorded by Metrics.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Metrics holds the Prometheus collectors for instrumented loaders.
type Metrics struct {
	loads    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "testselect",
			Subsystem: "classpath",
			Name:      "loads_total",
			Help:      "Class load attempts by loader and outcome.",
		}, []string{"loader", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "testselect",
			Subsystem: "classpath",
			Name:      "load_duration_seconds",
			Help:      "Class load latency by loader.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"loader"}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.loads, m.duration} {
			if err := reg.Register(c); err != nil {
				return nil, fmt.Errorf("register classpath metrics: %w", err)
			}
		}
	}
	return m, nil
}

// Loads returns the load counter, labelled by loader and outcome.
func (m *Metrics) Loads() *prometheus.CounterVec { return m.loads }

func (m *Metrics) observe(loader string, start time.Time, err error) {
	outcome := OutcomeFound
	switch {
	case err == nil:
	case errors.Is(err, ErrClassNotFound):
		outcome = OutcomeNotFound
	default:
		outcome = OutcomeError
	}
	m.loads.WithLabelValues(loader, outcome).Inc()
	m.duration.WithLabelValues(loader).Observe(time.Since(start).Seconds())
}

// Instrument wraps l so that every LoadClass call is recorded on m. The
// wrapper keeps l's name and parent.
func Instrument(l ClassLoader, m *Metrics) ClassLoader {
	return &instrumentedLoader{inner: l, metrics: m}
}

type instrumentedLoader struct {
	inner   ClassLoader
	metrics *Metrics
}

func (l *instrumentedLoader) Name() string        { return l.inner.Name() }
func (l *instrumentedLoader) Parent() ClassLoader { return l.inner.Parent() }

func (l *instrumentedLoader) LoadClass(name string) (*Class, error) {
	start := time.Now()
	c, err := l.inner.LoadClass(name)
	l.metrics.observe(l.inner.Name(), start, err)
	return c, err
}
