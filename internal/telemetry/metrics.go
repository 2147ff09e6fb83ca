// ABOUTME: Prometheus sink counting events by kind and domain.
// ABOUTME: Uses its own registry so diagnostics can gather without global state.
package telemetry

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is a Sink backed by prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
	persist  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fitlog",
			Subsystem: "store",
			Name:      "events_total",
			Help:      "Telemetry events emitted by the store, labeled by kind and domain.",
		}, []string{"kind", "domain"}),
		persist: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fitlog",
			Subsystem: "store",
			Name:      "persist_duration_seconds",
			Help:      "Time spent writing a document to disk.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"domain"}),
	}
	m.registry.MustRegister(m.events, m.persist)
	return m
}

// Emit counts e and records persist latency.
func (m *Metrics) Emit(e Event) {
	m.events.WithLabelValues(string(e.Kind), e.Domain).Inc()
	if e.Kind == KindPersisted && e.Duration > 0 {
		m.persist.WithLabelValues(e.Domain).Observe(e.Duration.Seconds())
	}
}

// Counter returns the collector for one kind/domain pair.
func (m *Metrics) Counter(kind Kind, domain string) prometheus.Counter {
	return m.events.WithLabelValues(string(kind), domain)
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteText prints every counter and histogram count as "name{labels} value" lines.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			var labels []string
			for _, lp := range metric.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			sort.Strings(labels)
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			switch {
			case metric.GetCounter() != nil:
				_, err = fmt.Fprintf(w, "%s %g\n", name, metric.GetCounter().GetValue())
			case metric.GetHistogram() != nil:
				h := metric.GetHistogram()
				_, err = fmt.Fprintf(w, "%s count=%d sum=%g\n", name, h.GetSampleCount(), h.GetSampleSum())
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}
