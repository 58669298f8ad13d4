// Package metrics holds the prometheus instrumentation for the system
// profile ingestion pipeline. Metric names mirror the external monitoring
// contract of the inventory service.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Ingestion counts ingested system profile messages and times the two
// expensive phases of processing. All methods tolerate a nil receiver so a
// failure to build or register metrics can never abort message processing.
type Ingestion struct {
	processed           prometheus.Counter
	failed              prometheus.Counter
	deserializationTime prometheus.Histogram
	commitTime          prometheus.Histogram
}

// NewIngestion builds the ingestion collectors and registers them with reg.
// Collectors already present in the registry are reused instead of failing.
func NewIngestion(reg prometheus.Registerer) *Ingestion {
	m := &Ingestion{
		processed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inventory_system_profile_commit_total",
			Help: "Number of system profile messages committed.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inventory_system_profile_failure_total",
			Help: "Number of system profile messages dropped due to an error.",
		}),
		deserializationTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "inventory_system_profile_deserialization_seconds",
			Help: "Time spent decoding an inbound system profile message.",
		}),
		commitTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "inventory_system_profile_commit_processing_seconds",
			Help: "Time spent handling and committing a system profile message.",
		}),
	}

	if reg != nil {
		m.processed = registerCounter(reg, m.processed)
		m.failed = registerCounter(reg, m.failed)
		m.deserializationTime = registerHistogram(reg, m.deserializationTime)
		m.commitTime = registerHistogram(reg, m.commitTime)
	}

	return m
}

// IncProcessed records one successfully committed message.
func (m *Ingestion) IncProcessed() {
	if m == nil {
		return
	}
	m.processed.Inc()
}

// IncFailed records one dropped message.
func (m *Ingestion) IncFailed() {
	if m == nil {
		return
	}
	m.failed.Inc()
}

// ObserveDeserialization records the time taken to decode one message.
func (m *Ingestion) ObserveDeserialization(d time.Duration) {
	if m == nil {
		return
	}
	m.deserializationTime.Observe(d.Seconds())
}

// ObserveCommit records the time taken to handle one message.
func (m *Ingestion) ObserveCommit(d time.Duration) {
	if m == nil {
		return
	}
	m.commitTime.Observe(d.Seconds())
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter) prometheus.Counter {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing
			}
		}
	}
	return c
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram) prometheus.Histogram {
	if err := reg.Register(h); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing
			}
		}
	}
	return h
}
