// Package metrics holds the Prometheus instruments of the nexus client.
//
// A CLI process is short-lived, so nothing is scraped; `nexus --metrics`
// dumps the registry in text exposition format to stderr when the command
// finishes:
//
//	nexus --metrics orders list
package metrics

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

var (
	// RequestDuration tracks backend round-trip latency by method, endpoint
	// and status. Status is "error" when no response was received.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nexus",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Duration of backend API requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nexus",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total number of backend API requests.",
		},
		[]string{"method", "endpoint", "status"},
	)

	// PersistFailures counts state store failures the stores absorbed.
	PersistFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nexus",
			Subsystem: "state",
			Name:      "persist_failures_total",
			Help:      "State store reads/writes that failed and were ignored.",
		},
		[]string{"store", "op"},
	)

	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nexus",
			Subsystem: "ui",
			Name:      "notifications_total",
			Help:      "Notifications shown to the user, by variant.",
		},
		[]string{"variant"},
	)
)

// DefaultRegistry is the registry every nexus instrument is registered on.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		RequestDuration,
		RequestTotal,
		PersistFailures,
		Notifications,
	)
}

// ObserveRequest records one backend round trip. Pass status 0 for a
// transport failure.
func ObserveRequest(method, endpoint string, status int, start time.Time) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	RequestDuration.WithLabelValues(method, endpoint, label).Observe(time.Since(start).Seconds())
	RequestTotal.WithLabelValues(method, endpoint, label).Inc()
}

// PersistFailed records an absorbed state store failure.
func PersistFailed(store, op string) {
	PersistFailures.WithLabelValues(store, op).Inc()
}

// WriteText dumps every metric family in the Prometheus text format.
func WriteText(w io.Writer) error {
	families, err := DefaultRegistry.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gather: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("metrics: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
