// Package metrics provides Prometheus metrics for tmplledger.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Metrics holds the ledger's Prometheus collectors.
type Metrics struct {
	// Storage
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec
	StoreRecordsTotal      *prometheus.CounterVec

	// Workflows
	WritesTotal *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers every collector on reg.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{gatherer: reg}

	m.StoreOperationsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmplledger_store_operations_total",
			Help: "Total number of storage operations",
		},
		[]string{"operation", "status"},
	)

	m.StoreOperationDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tmplledger_store_operation_duration_seconds",
			Help:    "Duration of storage operations in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"operation"},
	)

	m.StoreRecordsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmplledger_store_records_total",
			Help: "Records read, updated or deleted by storage operations",
		},
		[]string{"operation"},
	)

	m.WritesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmplledger_writes_total",
			Help: "Create and Update calls by outcome",
		},
		[]string{"operation", "outcome"},
	)

	return m
}

// RecordStoreOperation records a storage operation.
func (m *Metrics) RecordStoreOperation(operation string, duration time.Duration, count int64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.StoreOperationsTotal.WithLabelValues(operation, status).Inc()
	m.StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if count > 0 {
		m.StoreRecordsTotal.WithLabelValues(operation).Add(float64(count))
	}
}

// RecordWrite records the outcome of a Create or Update.
func (m *Metrics) RecordWrite(operation, outcome string) {
	m.WritesTotal.WithLabelValues(operation, outcome).Inc()
}

// Dump writes every gathered metric family in the text exposition format.
func (m *Metrics) Dump(w io.Writer) error {
	families, err := m.gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
