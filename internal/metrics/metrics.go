// Package metrics provides application-level metrics collection.
// This is a lightweight metrics foundation using atomic counters.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics holds application metrics using atomic counters for thread safety.
type Metrics struct {
	// Resync metrics
	resyncsTotal      atomic.Int64
	resyncErrors      atomic.Int64
	resyncsSkipped    atomic.Int64
	resyncLatencyNano atomic.Int64

	// Notification metrics
	notificationsSent   atomic.Int64
	notificationsFailed atomic.Int64

	// Store metrics
	dispatchesTotal atomic.Int64
	dispatchErrors  atomic.Int64

	// Transaction metrics
	sendsTotal     atomic.Int64
	sendErrors     atomic.Int64
	feeEstimates   atomic.Int64
	feeEstimateErr atomic.Int64
}

// Global is the global metrics instance.
// Use this for recording metrics throughout the application.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordResync records a completed full resync.
func (m *Metrics) RecordResync(duration time.Duration, err error) {
	m.resyncsTotal.Add(1)
	m.resyncLatencyNano.Add(duration.Nanoseconds())
	if err != nil {
		m.resyncErrors.Add(1)
	}
}

// RecordResyncSkipped records a resync trigger dropped because one was running.
func (m *Metrics) RecordResyncSkipped() {
	m.resyncsSkipped.Add(1)
}

// RecordNotification records a notification attempt.
func (m *Metrics) RecordNotification(err error) {
	if err != nil {
		m.notificationsFailed.Add(1)
		return
	}
	m.notificationsSent.Add(1)
}

// RecordDispatch records a store dispatch.
func (m *Metrics) RecordDispatch(err error) {
	m.dispatchesTotal.Add(1)
	if err != nil {
		m.dispatchErrors.Add(1)
	}
}

// RecordSend records a send transaction attempt.
func (m *Metrics) RecordSend(err error) {
	m.sendsTotal.Add(1)
	if err != nil {
		m.sendErrors.Add(1)
	}
}

// RecordFeeEstimate records a fee estimation.
func (m *Metrics) RecordFeeEstimate(err error) {
	m.feeEstimates.Add(1)
	if err != nil {
		m.feeEstimateErr.Add(1)
	}
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	ResyncsTotal        int64 `json:"resyncs_total"`
	ResyncErrors        int64 `json:"resync_errors"`
	ResyncsSkipped      int64 `json:"resyncs_skipped"`
	ResyncLatencyNanos  int64 `json:"resync_latency_nanos"`
	NotificationsSent   int64 `json:"notifications_sent"`
	NotificationsFailed int64 `json:"notifications_failed"`
	DispatchesTotal     int64 `json:"dispatches_total"`
	DispatchErrors      int64 `json:"dispatch_errors"`
	SendsTotal          int64 `json:"sends_total"`
	SendErrors          int64 `json:"send_errors"`
	FeeEstimates        int64 `json:"fee_estimates"`
	FeeEstimateErrors   int64 `json:"fee_estimate_errors"`
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		ResyncsTotal:        m.resyncsTotal.Load(),
		ResyncErrors:        m.resyncErrors.Load(),
		ResyncsSkipped:      m.resyncsSkipped.Load(),
		ResyncLatencyNanos:  m.resyncLatencyNano.Load(),
		NotificationsSent:   m.notificationsSent.Load(),
		NotificationsFailed: m.notificationsFailed.Load(),
		DispatchesTotal:     m.dispatchesTotal.Load(),
		DispatchErrors:      m.dispatchErrors.Load(),
		SendsTotal:          m.sendsTotal.Load(),
		SendErrors:          m.sendErrors.Load(),
		FeeEstimates:        m.feeEstimates.Load(),
		FeeEstimateErrors:   m.feeEstimateErr.Load(),
	}
}

// ResyncLatencyAvgMs returns the average resync duration in milliseconds.
// Returns 0 if no resync has completed.
func (m *Metrics) ResyncLatencyAvgMs() float64 {
	total := m.resyncsTotal.Load()
	if total == 0 {
		return 0
	}
	return float64(m.resyncLatencyNano.Load()) / float64(total) / 1e6
}

// Reset resets all metrics to zero.
// Useful for testing.
func (m *Metrics) Reset() {
	for _, c := range []*atomic.Int64{
		&m.resyncsTotal, &m.resyncErrors, &m.resyncsSkipped, &m.resyncLatencyNano,
		&m.notificationsSent, &m.notificationsFailed,
		&m.dispatchesTotal, &m.dispatchErrors,
		&m.sendsTotal, &m.sendErrors, &m.feeEstimates, &m.feeEstimateErr,
	} {
		c.Store(0)
	}
}
