// Package metrics exposes Prometheus collectors for circulation events and
// RPC traffic.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/mmynk/shelfkeeper/internal/circulation"
	"github.com/mmynk/shelfkeeper/internal/models"
)

const namespace = "shelfkeeper"

var _ circulation.Observer = (*Metrics)(nil)

// Metrics owns a private registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	checkouts   prometheus.Counter
	checkins    *prometheus.CounterVec
	renewals    prometheus.Counter
	lost        prometheus.Counter
	fines       *prometheus.CounterVec
	fineAmounts *prometheus.CounterVec
	settled     *prometheus.CounterVec

	sweeps            prometheus.Counter
	sweepTransitioned prometheus.Counter
	sweepSkipped      prometheus.Counter

	rpcRequests *prometheus.CounterVec
	rpcDuration *prometheus.HistogramVec
}

// New creates and registers every collector, plus the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		checkouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "circulation", Name: "checkouts_total",
			Help: "Copies checked out.",
		}),
		checkins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "circulation", Name: "checkins_total",
			Help: "Copies checked in, by whether the return was late.",
		}, []string{"late"}),
		renewals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "circulation", Name: "renewals_total",
			Help: "Loans renewed.",
		}),
		lost: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "circulation", Name: "lost_total",
			Help: "Loans closed as lost.",
		}),
		fines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "fines", Name: "assessed_total",
			Help: "Fines assessed, by type.",
		}, []string{"type"}),
		fineAmounts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "fines", Name: "assessed_amount_total",
			Help: "Sum of assessed fine amounts, by type.",
		}, []string{"type"}),
		settled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "fines", Name: "settled_total",
			Help: "Fine status changes, by new status.",
		}, []string{"status"}),
		sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sweep", Name: "runs_total",
			Help: "Overdue sweeps run.",
		}),
		sweepTransitioned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sweep", Name: "transitioned_total",
			Help: "Loans flagged overdue by the sweep.",
		}),
		sweepSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sweep", Name: "skipped_total",
			Help: "Sweep candidates that did not transition.",
		}),
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "rpc", Name: "requests_total",
			Help: "RPC calls, by procedure and result code.",
		}, []string{"procedure", "code"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "rpc", Name: "duration_seconds",
			Help:    "RPC latency, by procedure.",
			Buckets: prometheus.DefBuckets,
		}, []string{"procedure"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.checkouts, m.checkins, m.renewals, m.lost,
		m.fines, m.fineAmounts, m.settled,
		m.sweeps, m.sweepTransitioned, m.sweepSkipped,
		m.rpcRequests, m.rpcDuration,
	)
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) CheckedOut() { m.checkouts.Inc() }

func (m *Metrics) CheckedIn(overdueDays int) {
	late := "false"
	if overdueDays > 0 {
		late = "true"
	}
	m.checkins.WithLabelValues(late).Inc()
}

func (m *Metrics) Renewed() { m.renewals.Inc() }
func (m *Metrics) MarkedLost() { m.lost.Inc() }

func (m *Metrics) FineAssessed(fineType models.FineType, amount decimal.Decimal) {
	m.fines.WithLabelValues(string(fineType)).Inc()
	m.fineAmounts.WithLabelValues(string(fineType)).Add(amount.InexactFloat64())
}

func (m *Metrics) FineSettled(status models.FineStatus) {
	m.settled.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) Swept(transitioned, skipped int) {
	m.sweeps.Inc()
	m.sweepTransitioned.Add(float64(transitioned))
	m.sweepSkipped.Add(float64(skipped))
}

// ObserveRPC records one finished RPC.
func (m *Metrics) ObserveRPC(procedure, code string, elapsed time.Duration) {
	m.rpcRequests.WithLabelValues(procedure, code).Inc()
	m.rpcDuration.WithLabelValues(procedure).Observe(elapsed.Seconds())
}
