// Package metric provides Prometheus metrics for streamcoordd.
//
// It exposes metrics in Prometheus format for monitoring stream cluster
// counts, phase execution, leader elections, membership reconciliation,
// and HTTP request rates/latencies.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every metric streamcoordd exposes.
type Registry struct {
	reg *prometheus.Registry

	// Cluster metrics.
	StreamsActive                 prometheus.Gauge
	PhasesInFlight                *prometheus.GaugeVec
	PhaseRetriesTotal              *prometheus.CounterVec
	ElectionsTotal                 prometheus.Counter
	MembershipReconciliationsTotal prometheus.Counter
	RaftVoters                     prometheus.Gauge

	// HTTP metrics.
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a fresh metrics registry and registers every metric
// with it.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,

		StreamsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "streamcoord",
			Name:      "streams_active",
			Help:      "Number of stream clusters currently known to the coordinator.",
		}),
		PhasesInFlight: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "streamcoord",
			Name:      "phases_in_flight",
			Help:      "Number of phase-executor tasks currently running, by phase name.",
		}, []string{"phase"}),
		PhaseRetriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "streamcoord",
			Name:      "phase_retries_total",
			Help:      "Total number of phase retries, by phase name.",
		}, []string{"phase"}),
		ElectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "streamcoord",
			Name:      "elections_total",
			Help:      "Total number of leader elections started.",
		}),
		MembershipReconciliationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "streamcoord",
			Name:      "membership_reconciliations_total",
			Help:      "Total number of membership reconciler ticks that changed the Raft voter set.",
		}),
		RaftVoters: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "streamcoord",
			Name:      "raft_voters",
			Help:      "Current number of voters in the Raft configuration.",
		}),
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "streamcoord",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests served, by method, path, and status class.",
		}, []string{"method", "path", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "streamcoord",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// Handler returns an HTTP handler serving this registry's metrics in
// Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
