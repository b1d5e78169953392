// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics exposes Prometheus instrumentation for the tally service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/election-tally/tally"
)

// Outcome label for a submission that was accepted
const OutcomeAccepted = "accepted"

// Metrics holds the service's collectors on a private registry so that
// several instances (one per test) never collide.
type Metrics struct {
	registry *prometheus.Registry

	submissions    *prometheus.CounterVec
	submitLatency  *prometheus.HistogramVec
	electionsEnded prometheus.Counter
	seats          *prometheus.GaugeVec
	endedEvents    prometheus.Counter
	sessionsOpen   prometheus.Gauge
}

// New creates the collectors and registers them, along with the Go runtime
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		submissions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_state_submissions_total",
				Help: "State result submissions by outcome.",
			},
			[]string{"outcome"},
		),
		submitLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tally_operation_duration_seconds",
				Help:    "Duration of tally operations including the ledger write.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		electionsEnded: f.NewCounter(prometheus.CounterOpts{
			Name: "tally_elections_ended_total",
			Help: "Elections closed through this process.",
		}),
		seats: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tally_seats",
				Help: "Current seat total per election and candidate.",
			},
			[]string{"election_id", "candidate"},
		),
		endedEvents: f.NewCounter(prometheus.CounterOpts{
			Name: "tally_ended_events_total",
			Help: "Election ended events delivered to sessions.",
		}),
		sessionsOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "tally_sessions_open",
			Help: "Election sessions currently held in memory.",
		}),
	}
}

// RecordSubmission counts one submission. err nil means accepted.
func (m *Metrics) RecordSubmission(err error, d time.Duration) {
	outcome := OutcomeAccepted
	if err != nil {
		outcome = tally.Code(err)
		if outcome == "" {
			outcome = "error"
		}
	}
	m.submissions.WithLabelValues(outcome).Inc()
	m.submitLatency.WithLabelValues("submit").Observe(d.Seconds())
}

// RecordEnd counts a successful election close
func (m *Metrics) RecordEnd(d time.Duration) {
	m.electionsEnded.Inc()
	m.submitLatency.WithLabelValues("end").Observe(d.Seconds())
}

// RecordEndedEvent counts an ended event received by a session
func (m *Metrics) RecordEndedEvent() {
	m.endedEvents.Inc()
}

// SetSeats publishes the current totals for an election
func (m *Metrics) SetSeats(electionID string, snap tally.Snapshot) {
	m.seats.WithLabelValues(electionID, tally.CandidateA.String()).Set(float64(snap.SeatsA))
	m.seats.WithLabelValues(electionID, tally.CandidateB.String()).Set(float64(snap.SeatsB))
}

// SessionOpened and SessionClosed track the registry size
func (m *Metrics) SessionOpened() { m.sessionsOpen.Inc() }
func (m *Metrics) SessionClosed() { m.sessionsOpen.Dec() }

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
