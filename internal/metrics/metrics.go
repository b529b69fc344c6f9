// Package metrics owns the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "trackly"

type Metrics struct {
	// Request path.
	IssuesTotal     *prometheus.CounterVec
	LoginsTotal     *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Current issue distribution, refreshed by every aggregation pass.
	AllIssues *prometheus.GaugeVec

	// Event fan-out.
	StreamSubscribers  prometheus.Gauge
	EventsPublished    *prometheus.CounterVec
	SubscribersDropped prometheus.Counter
	RelayOverflow      *prometheus.CounterVec
	ExportFailures     prometheus.Counter

	// Aggregation scheduler.
	AggregationRuns     *prometheus.CounterVec
	AggregationDuration prometheus.Histogram
	SchedulerSkipped    prometheus.Counter
}

// New registers every collector on reg. Use a fresh prometheus.NewRegistry()
// per test to avoid duplicate registration panics.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		IssuesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "issues_total",
			Help:      "Issues created, by severity and creator role.",
		}, []string{"severity", "user_role"}),
		LoginsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"status", "method"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "endpoint", "status_code"}),
		AllIssues: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "all_issues",
			Help:      "Issues per severity as of the latest aggregation.",
		}, []string{"severity"}),
		StreamSubscribers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_subscribers",
			Help:      "Currently registered event stream subscribers.",
		}),
		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Issue events handed to the broadcaster.",
		}, []string{"type"}),
		SubscribersDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_subscribers_dropped_total",
			Help:      "Subscribers removed because their queue could not accept an event.",
		}),
		RelayOverflow: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_relay_overflow_total",
			Help:      "Events discarded because a relay mailbox was full.",
		}, []string{"stage"}),
		ExportFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_export_failures_total",
			Help:      "Issue events that could not be exported to the broker.",
		}),
		AggregationRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregation_runs_total",
			Help:      "Daily statistics aggregation passes.",
		}, []string{"trigger", "outcome"}),
		AggregationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_duration_seconds",
			Help:      "Duration of successful aggregation passes.",
			Buckets:   prometheus.DefBuckets,
		}),
		SchedulerSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_skipped_fires_total",
			Help:      "Scheduled fires coalesced because a pass was still running.",
		}),
	}
}
