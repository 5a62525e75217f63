package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/klabast/wb-services/treatment-calendar/internal/program"
)

const metricsNamespace = "treatment_calendar"

// Submission outcomes
const (
	SubmissionAccepted = "accepted"
	SubmissionRejected = "rejected"
	SubmissionFailed   = "error"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	gatherer prometheus.Gatherer

	Submissions      *prometheus.CounterVec
	ResolutionPasses prometheus.Counter
	RolledOver       prometheus.Counter
	Unplaced         prometheus.Gauge
	Subscribers      prometheus.Gauge
	Dropped          prometheus.Counter
	RateLimited      prometheus.Counter
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		gatherer: reg,
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "submissions_total",
			Help:      "Program submissions by outcome.",
		}, []string{"result"}),
		ResolutionPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "resolution_passes_total",
			Help:      "Month resolution passes run.",
		}),
		RolledOver: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rolled_over_activities_total",
			Help:      "Backlog activities placed on a future day.",
		}),
		Unplaced: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "unplaced_backlog_activities",
			Help:      "Backlog activities left without a day in the last pass.",
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "event_subscribers",
			Help:      "Connected server-sent event clients.",
		}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "event_subscribers_dropped_total",
			Help:      "Event clients dropped for falling behind.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}
	reg.MustRegister(
		m.Submissions,
		m.ResolutionPasses,
		m.RolledOver,
		m.Unplaced,
		m.Subscribers,
		m.Dropped,
		m.RateLimited,
		collectors.NewGoCollector(),
	)
	return m
}

// ObservePass records the outcome of one resolution pass.
func (m *Metrics) ObservePass(view *program.MonthView) {
	m.ResolutionPasses.Inc()
	m.RolledOver.Add(float64(view.Stats.RolledOver))
	m.Unplaced.Set(float64(view.Stats.Unplaced))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
