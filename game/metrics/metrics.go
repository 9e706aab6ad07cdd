// Package metrics exposes Prometheus counters for scene transitions and day
// outcomes on a dedicated registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "anomalybus"

// Recorder collects game metrics. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	transitions        *prometheus.CounterVec
	ignoredTransitions *prometheus.CounterVec
	dayOutcomes        *prometheus.CounterVec
	accusations        *prometheus.CounterVec
	activeSessions     prometheus.Gauge
}

// New creates a Recorder with its own registry, including Go runtime collectors
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scene_transitions_total",
			Help:      "Scene transitions that ran, by target scene.",
		}, []string{"scene"}),
		ignoredTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ignored_transitions_total",
			Help:      "Triggers dropped because a transition was already in flight, by current scene.",
		}, []string{"scene"}),
		dayOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "day_outcomes_total",
			Help:      "Resolved days by outcome (advance, completed, reset).",
		}, []string{"outcome"}),
		accusations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accusations_total",
			Help:      "Accusations by result (caught, innocent, trust).",
		}, []string{"result"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory.",
		}),
	}

	r.registry.MustRegister(
		r.transitions,
		r.ignoredTransitions,
		r.dayOutcomes,
		r.accusations,
		r.activeSessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry returns the registry the recorder's collectors live on
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) Transition(scene string) {
	if r == nil {
		return
	}
	r.transitions.WithLabelValues(scene).Inc()
}

func (r *Recorder) IgnoredTransition(scene string) {
	if r == nil {
		return
	}
	r.ignoredTransitions.WithLabelValues(scene).Inc()
}

func (r *Recorder) DayOutcome(outcome string) {
	if r == nil {
		return
	}
	r.dayOutcomes.WithLabelValues(outcome).Inc()
}

func (r *Recorder) Accusation(result string) {
	if r == nil {
		return
	}
	r.accusations.WithLabelValues(result).Inc()
}

// SetActiveSessions records the in-memory session count
func (r *Recorder) SetActiveSessions(n int) {
	if r == nil {
		return
	}
	r.activeSessions.Set(float64(n))
}
