package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "multibot"

// Metrics groups the bot's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	gateDecisions      *prometheus.CounterVec
	handlerDuration    *prometheus.HistogramVec
	banLookupFailures  prometheus.Counter
	interactionsFailed prometheus.Counter
	inFlight           prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		gateDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gate_decisions_total",
				Help:      "Gate stage decisions by stage and outcome",
			},
			[]string{"stage", "outcome"},
		),
		handlerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "handler_duration_seconds",
				Help:      "Time spent in route handlers",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "status"},
		),
		banLookupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ban_lookup_failures_total",
			Help:      "Ban lookups that failed and were admitted",
		}),
		interactionsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interaction_log_failures_total",
			Help:      "Interaction log writes that failed",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "events_in_flight",
			Help:      "Events currently being processed",
		}),
	}
	m.registry.MustRegister(
		m.gateDecisions,
		m.handlerDuration,
		m.banLookupFailures,
		m.interactionsFailed,
		m.inFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) GateDecision(stage, outcome string) {
	if m == nil {
		return
	}
	m.gateDecisions.WithLabelValues(stage, outcome).Inc()
}

// StartHandler returns a function recording the handler duration with its final status.
func (m *Metrics) StartHandler(route string) func(status string) {
	if m == nil {
		return func(string) {}
	}
	start := time.Now()
	return func(status string) {
		m.handlerDuration.WithLabelValues(route, status).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) BanLookupFailed() {
	if m == nil {
		return
	}
	m.banLookupFailures.Inc()
}

func (m *Metrics) InteractionLogFailed() {
	if m == nil {
		return
	}
	m.interactionsFailed.Inc()
}

func (m *Metrics) EventStarted() func() {
	if m == nil {
		return func() {}
	}
	m.inFlight.Inc()
	return m.inFlight.Dec
}
