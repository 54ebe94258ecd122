package subscription

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the broker's Prometheus collectors.
type Metrics struct {
	EventsTotal         *prometheus.CounterVec
	DeliveriesTotal     *prometheus.CounterVec
	EvaluationErrors    *prometheus.CounterVec
	RejectedTotal       *prometheus.CounterVec
	ActiveSubscriptions prometheus.Gauge
	QueueDepth          prometheus.Gauge
	EvaluationDuration  prometheus.Histogram
}

// NewMetrics registers the broker collectors with reg. A nil reg uses the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		EventsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "schemaforge",
				Subsystem: "broker",
				Name:      "events_total",
				Help:      "Change events accepted by the broker",
			},
			[]string{"entity", "op"},
		),
		DeliveriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "schemaforge",
				Subsystem: "broker",
				Name:      "deliveries_total",
				Help:      "Events delivered to subscribers, by subscription field",
			},
			[]string{"field"},
		),
		EvaluationErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "schemaforge",
				Subsystem: "broker",
				Name:      "evaluation_errors_total",
				Help:      "Filter evaluations that failed on an event value",
			},
			[]string{"field"},
		),
		RejectedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "schemaforge",
				Subsystem: "broker",
				Name:      "rejected_total",
				Help:      "Subscription requests or events refused, by reason",
			},
			[]string{"reason"},
		),
		ActiveSubscriptions: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "schemaforge",
				Subsystem: "broker",
				Name:      "active_subscriptions",
				Help:      "Currently open subscriptions",
			},
		),
		QueueDepth: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "schemaforge",
				Subsystem: "broker",
				Name:      "queue_depth",
				Help:      "Events waiting for dispatch",
			},
		),
		EvaluationDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "schemaforge",
				Subsystem: "broker",
				Name:      "evaluation_duration_seconds",
				Help:      "Time spent evaluating one filter against one event",
				Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
			},
		),
	}
}
