// Package observability exposes Prometheus collectors for graph run
// activity and bridges them into the runner via domain.Hooks.
package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/tendril/pkg/domain"
)

// Metrics holds the collectors describing graph run activity.
type Metrics struct {
	runsTotal        *prometheus.CounterVec
	eventsTotal      *prometheus.CounterVec
	interruptsTotal  prometheus.Counter
	executorDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil registerer falls back to the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tendril_runs_total",
				Help: "Total finished runs by graph and final status",
			},
			[]string{"graph", "status"},
		),
		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tendril_events_total",
				Help: "Total canonical events observed by status",
			},
			[]string{"status"},
		),
		interruptsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tendril_interrupts_total",
				Help: "Total approval interrupts raised by executors",
			},
		),
		executorDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tendril_executor_duration_seconds",
				Help:    "Wall clock duration of finished runs",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"graph"},
		),
	}
	reg.MustRegister(m.runsTotal, m.eventsTotal, m.interruptsTotal, m.executorDuration)
	return m
}

// RecordRun counts one finished run and observes its duration.
func (m *Metrics) RecordRun(graph string, status domain.Status, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(graph, string(status)).Inc()
	m.executorDuration.WithLabelValues(graph).Observe(elapsed.Seconds())
}

// Hooks returns runner hooks that count every event and interrupt.
// Combine with other observers via domain.JoinHooks.
func (m *Metrics) Hooks() domain.Hooks {
	if m == nil {
		return domain.Hooks{}
	}
	return domain.Hooks{
		OnEvent: func(_ context.Context, e *domain.Event) {
			m.eventsTotal.WithLabelValues(string(e.Status)).Inc()
		},
		OnInterrupt: func(_ context.Context, _ *domain.Interrupt) {
			m.interruptsTotal.Inc()
		},
	}
}
