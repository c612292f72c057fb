// Package metrics exposes Prometheus instruments for conversation turns and tool calls.
package metrics

import (
	"context"
	"net/http"

	"github.com/nullvoyager/voyager/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered by the agent.
type Metrics struct {
	registry *prometheus.Registry

	Turns          *prometheus.CounterVec
	Steps          prometheus.Histogram
	ToolCalls      *prometheus.CounterVec
	ToolDuration   *prometheus.HistogramVec
	ModeChanges    *prometheus.CounterVec
	ActiveStreams  prometheus.Gauge
	ProviderErrors *prometheus.CounterVec
}

// New creates the collectors on a private registry together with the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voyager_turns_total",
				Help: "Conversation turns by outcome (ok, truncated, error)",
			},
			[]string{"outcome"},
		),
		Steps: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "voyager_turn_steps",
				Help:    "Model calls per turn",
				Buckets: prometheus.LinearBuckets(1, 1, 10),
			},
		),
		ToolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voyager_tool_calls_total",
				Help: "Tool calls by tool name and result source",
			},
			[]string{"tool_name", "source"},
		),
		ToolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "voyager_tool_duration_seconds",
				Help: "Duration of tool executions",
			},
			[]string{"tool_name"},
		),
		ModeChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voyager_mode_changes_total",
				Help: "Committed mode transitions by target mode",
			},
			[]string{"mode"},
		),
		ActiveStreams: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "voyager_active_streams",
				Help: "Open chat and event streams",
			},
		),
		ProviderErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voyager_provider_errors_total",
				Help: "Failed live provider calls that fell back to demo data",
			},
			[]string{"provider"},
		),
	}

	m.registry.MustRegister(
		m.Turns, m.Steps, m.ToolCalls, m.ToolDuration, m.ModeChanges, m.ActiveStreams, m.ProviderErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ProviderFailed counts a live provider failure.
func (m *Metrics) ProviderFailed(provider string) {
	m.ProviderErrors.WithLabelValues(provider).Inc()
}

// Hooks returns lifecycle hooks that record turn and tool events.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnToolReturn: func(ctx context.Context, e *domain.ToolEvent) {
			m.ToolCalls.WithLabelValues(e.ToolName, SourceOf(e.Output, e.IsError)).Inc()
			m.ToolDuration.WithLabelValues(e.ToolName).Observe(e.Duration.Seconds())
		},
		OnStateChange: func(ctx context.Context, e *domain.StateEvent) {
			if e.After != nil && (e.Before == nil || e.Before.Mode != e.After.Mode) {
				m.ModeChanges.WithLabelValues(e.After.Mode.String()).Inc()
			}
		},
		OnTurnEnd: func(ctx context.Context, e *domain.TurnEvent) {
			outcome := "ok"
			switch {
			case e.Err != nil:
				outcome = "error"
			case e.Truncated:
				outcome = "truncated"
			}
			m.Turns.WithLabelValues(outcome).Inc()
			m.Steps.Observe(float64(e.Steps))
		},
	}
}

// SourceOf extracts the result source of a tool output for labeling.
func SourceOf(output any, isError bool) string {
	if isError {
		return "error"
	}
	switch r := output.(type) {
	case *domain.FlightResults:
		return r.Source
	case *domain.HotelResults:
		return r.Source
	case *domain.DestinationResults:
		return r.Source
	}
	return "session"
}
