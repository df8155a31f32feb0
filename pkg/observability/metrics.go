package observability

import (
	"context"

	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "agentgraph"

// Metrics holds the Prometheus collectors fed by lifecycle hooks.
type Metrics struct {
	NodeVisits    *prometheus.CounterVec
	NodeDuration  *prometheus.HistogramVec
	ToolDuration  *prometheus.HistogramVec
	ModelDuration *prometheus.HistogramVec
	Faults        *prometheus.CounterVec
	Runs          *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NodeVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_visits_total",
			Help:      "Total number of node executions.",
		}, []string{"workflow", "node"}),
		NodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_duration_seconds",
			Help:      "Duration of node executions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"workflow", "node"}),
		ToolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "Duration of tool adapter calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"capability", "outcome"}),
		ModelDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_duration_seconds",
			Help:      "Duration of model adapter calls.",
			Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"node", "outcome"}),
		Faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "faults_total",
			Help:      "Faults recorded by adapter calls and runs, by kind.",
		}, []string{"kind"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished runs by workflow and outcome.",
		}, []string{"workflow", "outcome"}),
	}
	reg.MustRegister(m.NodeVisits, m.NodeDuration, m.ToolDuration, m.ModelDuration, m.Faults, m.Runs)
	return m
}

// Hooks returns lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(e.Workflow, e.NodeID).Inc()
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			m.NodeDuration.WithLabelValues(e.Workflow, e.NodeID).Observe(e.Latency.Seconds())
		},
		OnToolReturn: func(ctx context.Context, e *domain.ToolEvent) {
			m.ToolDuration.WithLabelValues(e.Capability, outcome(e.Fault)).Observe(e.Latency.Seconds())
			m.countFault(e.Fault)
		},
		OnModelReturn: func(ctx context.Context, e *domain.ModelEvent) {
			m.ModelDuration.WithLabelValues(e.NodeID, outcome(e.Fault)).Observe(e.Latency.Seconds())
			m.countFault(e.Fault)
		},
		OnRunFinish: func(ctx context.Context, e *domain.RunEvent) {
			m.Runs.WithLabelValues(e.Workflow, outcome(e.Fault)).Inc()
			if e.Fault != nil {
				m.countFault(e.Fault)
			}
		},
	}
}

func (m *Metrics) countFault(f *domain.Fault) {
	if f != nil {
		m.Faults.WithLabelValues(string(f.Kind)).Inc()
	}
}

func outcome(f *domain.Fault) string {
	if f == nil {
		return "ok"
	}
	return string(f.Kind)
}
