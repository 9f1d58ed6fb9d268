package metrics

import "github.com/prometheus/client_golang/prometheus"

// AgentMetrics exposes counters/histograms for conversation passes.
type AgentMetrics struct {
	passTotal         *prometheus.CounterVec
	passLatency       *prometheus.HistogramVec
	completionLatency *prometheus.HistogramVec
	approvalGated     *prometheus.CounterVec
}

func NewAgentMetrics(reg prometheus.Registerer) *AgentMetrics {
	m := &AgentMetrics{
		passTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "agent",
			Name:      "pass_total",
			Help:      "Total agent passes by intent and outcome",
		}, []string{"intent", "status"}),
		passLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "booking",
			Subsystem: "agent",
			Name:      "pass_latency_seconds",
			Help:      "End-to-end latency of one agent pass",
			Buckets:   prometheus.DefBuckets,
		}, []string{"intent"}),
		completionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "booking",
			Subsystem: "agent",
			Name:      "completion_latency_seconds",
			Help:      "Latency of model completions",
			Buckets:   prometheus.DefBuckets,
		}, []string{"intent", "status"}),
		approvalGated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "agent",
			Name:      "approval_gated_total",
			Help:      "Replies held for human approval",
		}, []string{"intent"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.passTotal, m.passLatency, m.completionLatency, m.approvalGated)
	return m
}

func (m *AgentMetrics) ObservePass(intent, status string, seconds float64) {
	if m == nil {
		return
	}
	m.passTotal.WithLabelValues(intent, status).Inc()
	m.passLatency.WithLabelValues(intent).Observe(seconds)
}

func (m *AgentMetrics) ObserveCompletion(intent string, ok bool, seconds float64) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.completionLatency.WithLabelValues(intent, status).Observe(seconds)
}

func (m *AgentMetrics) IncApprovalGated(intent string) {
	if m == nil {
		return
	}
	m.approvalGated.WithLabelValues(intent).Inc()
}
