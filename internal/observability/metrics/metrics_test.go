package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestAgentMetricsObserve(t *testing.T) {
	m := NewAgentMetrics(prometheus.NewRegistry())
	m.ObservePass("venue_inquiry", "ok", 0.5)
	m.ObserveCompletion("venue_inquiry", true, 0.3)
	m.ObserveCompletion("negotiation", false, 0.1)
	m.IncApprovalGated("contract_request")
}

func TestAgentMetricsNilSafe(t *testing.T) {
	var m *AgentMetrics
	m.ObservePass("general", "error", 0.1)
	m.ObserveCompletion("general", true, 0.1)
	m.IncApprovalGated("negotiation")
}
