package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	toolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kashflo_agent_tool_calls_total",
		Help: "Tool invocations made by agents, by tool and outcome",
	}, []string{"tool", "outcome"})

	delegations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kashflo_agent_delegations_total",
		Help: "Supervisor routing decisions, by route",
	}, []string{"route"})
)
