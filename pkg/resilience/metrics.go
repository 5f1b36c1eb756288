package resilience

import (
	"fmt"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
)

// Outcome labels for breakerCallsTotal
const (
	outcomeSuccess  = "success"
	outcomeFailure  = "failure"
	outcomeRejected = "rejected"
)

var (
	breakerOpen = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "commerce",
		Subsystem: "breaker",
		Name:      "open",
		Help:      "1 while the breaker rejects calls, 0.5 while probing, 0 when closed",
	}, []string{"breaker"})

	breakerCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "commerce",
		Subsystem: "breaker",
		Name:      "calls_total",
		Help:      "Calls routed through a breaker by outcome",
	}, []string{"breaker", "outcome"})

	breakerTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "commerce",
		Subsystem: "breaker",
		Name:      "transitions_total",
		Help:      "Breaker state transitions",
	}, []string{"breaker", "to"})

	anonymousBreakers atomic.Uint64
)

func nextBreakerName(base string) string {
	if base != "" {
		return base
	}
	return fmt.Sprintf("breaker-%d", anonymousBreakers.Add(1))
}

func openness(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 0.5
	default:
		return 0
	}
}

func observeState(name string, state gobreaker.State) {
	breakerOpen.WithLabelValues(name).Set(openness(state))
}

func observeTransition(name string, to gobreaker.State) {
	breakerTransitionsTotal.WithLabelValues(name, to.String()).Inc()
	observeState(name, to)
}

func observeCall(name, outcome string) {
	breakerCallsTotal.WithLabelValues(name, outcome).Inc()
}
