package router

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fintask",
			Subsystem: "router",
			Name:      "requests_total",
			Help:      "Model requests dispatched, by tier (counted before the call).",
		},
		[]string{"tier"},
	)

	tierSwitches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fintask",
			Subsystem: "router",
			Name:      "tier_switches_total",
			Help:      "Failovers to another tier, by reason.",
		},
		[]string{"reason"},
	)

	cacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fintask",
			Subsystem: "router",
			Name:      "cache_hits_total",
			Help:      "Prompt-hash cache hits that skipped model selection.",
		},
	)
)
