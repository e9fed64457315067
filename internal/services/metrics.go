package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// lookupsTotal counts Hub lookups by outcome.
	// Labels: status (found, not_found, missing_class, unbound, wrong_type, failed)
	lookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rooty",
			Subsystem: "services",
			Name:      "lookups_total",
			Help:      "Total number of service lookups by outcome",
		},
		[]string{"status"},
	)

	// bootedTotal counts services booted by the hub.
	bootedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rooty",
			Subsystem: "services",
			Name:      "booted_total",
			Help:      "Total number of services booted",
		},
	)
)
