package hooks

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// registrationsTotal counts callbacks registered through a registrar.
	// Labels: kind (action, filter)
	registrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rooty",
			Subsystem: "hooks",
			Name:      "registrations_total",
			Help:      "Total number of hook callbacks registered",
		},
		[]string{"kind"},
	)

	// removalsTotal counts successful unregistrations.
	// Labels: kind (action, filter)
	removalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rooty",
			Subsystem: "hooks",
			Name:      "removals_total",
			Help:      "Total number of hook callbacks removed",
		},
		[]string{"kind"},
	)

	// dispatchTotal counts Fire and Apply calls.
	// Labels: kind (action, filter)
	dispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rooty",
			Subsystem: "hooks",
			Name:      "dispatch_total",
			Help:      "Total number of hook dispatches",
		},
		[]string{"kind"},
	)

	onceSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rooty",
			Subsystem: "hooks",
			Name:      "once_skipped_total",
			Help:      "Total number of Once and OnceOn calls skipped as duplicates",
		},
	)

	// directiveErrorsTotal counts malformed template directive calls.
	directiveErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rooty",
			Subsystem: "hooks",
			Name:      "directive_errors_total",
			Help:      "Total number of malformed hook directive calls",
		},
	)
)
