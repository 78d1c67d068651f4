package weave

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	hookFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbweave_hook_failures_total",
			Help: "Interceptor hook failures recovered at the hook boundary.",
		},
		[]string{"type", "interceptor", "phase"},
	)

	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbweave_operations_total",
			Help: "Captured statement executions by outcome.",
		},
		[]string{"outcome"},
	)

	operationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dbweave_operation_duration_seconds",
			Help:    "Duration of captured statement executions.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Outcome labels for dbweave_operations_total
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// RegisterMetrics registers the runtime collectors with reg. Registering
// twice with the same registerer is not an error.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, collector := range []prometheus.Collector{hookFailures, operationsTotal, operationDuration} {
		if err := reg.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}
