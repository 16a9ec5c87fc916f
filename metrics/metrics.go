package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OperationGet    = "get"
	OperationSet    = "set"
	OperationRemove = "remove"
	OperationRange  = "range"
)

// Metrics holds the collectors shared by every instrumented store. Stores
// are told apart by the "store" label.
type Metrics struct {
	Operations *prometheus.CounterVec
	Errors     *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

// NewMetrics creates and registers the store collectors with registerer.
// A nil registerer leaves them unregistered.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	labels := []string{"store", "operation"}
	factory := promauto.With(registerer)

	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nskv_store_operations_total",
			Help: "The total number of operations issued against a store",
		}, labels),
		Errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nskv_store_errors_total",
			Help: "The total number of store operations that returned an error",
		}, labels),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nskv_store_operation_seconds",
			Help:    "Latency of store operations in seconds",
			Buckets: prometheus.DefBuckets,
		}, labels),
	}
}
