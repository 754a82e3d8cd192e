package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PromisesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paypromise_promises_total",
		Help: "Payment promises recorded, by risk rating",
	}, []string{"risk"})

	CustomersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paypromise_customers_created_total",
		Help: "Customers added to the portfolio",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paypromise_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "paypromise_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15},
	}, []string{"method", "route"})

	ModelCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paypromise_model_calls_total",
		Help: "Calls to the language model, by kind and outcome",
	}, []string{"kind", "outcome"})
)

// Outcome maps an error to the outcome label.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
