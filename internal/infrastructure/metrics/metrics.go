package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the terminal's prometheus instruments. They are created
// once in main and handed to whoever records them.
type Metrics struct {
	BackendRequests *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
	Checkouts       *prometheus.CounterVec
	Searches        *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BackendRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_requests_total",
				Help: "Total backend requests by endpoint and outcome.",
			},
			[]string{"endpoint", "outcome"},
		),
		BackendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_request_duration_seconds",
				Help:    "Duration of backend requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		Checkouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_attempts_total",
				Help: "Checkout attempts by payment method and outcome.",
			},
			[]string{"method", "outcome"},
		),
		Searches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_searches_total",
				Help: "Dispatched catalog searches by outcome.",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(m.BackendRequests, m.BackendDuration, m.Checkouts, m.Searches)
	return m
}
