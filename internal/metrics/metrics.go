package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests"},
		[]string{"route", "method", "status"},
	)
	ReqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request duration seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	InFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "http_in_flight_requests", Help: "In-flight HTTP requests"},
	)

	// AuthOutcomes counts sign-in attempts by method (local, google, github...) and result.
	AuthOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "auth_outcomes_total", Help: "Authentication attempts by method and outcome"},
		[]string{"method", "outcome"},
	)
	ProviderCall = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auth_provider_call_duration_seconds",
			Help:    "Latency of calls to external identity providers",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "step"},
	)
)

var once sync.Once

// MustRegister is safe to call more than once.
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(RequestsTotal, ReqDuration, InFlight, AuthOutcomes, ProviderCall)
	})
}
