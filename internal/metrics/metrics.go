package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "path"},
	)

	// outcome is one of granted, cooldown, unavailable.
	ClaimsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coupon_claims_total",
			Help: "Total number of claim attempts by outcome",
		},
		[]string{"outcome"},
	)
	DegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coupon_degraded_operations_total",
			Help: "Storage operations that fell back to a default value",
		},
		[]string{"operation"},
	)
	PoolReseedsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coupon_pool_reseeds_total",
			Help: "Times the pool was repopulated with the emergency set",
		},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(ClaimsTotal)
	prometheus.MustRegister(DegradedTotal)
	prometheus.MustRegister(PoolReseedsTotal)
}
