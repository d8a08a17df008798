package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	DeliveryFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "studydocs", Name: "delivery_fallback_total", Help: "Downloads answered with a signed-URL redirect after a transient backend failure."},
		[]string{"backend"},
	)
	BlobCleanupFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "studydocs", Name: "blob_cleanup_failures_total", Help: "Best-effort blob deletions that failed, by operation."},
		[]string{"operation"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "studydocs", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "studydocs", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(DeliveryFallbacks)
	reg.MustRegister(BlobCleanupFailures)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
