package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wanderlust_redis_errors_total",
		Help: "Total number of Redis command errors",
	}, []string{"command"})

	// AuthRejections counts requests rejected by authentication, by reason.
	AuthRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wanderlust_auth_rejections_total",
		Help: "Requests rejected by the authentication middleware",
	}, []string{"reason"})

	// OwnershipDenials counts 403 responses from ownership checks, by resource.
	OwnershipDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wanderlust_ownership_denials_total",
		Help: "Mutations rejected because the caller does not own the resource",
	}, []string{"resource"})

	// ImageUploads counts forwarded uploads by kind and outcome.
	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wanderlust_image_uploads_total",
		Help: "Image uploads forwarded to the image host",
	}, []string{"kind", "outcome"})
)

var (
	promOnce     sync.Once
	promInstance *fiberprometheus.FiberPrometheus
)

// InitMetrics returns the process-wide request metrics collector. Collectors
// register with the default registry, so only the first service name is used.
func InitMetrics(service string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promInstance = fiberprometheus.New(service)
	})
	return promInstance
}

// MetricsMiddleware records request counts and latency.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
