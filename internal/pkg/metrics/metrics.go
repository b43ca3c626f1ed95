package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "looopone",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "looopone",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "looopone",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Geofence and report metrics
	BoundaryFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "looopone",
		Subsystem: "geofence",
		Name:      "boundary_fetches_total",
		Help:      "Total boundary fetch attempts by result",
	}, []string{"result"})

	BoundaryFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "looopone",
		Subsystem: "geofence",
		Name:      "boundary_fetch_duration_seconds",
		Help:      "Duration of boundary fetches from the geocoding provider",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	GeofenceVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "looopone",
		Subsystem: "geofence",
		Name:      "verdicts_total",
		Help:      "Service-area checks by deciding source and outcome",
	}, []string{"source", "outcome"})

	ReportsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "looopone",
		Subsystem: "reports",
		Name:      "submitted_total",
		Help:      "Citizen reports by outcome (accepted, rejected, error)",
	}, []string{"outcome", "category"})

	AlertsRaised = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "looopone",
		Subsystem: "alerts",
		Name:      "raised_total",
		Help:      "Alerts raised by report triage",
	}, []string{"alert_type"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "looopone",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "looopone",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "looopone",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	SharedCacheOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "looopone",
		Subsystem: "valkey",
		Name:      "operations_total",
		Help:      "Shared cache operations by keyspace and result (hit, miss, ok, error)",
	}, []string{"keyspace", "op", "result"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "looopone",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "looopone",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "looopone",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics copies connection counts from a pgxpool.Stat-like value.
// The parameter is untyped so this package does not depend on pgx.
func UpdateDBPoolMetrics(stat interface{}) {
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
	}
}
