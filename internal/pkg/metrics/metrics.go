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

// Layer import outcomes.
const (
	OutcomeImported = "imported"
	OutcomeFailed   = "failed"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ankyra",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ankyra",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ankyra",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Measurement metrics
	MeasurementsCommitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ankyra",
		Subsystem: "measure",
		Name:      "committed_total",
		Help:      "Total measurements committed",
	}, []string{"mode", "profile"})

	MeasurementsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ankyra",
		Subsystem: "measure",
		Name:      "rejected_total",
		Help:      "Total measuring gestures rejected",
	}, []string{"reason"})

	MeasurementsCleared = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ankyra",
		Subsystem: "measure",
		Name:      "cleared_total",
		Help:      "Total gestures that ended without a measurement or removed one",
	})

	MeasuredDistance = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ankyra",
		Subsystem: "measure",
		Name:      "distance_km",
		Help:      "Distance of committed measurements in kilometres",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
	}, []string{"mode"})

	ActiveMeasureSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ankyra",
		Subsystem: "measure",
		Name:      "active_sessions",
		Help:      "Current number of websocket measuring sessions",
	})

	// LayerImports is labelled with OutcomeImported or OutcomeFailed.
	LayerImports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ankyra",
		Subsystem: "layers",
		Name:      "imports_total",
		Help:      "Total layer imports by outcome",
	}, []string{"kind", "outcome"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ankyra",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ankyra",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ankyra",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ankyra",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ankyra",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ankyra",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})

	DBPoolEmptyAcquires = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ankyra",
		Subsystem: "db",
		Name:      "pool_empty_acquires",
		Help:      "Cumulative acquires that had to wait for a new connection",
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

// UpdateDBPoolMetrics updates database pool metrics from pgx pool stats.
func UpdateDBPoolMetrics(stat interface{}) {
	// Matched structurally so this package does not import pgxpool.
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
		EmptyAcquireCount() int64
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
		DBPoolEmptyAcquires.Set(float64(s.EmptyAcquireCount()))
	}
}
