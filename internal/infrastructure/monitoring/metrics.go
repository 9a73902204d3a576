package monitoring

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/alchemorsel/recipegen/internal/ports/outbound"
)

// OutcomeSuccess labels generation attempts that produced a recipe.
const OutcomeSuccess = "success"

// MetricsCollector handles Prometheus metrics collection on its own registry
type MetricsCollector struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimitedTotal    *prometheus.CounterVec

	// Recipe generation metrics
	generationsTotal   *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	blockedTotal       prometheus.Counter
	staleSettlesTotal  prometheus.Counter
	signInsTotal       *prometheus.CounterVec
}

var _ outbound.GenerationMetrics = (*MetricsCollector)(nil)

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &MetricsCollector{
		logger:   logger.Named("metrics"),
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"server", "method", "route", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"server", "method", "route"},
		),
		rateLimitedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_rate_limited_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"server", "route"},
		),

		generationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipe_generations_total",
				Help: "Recipe generation attempts by outcome",
			},
			[]string{"outcome"},
		),
		generationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recipe_generation_duration_seconds",
				Help:    "Time spent waiting for the recipe service",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"outcome"},
		),
		blockedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "recipe_submissions_blocked_total",
				Help: "Submits ignored because the form was incomplete",
			},
		),
		staleSettlesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "recipe_stale_settles_total",
				Help: "Responses applied after a newer submission had started",
			},
		),
		signInsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gate_sign_ins_total",
				Help: "Sign-in attempts by result",
			},
			[]string{"result"},
		),
	}
}

// RecordGeneration records a finished generation attempt; code is empty on success
func (m *MetricsCollector) RecordGeneration(code string, duration time.Duration) {
	outcome := OutcomeSuccess
	if code != "" {
		outcome = strings.ToLower(code)
	}
	m.generationsTotal.WithLabelValues(outcome).Inc()
	m.generationDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *MetricsCollector) RecordBlocked() {
	m.blockedTotal.Inc()
}

func (m *MetricsCollector) RecordStaleSettle() {
	m.staleSettlesTotal.Inc()
}

// RecordSignIn counts a gate attempt
func (m *MetricsCollector) RecordSignIn(ok bool) {
	result := "rejected"
	if ok {
		result = "accepted"
	}
	m.signInsTotal.WithLabelValues(result).Inc()
}

// RecordRateLimited counts a request rejected by a limiter
func (m *MetricsCollector) RecordRateLimited(server, route string) {
	m.rateLimitedTotal.WithLabelValues(server, route).Inc()
}

// HTTPMiddleware creates a Gin middleware for HTTP metrics collection
func (m *MetricsCollector) HTTPMiddleware(server string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Process request
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.observe(server, c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// ChiMiddleware records the same HTTP metrics for chi routers
func (m *MetricsCollector) ChiMiddleware(server string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.observe(server, r.Method, route, status, time.Since(start))
		})
	}
}

func (m *MetricsCollector) observe(server, method, route string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(server, method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(server, method, route).Observe(duration.Seconds())
}

// Registry exposes the underlying registry
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
