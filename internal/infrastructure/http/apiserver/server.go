// Package apiserver provides the JSON API: the same preferences to recipe flow
// as the web frontend, without sessions or templates.
package apiserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/alchemorsel/recipegen/internal/infrastructure/config"
	"github.com/alchemorsel/recipegen/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/recipegen/internal/infrastructure/i18n"
	"github.com/alchemorsel/recipegen/internal/infrastructure/monitoring"
	"github.com/alchemorsel/recipegen/internal/infrastructure/security"
	"github.com/alchemorsel/recipegen/internal/ports/inbound"
	"github.com/alchemorsel/recipegen/pkg/healthcheck"
)

// APIServer represents the JSON API HTTP server
type APIServer struct {
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
	engine  *gin.Engine
	mw      *middleware.Middleware
	openAPI *OpenAPIHandler

	service inbound.RecipeGeneration
	catalog *i18n.Catalog
	gate    *security.Gate
	metrics *monitoring.MetricsCollector
	health  *healthcheck.HealthCheck
}

// NewAPIServer creates a new JSON API server instance
func NewAPIServer(
	cfg *config.Config,
	logger *zap.Logger,
	service inbound.RecipeGeneration,
	catalog *i18n.Catalog,
	gate *security.Gate,
	metrics *monitoring.MetricsCollector,
	health *healthcheck.HealthCheck,
) *APIServer {
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &APIServer{
		config:  cfg,
		logger:  logger.Named("apiserver"),
		mw:      middleware.New(cfg, logger, metrics),
		openAPI: NewOpenAPIHandler(logger),
		service: service,
		catalog: catalog,
		gate:    gate,
		metrics: metrics,
		health:  health,
	}

	s.engine = s.setupRoutes()
	s.server = &http.Server{
		Addr:         cfg.API.Address(),
		Handler:      middleware.H2C(cfg.API, otelhttp.NewHandler(s.engine, "api")),
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
		IdleTimeout:  cfg.API.IdleTimeout,
	}

	return s
}

// Handler returns the routed engine without tracing, for tests.
func (s *APIServer) Handler() http.Handler {
	return s.engine
}

func (s *APIServer) setupRoutes() *gin.Engine {
	r := gin.New()

	r.Use(s.mw.RequestID())
	r.Use(s.mw.Logger())
	r.Use(s.mw.Recovery())
	r.Use(s.metrics.HTTPMiddleware("api"))
	r.Use(s.mw.CORS())
	r.Use(s.mw.Security())
	r.Use(s.mw.ErrorHandler())

	r.GET("/health", s.health.Handler())
	r.GET("/ready", s.health.ReadinessHandler())
	r.GET("/live", s.health.LivenessHandler())
	if s.config.Monitoring.EnableMetrics {
		r.GET(s.config.Monitoring.MetricsPath, gin.WrapH(s.metrics.Handler()))
	}

	r.GET("/api/v1/openapi.yaml", s.openAPI.ServeOpenAPISpec)
	r.GET("/api/v1/docs", s.openAPI.ServeSwaggerUI)

	v1 := r.Group("/api/v1")
	v1.Use(s.basicAuth())
	{
		v1.POST("/recipes/generate", s.mw.RateLimit(), s.handleGenerateRecipe)
		v1.GET("/options", s.handleOptions)
	}

	return r
}

// Run sweeps idle rate-limit keys until ctx is done.
func (s *APIServer) Run(ctx context.Context) {
	interval := s.config.RateLimit.IdleTTL
	if interval <= 0 {
		return
	}
	go s.mw.Limiter().Run(ctx, interval)
}

// Start starts the JSON API HTTP server
func (s *APIServer) Start() error {
	s.logger.Info("Starting JSON API server",
		zap.String("address", s.server.Addr),
		zap.Bool("gate_configured", s.gate.Configured()),
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the JSON API server
func (s *APIServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down JSON API server")
	return s.server.Shutdown(ctx)
}
