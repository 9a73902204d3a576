package webserver

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/alchemorsel/recipegen/internal/application/generation"
	"github.com/alchemorsel/recipegen/internal/infrastructure/config"
	httpmw "github.com/alchemorsel/recipegen/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/recipegen/internal/infrastructure/i18n"
	"github.com/alchemorsel/recipegen/internal/infrastructure/monitoring"
	"github.com/alchemorsel/recipegen/internal/infrastructure/security"
	"github.com/alchemorsel/recipegen/pkg/healthcheck"
)

// Sign-in attempts allowed per client per minute.
const signInAttemptsPerMin = 5

// WebServer represents the web frontend HTTP server
type WebServer struct {
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
	router    *chi.Mux
	templates *template.Template

	service  *generation.Service
	sessions *SessionStore
	catalog  *i18n.Catalog
	gate     *security.Gate
	csrf     *security.CSRF
	metrics  *monitoring.MetricsCollector
	health   *healthcheck.HealthCheck

	generateLimiter *security.KeyedLimiter
	signInLimiter   *security.KeyedLimiter
}

// NewWebServer creates a new web frontend server instance
func NewWebServer(
	cfg *config.Config,
	logger *zap.Logger,
	service *generation.Service,
	sessions *SessionStore,
	catalog *i18n.Catalog,
	gate *security.Gate,
	csrf *security.CSRF,
	metrics *monitoring.MetricsCollector,
	health *healthcheck.HealthCheck,
) (*WebServer, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &WebServer{
		config:    cfg,
		logger:    logger.Named("webserver"),
		templates: templates,
		service:   service,
		sessions:  sessions,
		catalog:   catalog,
		gate:      gate,
		csrf:      csrf,
		metrics:   metrics,
		health:    health,
		generateLimiter: security.NewKeyedLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.BurstSize,
			cfg.RateLimit.IdleTTL,
		),
		signInLimiter: security.NewKeyedLimiter(signInAttemptsPerMin, signInAttemptsPerMin, cfg.RateLimit.IdleTTL),
	}

	s.router = s.setupRoutes()
	s.server = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      httpmw.H2C(cfg.Server, otelhttp.NewHandler(s.router, "web")),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s, nil
}

// Handler returns the routed handler without tracing, for tests.
func (s *WebServer) Handler() http.Handler {
	return s.router
}

// setupRoutes configures the web frontend routes
func (s *WebServer) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmw.Logger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.ChiMiddleware("web"))
	if s.config.Server.EnableCompression {
		r.Use(newCompressor().Handler)
	}
	r.Use(httpmw.Security(s.config.IsProduction()))

	// Health checks and static assets carry no session
	r.Get("/health", s.health.HTTPHandler())
	r.Get("/ready", s.health.ReadinessHTTPHandler())
	r.Get("/live", s.health.LivenessHTTPHandler())
	if s.config.Monitoring.EnableMetrics {
		r.Handle(s.config.Monitoring.MetricsPath, s.metrics.Handler())
	}
	r.Handle("/static/*", http.StripPrefix("/static/", staticFiles()))

	r.Group(func(r chi.Router) {
		r.Use(s.sessionMiddleware)
		r.Use(s.csrfMiddleware)
		r.Use(httpmw.HTMX())

		r.Get("/signin", s.handleSignInPage)
		r.Post("/signin", s.handleSignIn)
		r.Post("/signout", s.handleSignOut)
		r.Post("/locale", s.handleLocale)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.handleHome)
		})

		r.Route("/htmx", func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/ingredients", s.handleAddIngredient)
			r.Post("/ingredients/remove", s.handleRemoveIngredient)
			r.Post("/select", s.handleSelect)
			r.Post("/dietary", s.handleDietary)
			r.Post("/persons", s.handlePersons)
			r.Post("/remarks", s.handleRemarks)
			r.Post("/generate", s.handleGenerate)
			r.Get("/results", s.handleResults)
			r.Post("/recipe/ingredients/{index}/toggle", s.handleToggleIngredient)
			r.Post("/reset", s.handleReset)
		})
	})

	return r
}

// newCompressor prefers brotli and falls back to chi's gzip/deflate.
func newCompressor() *middleware.Compressor {
	c := middleware.NewCompressor(5,
		"text/html",
		"text/css",
		"text/javascript",
		"application/javascript",
		"application/json",
	)
	c.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})
	return c
}

// Run sweeps idle rate-limit keys until ctx is done.
func (s *WebServer) Run(ctx context.Context) {
	sweep := s.config.RateLimit.IdleTTL
	if sweep <= 0 {
		sweep = 10 * time.Minute
	}
	go s.generateLimiter.Run(ctx, sweep)
	go s.signInLimiter.Run(ctx, sweep)
}

// Start starts the web frontend HTTP server
func (s *WebServer) Start() error {
	s.logger.Info("Starting web frontend",
		zap.String("address", s.server.Addr),
		zap.Bool("gate_configured", s.gate.Configured()),
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the web server
func (s *WebServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down web frontend")
	return s.server.Shutdown(ctx)
}
