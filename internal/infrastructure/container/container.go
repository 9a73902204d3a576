// Package container provides dependency injection using Uber FX. Both
// binaries share CoreModule and add the module of the server they run.
package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/alchemorsel/recipegen/internal/application/generation"
	"github.com/alchemorsel/recipegen/internal/infrastructure/cache"
	"github.com/alchemorsel/recipegen/internal/infrastructure/config"
	"github.com/alchemorsel/recipegen/internal/infrastructure/http/apiserver"
	"github.com/alchemorsel/recipegen/internal/infrastructure/http/webserver"
	"github.com/alchemorsel/recipegen/internal/infrastructure/i18n"
	"github.com/alchemorsel/recipegen/internal/infrastructure/monitoring"
	"github.com/alchemorsel/recipegen/internal/infrastructure/security"
	"github.com/alchemorsel/recipegen/internal/infrastructure/webhook"
	"github.com/alchemorsel/recipegen/internal/ports/inbound"
	"github.com/alchemorsel/recipegen/internal/ports/outbound"
	"github.com/alchemorsel/recipegen/pkg/healthcheck"
	"github.com/alchemorsel/recipegen/pkg/logger"
)

// ConfigPathEnv names an explicit config file; empty searches the defaults.
const ConfigPathEnv = "RECIPEGEN_CONFIG"

// CoreModule provides everything both servers need
var CoreModule = fx.Options(
	ConfigModule,
	LoggerModule,
	MonitoringModule,
	ServiceModule,
	HealthModule,
)

// WebModule runs the HTMX web frontend
var WebModule = fx.Options(
	SessionModule,
	fx.Provide(webserver.NewWebServer),
	fx.Invoke(RegisterWebLifecycle),
)

// APIModule runs the JSON API
var APIModule = fx.Options(
	fx.Provide(apiserver.NewAPIServer),
	fx.Invoke(RegisterAPILifecycle),
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func() (*config.Config, error) {
		return config.Load(os.Getenv(ConfigPathEnv))
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// MonitoringModule provides metrics and tracing
var MonitoringModule = fx.Options(
	fx.Provide(
		monitoring.NewMetricsCollector,
		func(m *monitoring.MetricsCollector) outbound.GenerationMetrics { return m },
		NewTracing,
	),
)

// NewTracing builds the tracing provider and flushes it on stop.
func NewTracing(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
	tp, err := monitoring.NewTracingProvider(monitoring.TracingConfig{
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
		Insecure:       cfg.Monitoring.OTLPInsecure,
		SamplingRate:   cfg.Monitoring.SamplingRate,
		Enabled:        cfg.Monitoring.EnableTracing,
	}, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: tp.Shutdown})
	return tp, nil
}

// ServiceModule provides the recipe service client and application services
var ServiceModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) *webhook.Client {
		return webhook.NewClient(cfg.Webhook, log)
	},
	func(c *webhook.Client) outbound.RecipeGenerator { return c },
	generation.NewService,
	func(s *generation.Service) inbound.RecipeGeneration { return s },
	func(cfg *config.Config) (*i18n.Catalog, error) {
		return i18n.NewCatalog(cfg.I18n.DefaultLocale)
	},
	func(cfg *config.Config, log *zap.Logger) *security.Gate {
		return security.NewGate(cfg.Gate, log)
	},
)

// HealthModule provides the health check with the recipe service settings
// registered as a degraded-only check
var HealthModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger, client *webhook.Client, tp *monitoring.TracingProvider) *healthcheck.HealthCheck {
		hc := healthcheck.New(cfg.App.Version, log)
		hc.Register("recipe_service", healthcheck.NewCustomChecker("recipe_service",
			func(context.Context) (healthcheck.Status, string, interface{}) {
				if err := client.Configured(); err != nil {
					return healthcheck.StatusDegraded, err.Error(), nil
				}
				return healthcheck.StatusHealthy, "recipe service configured", nil
			},
		))
		hc.Register("tracing", healthcheck.NewCustomChecker("tracing",
			func(context.Context) (healthcheck.Status, string, interface{}) {
				return healthcheck.StatusHealthy, "tracing", map[string]interface{}{"enabled": tp.Enabled()}
			},
		))
		return hc
	},
)

// SessionModule provides the session store on the configured backend
var SessionModule = fx.Provide(
	NewSessionBackend,
	func(backend webserver.SessionBackend, cfg *config.Config, log *zap.Logger) *webserver.SessionStore {
		return webserver.NewSessionStore(backend, cfg.Session, log)
	},
	func(cfg *config.Config, log *zap.Logger) (*security.CSRF, error) {
		if cfg.Session.CSRFSecret == "" {
			log.Warn("session.csrf_secret is not set, tokens will not survive a restart")
		}
		return security.NewCSRF(cfg.Session.CSRFSecret)
	},
)

// NewSessionBackend returns the in-memory backend or, for "redis", a Redis
// backend whose connection is registered with the health check.
func NewSessionBackend(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	hc *healthcheck.HealthCheck,
) (webserver.SessionBackend, error) {
	if cfg.Session.Backend != "redis" {
		log.Info("Using in-memory session store")
		return webserver.NewMemoryBackend(), nil
	}

	client, err := cache.NewRedisClient(context.Background(), cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect session store: %w", err)
	}
	hc.Register("redis", healthcheck.NewRedisChecker(client))
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return closeRedis(client) },
	})
	return webserver.NewRedisBackend(client, cfg.Session.KeyPrefix), nil
}

func closeRedis(client redis.UniversalClient) error {
	if err := client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}

// server is what the lifecycle hooks start and stop
type server interface {
	Start() error
	Shutdown(ctx context.Context) error
	Run(ctx context.Context)
}

// RegisterWebLifecycle starts the web frontend and its session cleanup
func RegisterWebLifecycle(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg *config.Config, log *zap.Logger, srv *webserver.WebServer, sessions *webserver.SessionStore) {
	registerServer(lc, shutdowner, cfg, log, srv, "web frontend", sessions.Run)
}

// RegisterAPILifecycle starts the JSON API
func RegisterAPILifecycle(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg *config.Config, log *zap.Logger, srv *apiserver.APIServer) {
	registerServer(lc, shutdowner, cfg, log, srv, "JSON API")
}

func registerServer(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	srv server,
	name string,
	background ...func(context.Context),
) {
	runCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("Starting application",
				zap.String("server", name),
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
			)

			srv.Run(runCtx)
			for _, run := range background {
				go run(runCtx)
			}

			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("Server stopped unexpectedly", zap.String("server", name), zap.Error(err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			log.Info("Stopping application", zap.String("server", name))
			return srv.Shutdown(ctx)
		},
	})
}
