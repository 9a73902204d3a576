package middleware

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/net/http2"

	"github.com/alchemorsel/recipegen/internal/infrastructure/config"
	"github.com/alchemorsel/recipegen/internal/infrastructure/monitoring"
	"github.com/alchemorsel/recipegen/pkg/errors"
	"github.com/alchemorsel/recipegen/test/testutils"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Environment: "test"},
		API: config.ServerConfig{AllowedOrigins: []string{"https://app.example.com"}},
		RateLimit: config.RateLimitConfig{
			Enable:         true,
			RequestsPerMin: 60,
			BurstSize:      2,
		},
	}
}

func newRouter(m *Middleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.RequestID(), m.Recovery(), m.CORS(), m.ErrorHandler())
	return r
}

func TestRequestID(t *testing.T) {
	m := New(testConfig(), zap.NewNop(), monitoring.NewMetricsCollector(zap.NewNop()))
	r := newRouter(m)
	r.GET("/id", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	generated := httptest.NewRecorder()
	r.ServeHTTP(generated, httptest.NewRequest(http.MethodGet, "/id", nil))
	forwarded := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	r.ServeHTTP(forwarded, req)

	assert.Len(t, generated.Body.String(), 36)
	assert.Equal(t, generated.Body.String(), generated.Header().Get("X-Request-ID"))
	assert.Equal(t, "abc-123", forwarded.Body.String())
}

func TestRecovery(t *testing.T) {
	m := New(testConfig(), zap.NewNop(), monitoring.NewMetricsCollector(zap.NewNop()))
	r := newRouter(m)
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	testutils.NewHTTPAssertions(t).ErrorResponse(rec.Result(), errors.CodeInternal)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestErrorHandler_MapsAppErrors(t *testing.T) {
	m := New(testConfig(), zap.NewNop(), monitoring.NewMetricsCollector(zap.NewNop()))
	r := newRouter(m)
	r.GET("/protocol", func(c *gin.Context) { _ = c.Error(errors.NewProtocolError(http.StatusInternalServerError)) })
	r.GET("/config", func(c *gin.Context) { _ = c.Error(errors.NewConfigurationError("webhook.url")) })

	protocol := httptest.NewRecorder()
	r.ServeHTTP(protocol, httptest.NewRequest(http.MethodGet, "/protocol", nil))
	configuration := httptest.NewRecorder()
	r.ServeHTTP(configuration, httptest.NewRequest(http.MethodGet, "/config", nil))

	assert.Equal(t, http.StatusBadGateway, protocol.Code)
	assert.Equal(t, http.StatusServiceUnavailable, configuration.Code)
	testutils.NewHTTPAssertions(t).ErrorResponse(protocol.Result(), errors.CodeProtocol)
}

func TestCORS(t *testing.T) {
	m := New(testConfig(), zap.NewNop(), monitoring.NewMetricsCollector(zap.NewNop()))
	r := newRouter(m)
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	allowed := httptest.NewRequest(http.MethodOptions, "/x", nil)
	allowed.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, allowed)

	denied := httptest.NewRequest(http.MethodGet, "/x", nil)
	denied.Header.Set("Origin", "https://evil.example.com")
	rec2 := httptest.NewRecorder()
	r.ServeHTTP(rec2, denied)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec2.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	m := New(testConfig(), zap.NewNop(), monitoring.NewMetricsCollector(zap.NewNop()))
	r := newRouter(m)
	r.Use(m.RateLimit())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestSecurityHeaders_Chi(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Logger(zap.NewNop()), Security(false), HTMX())
	r.Get("/", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("HX-Request", "true")
	r.ServeHTTP(rec, req)

	testutils.NewHTTPAssertions(t).SecurityHeaders(rec.Result())
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestH2C(t *testing.T) {
	proto := func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(r.Proto)) }

	t.Run("Disabled", func(t *testing.T) {
		rec := httptest.NewRecorder()
		H2C(config.ServerConfig{}, http.HandlerFunc(proto)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, "HTTP/1.1", rec.Body.String())
	})

	t.Run("PriorKnowledge", func(t *testing.T) {
		srv := httptest.NewServer(H2C(config.ServerConfig{EnableH2C: true, MaxStreams: 10}, http.HandlerFunc(proto)))
		defer srv.Close()

		client := &http.Client{Transport: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		}}

		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t, "HTTP/2.0", string(body))
	})
}

func TestLoggers_IncludeTraceID(t *testing.T) {
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36},
		SpanID:     trace.SpanID{0x00, 0xf0, 0x67, 0xaa, 0x0b, 0xa9, 0x02, 0xb7},
		TraceFlags: trace.FlagsSampled,
	})
	traced := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		return req.WithContext(trace.ContextWithSpanContext(req.Context(), spanCtx))
	}

	t.Run("Chi", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		r := chi.NewRouter()
		r.Use(Logger(zap.New(core)))
		r.Get("/x", func(w http.ResponseWriter, r *http.Request) {})

		r.ServeHTTP(httptest.NewRecorder(), traced())

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, spanCtx.TraceID().String(), logs.All()[0].ContextMap()["trace_id"])
	})

	t.Run("Gin", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		m := New(testConfig(), zap.New(core), monitoring.NewMetricsCollector(zap.NewNop()))
		r := gin.New()
		r.Use(m.Logger())
		r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

		r.ServeHTTP(httptest.NewRecorder(), traced())

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, spanCtx.TraceID().String(), logs.All()[0].ContextMap()["trace_id"])
	})

	t.Run("Untraced", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		r := chi.NewRouter()
		r.Use(Logger(zap.New(core)))
		r.Get("/x", func(w http.ResponseWriter, r *http.Request) {})

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

		require.Equal(t, 1, logs.Len())
		assert.NotContains(t, logs.All()[0].ContextMap(), "trace_id")
	})
}
