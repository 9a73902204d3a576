package middleware

import (
	"net/http"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/alchemorsel/recipegen/internal/infrastructure/config"
)

// H2C lets a plain-TCP listener accept prior-knowledge HTTP/2, for running
// behind a proxy that terminates TLS. Disabled it returns next unchanged.
func H2C(cfg config.ServerConfig, next http.Handler) http.Handler {
	if !cfg.EnableH2C {
		return next
	}
	return h2c.NewHandler(next, &http2.Server{
		MaxConcurrentStreams: cfg.MaxStreams,
		IdleTimeout:          cfg.IdleTimeout,
	})
}
