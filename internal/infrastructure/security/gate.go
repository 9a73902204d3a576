// Package security provides the sign-in gate, CSRF tokens and request rate
// limiting for the web frontend and the JSON API.
package security

import (
	"crypto/subtle"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/alchemorsel/recipegen/internal/infrastructure/config"
)

// Gate compares sign-in credentials against one configured username and
// password. It is a shared-secret front door, not user authentication: there
// are no accounts, roles or per-user audit trail.
type Gate struct {
	username string
	password string
	hashed   bool
	logger   *zap.Logger
}

// NewGate creates a gate. A password starting with "$2" is treated as a
// bcrypt hash. With no credentials configured every attempt is rejected.
func NewGate(cfg config.GateConfig, logger *zap.Logger) *Gate {
	g := &Gate{
		username: cfg.Username,
		password: cfg.Password,
		hashed:   strings.HasPrefix(cfg.Password, "$2"),
		logger:   logger.Named("gate"),
	}
	if !g.Configured() {
		g.logger.Warn("Sign-in gate has no credentials configured, all sign-in attempts will be rejected")
	}
	return g
}

// Configured reports whether both credentials are set.
func (g *Gate) Configured() bool {
	return g.username != "" && g.password != ""
}

// Verify reports whether username and password match. Both comparisons are
// always performed.
func (g *Gate) Verify(username, password string) bool {
	if !g.Configured() {
		return false
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.username)) == 1

	var passOK bool
	if g.hashed {
		passOK = bcrypt.CompareHashAndPassword([]byte(g.password), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) == 1
	}

	if !(userOK && passOK) {
		g.logger.Info("Sign-in rejected", zap.Bool("username_match", userOK))
		return false
	}
	return true
}
