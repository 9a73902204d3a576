package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// CSRF issues per-session tokens for state-changing form posts.
type CSRF struct {
	secret []byte
}

// NewCSRF creates a token issuer. An empty secret is replaced with a random
// one, which invalidates tokens on restart.
func NewCSRF(secret string) (*CSRF, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate csrf secret: %w", err)
		}
	}
	return &CSRF{secret: key}, nil
}

// Token returns the token bound to sessionID.
func (c *CSRF) Token(sessionID string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(sessionID))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Valid reports whether token was issued for sessionID.
func (c *CSRF) Valid(sessionID, token string) bool {
	if sessionID == "" || token == "" {
		return false
	}
	return hmac.Equal([]byte(token), []byte(c.Token(sessionID)))
}
