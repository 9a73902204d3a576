package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/alchemorsel/recipegen/internal/infrastructure/config"
)

func TestGate_PlainPassword(t *testing.T) {
	gate := NewGate(config.GateConfig{Username: "chef", Password: "saffron"}, zap.NewNop())

	assert.True(t, gate.Configured())
	assert.True(t, gate.Verify("chef", "saffron"))
	assert.False(t, gate.Verify("chef", "Saffron"))
	assert.False(t, gate.Verify("Chef", "saffron"))
	assert.False(t, gate.Verify("", ""))
}

func TestGate_BcryptPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("saffron"), bcrypt.MinCost)
	require.NoError(t, err)
	gate := NewGate(config.GateConfig{Username: "chef", Password: string(hash)}, zap.NewNop())

	assert.True(t, gate.Verify("chef", "saffron"))
	assert.False(t, gate.Verify("chef", string(hash)))
}

func TestGate_Unconfigured_RejectsEverything(t *testing.T) {
	gate := NewGate(config.GateConfig{}, zap.NewNop())

	assert.False(t, gate.Configured())
	assert.False(t, gate.Verify("", ""))
	assert.False(t, gate.Verify("admin", "admin"))
}

func TestCSRF(t *testing.T) {
	csrf, err := NewCSRF("test-secret")
	require.NoError(t, err)

	token := csrf.Token("session-a")

	assert.True(t, csrf.Valid("session-a", token))
	assert.False(t, csrf.Valid("session-b", token))
	assert.False(t, csrf.Valid("session-a", ""))
	assert.False(t, csrf.Valid("", token))

	other, err := NewCSRF("")
	require.NoError(t, err)
	assert.False(t, other.Valid("session-a", token), "random secret differs")
}

func TestKeyedLimiter(t *testing.T) {
	limiter := NewKeyedLimiter(60, 2, time.Minute)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("a"))
	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"), "burst exhausted")
	assert.True(t, limiter.Allow("b"), "keys are independent")

	now = now.Add(time.Second)
	assert.True(t, limiter.Allow("a"), "one token per second refilled")
	assert.Equal(t, time.Second, limiter.RetryAfter())
}

func TestKeyedLimiter_Sweep(t *testing.T) {
	limiter := NewKeyedLimiter(12, 3, time.Minute)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.Allow("old")
	now = now.Add(2 * time.Minute)
	limiter.Allow("fresh")

	assert.Equal(t, 1, limiter.Sweep())
	assert.Zero(t, limiter.Sweep(), "fresh key is kept")

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, limiter.Sweep())
}
