// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/alchemorsel/recipegen/internal/domain/preferences"
	"github.com/alchemorsel/recipegen/internal/domain/recipe"
	"github.com/alchemorsel/recipegen/internal/ports/outbound"
)

var (
	_ outbound.RecipeGenerator   = (*MockRecipeGenerator)(nil)
	_ outbound.GenerationMetrics = (*MockGenerationMetrics)(nil)
)

// MockRecipeGenerator provides a mock implementation of RecipeGenerator
type MockRecipeGenerator struct {
	mock.Mock
}

// NewMockRecipeGenerator creates a new mock recipe generator
func NewMockRecipeGenerator() *MockRecipeGenerator {
	return &MockRecipeGenerator{}
}

// Generate returns the configured recipe or error
func (m *MockRecipeGenerator) Generate(ctx context.Context, payload preferences.Payload) (*recipe.Recipe, error) {
	args := m.Called(ctx, payload)
	if r := args.Get(0); r != nil {
		return r.(*recipe.Recipe), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockGenerationMetrics counts recorded outcomes
type MockGenerationMetrics struct {
	mu      sync.Mutex
	Codes   []string
	Blocked int
	Stale   int
}

// NewMockGenerationMetrics creates a new metrics recorder
func NewMockGenerationMetrics() *MockGenerationMetrics {
	return &MockGenerationMetrics{}
}

func (m *MockGenerationMetrics) RecordGeneration(code string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Codes = append(m.Codes, code)
}

func (m *MockGenerationMetrics) RecordBlocked() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Blocked++
}

func (m *MockGenerationMetrics) RecordStaleSettle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stale++
}

// Snapshot returns a copy of the recorded codes and counters
func (m *MockGenerationMetrics) Snapshot() (codes []string, blocked, stale int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Codes...), m.Blocked, m.Stale
}
