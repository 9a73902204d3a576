// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"time"

	"github.com/alchemorsel/recipegen/internal/domain/preferences"
	"github.com/alchemorsel/recipegen/internal/domain/recipe"
)

// RecipeGenerator calls the external recipe service. Implementations classify
// every failure as a *errors.AppError with one of the recipe service codes.
type RecipeGenerator interface {
	Generate(ctx context.Context, payload preferences.Payload) (*recipe.Recipe, error)
}

// GenerationMetrics records the outcome of generation attempts
type GenerationMetrics interface {
	// RecordGeneration records a finished attempt; code is empty on success
	RecordGeneration(code string, duration time.Duration)
	// RecordBlocked records a submit that was ignored because the form was incomplete
	RecordBlocked()
	// RecordStaleSettle records a response that arrived after a newer submission began
	RecordStaleSettle()
}
