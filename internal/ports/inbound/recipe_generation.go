// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"

	"github.com/alchemorsel/recipegen/internal/domain/preferences"
	"github.com/alchemorsel/recipegen/internal/domain/recipe"
	"github.com/alchemorsel/recipegen/internal/domain/shared"
)

// RecipeGeneration is the stateless use case: one filled-in form in, one
// recipe out. The JSON API drives it directly.
type RecipeGeneration interface {
	GenerateRecipe(ctx context.Context, cmd GenerateRecipeCommand) (*recipe.Recipe, error)
}

// GenerateRecipeCommand contains the form to submit and the locale the recipe
// should be written in.
type GenerateRecipeCommand struct {
	Form   *preferences.FormState
	Locale shared.Locale
}
