package view

import "github.com/alchemorsel/recipegen/internal/domain/recipe"

// Presentation is the content of the results region.
type Presentation string

const (
	PresentLoading     Presentation = "loading"
	PresentPlaceholder Presentation = "placeholder"
	PresentRecipe      Presentation = "recipe"
	// PresentNone leaves the region empty; the page renders the error banner.
	PresentNone Presentation = "none"
)

// SelectPresentation picks exactly one presentation. Loading wins over
// everything, then a recipe, then an error leaves the region empty.
func SelectPresentation(r *recipe.Recipe, loading, failed bool) Presentation {
	switch {
	case loading:
		return PresentLoading
	case r != nil:
		return PresentRecipe
	case failed:
		return PresentNone
	default:
		return PresentPlaceholder
	}
}
