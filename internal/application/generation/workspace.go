package generation

import (
	"github.com/alchemorsel/recipegen/internal/domain/preferences"
	"github.com/alchemorsel/recipegen/internal/domain/recipe"
	"github.com/alchemorsel/recipegen/internal/domain/view"
)

// Workspace is everything one browser is working on: the form, the view state
// and the checked-ingredient marks. It is stored in the session as JSON.
type Workspace struct {
	Form    *preferences.FormState `json:"form"`
	View    view.State             `json:"view"`
	Overlay recipe.CheckedOverlay  `json:"overlay"`
}

func NewWorkspace() *Workspace {
	return &Workspace{Form: preferences.NewFormState()}
}

// Normalize repairs a workspace decoded from an older or empty session.
func (w *Workspace) Normalize() {
	if w.Form == nil {
		w.Form = preferences.NewFormState()
	}
	w.Overlay.Sync(w.View.Revision)
}

// ToggleIngredient flips the done mark of ingredient index on the recipe
// shown at revision.
func (w *Workspace) ToggleIngredient(revision uint64, index int) error {
	count := 0
	if w.View.Recipe != nil {
		count = len(w.View.Recipe.Ingredients)
	}
	return w.Overlay.Toggle(revision, index, count)
}

// Reset clears the form and the results. A request still in flight will
// settle into the fresh workspace.
func (w *Workspace) Reset() {
	w.Form.Reset()
	w.View.Reset()
	w.Overlay = recipe.CheckedOverlay{Revision: w.View.Revision}
}
