// Package recipe models the structured recipe returned by the recipe service
// and the per-display marks a user puts on it.
package recipe

import "errors"

var (
	ErrMissingRecipe   = errors.New("response carries no recipe")
	ErrIndexOutOfRange = errors.New("ingredient index out of range")
)

// Recipe is received wholesale from the recipe service and never modified.
type Recipe struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Cuisine      string        `json:"cuisine"`
	Difficulty   string        `json:"difficulty"`
	PrepTime     string        `json:"prepTime"`
	CookTime     string        `json:"cookTime"`
	TotalTime    string        `json:"totalTime"`
	Servings     int           `json:"servings"`
	Ingredients  []Ingredient  `json:"ingredients"`
	Instructions []Instruction `json:"instructions"`
	Nutrition    Nutrition     `json:"nutrition"`
	Tips         []string      `json:"tips"`
	Tags         []string      `json:"tags"`
}

// Ingredient is one line of the shopping list.
type Ingredient struct {
	Item   string `json:"item"`
	Amount string `json:"amount"`
	Notes  string `json:"notes,omitempty"`
}

// Instruction is a numbered cooking step.
type Instruction struct {
	Step        int    `json:"step"`
	Instruction string `json:"instruction"`
	Time        string `json:"time"`
	Temperature string `json:"temperature,omitempty"`
}

type Nutrition struct {
	Calories   string   `json:"calories"`
	Highlights []string `json:"highlights"`
}

// HasNutrition reports whether there is anything to show in the nutrition block.
func (r *Recipe) HasNutrition() bool {
	return r.Nutrition.Calories != "" || len(r.Nutrition.Highlights) > 0
}
