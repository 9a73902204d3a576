// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/alchemorsel/recipegen/internal/domain/preferences"
	"github.com/alchemorsel/recipegen/internal/domain/recipe"
)

// RecipeFactory provides methods to create test recipes and filled-in forms
type RecipeFactory struct {
	faker *gofakeit.Faker
}

// NewRecipeFactory creates a new recipe factory with seeded faker
func NewRecipeFactory(seed int64) *RecipeFactory {
	return &RecipeFactory{
		faker: gofakeit.New(seed),
	}
}

// Recipe creates a recipe the way the recipe service would return it
func (f *RecipeFactory) Recipe() *recipe.Recipe {
	return f.RecipeWithIngredients(f.faker.Number(3, 8))
}

// RecipeWithIngredients creates a recipe with exactly n distinct ingredients
func (f *RecipeFactory) RecipeWithIngredients(n int) *recipe.Recipe {
	ingredients := make([]recipe.Ingredient, n)
	for i := range ingredients {
		ingredients[i] = recipe.Ingredient{
			Item:   fmt.Sprintf("%s %d", f.faker.Vegetable(), i+1),
			Amount: fmt.Sprintf("%d %s", f.faker.Number(1, 500), f.faker.RandomString([]string{"g", "ml", "tbsp", "pcs"})),
		}
		if f.faker.Bool() {
			ingredients[i].Notes = f.faker.Adjective()
		}
	}

	steps := f.faker.Number(2, 6)
	instructions := make([]recipe.Instruction, steps)
	for i := range instructions {
		instructions[i] = recipe.Instruction{
			Step:        i + 1,
			Instruction: f.faker.Sentence(8),
			Time:        fmt.Sprintf("%d minutes", f.faker.Number(1, 30)),
		}
	}
	instructions[steps-1].Temperature = fmt.Sprintf("%d°C", f.faker.Number(120, 240))

	prep := f.faker.Number(5, 30)
	cook := f.faker.Number(5, 90)

	return &recipe.Recipe{
		Name:         f.faker.Dessert() + " " + f.faker.Noun(),
		Description:  f.faker.Sentence(12),
		Cuisine:      f.faker.RandomString(preferences.Cuisines.Values()),
		Difficulty:   f.faker.RandomString([]string{"Easy", "Medium", "Hard"}),
		PrepTime:     fmt.Sprintf("%d minutes", prep),
		CookTime:     fmt.Sprintf("%d minutes", cook),
		TotalTime:    fmt.Sprintf("%d minutes", prep+cook),
		Servings:     f.faker.Number(1, 8),
		Ingredients:  ingredients,
		Instructions: instructions,
		Nutrition: recipe.Nutrition{
			Calories:   fmt.Sprintf("%d kcal", f.faker.Number(150, 900)),
			Highlights: []string{"High protein", "Rich in fibre"},
		},
		Tips: []string{f.faker.Sentence(6)},
		Tags: []string{f.faker.Word(), f.faker.Word()},
	}
}

// CompleteForm creates a form that passes CanSubmit
func (f *RecipeFactory) CompleteForm() *preferences.FormState {
	form := preferences.NewFormState()
	for len(form.Ingredients) < 3 {
		form.AddIngredient(f.faker.Vegetable())
	}
	_ = form.SetSingleSelect(preferences.FieldCuisineType, f.faker.RandomString(preferences.Cuisines.Values()))
	_ = form.SetSingleSelect(preferences.FieldCookingTime, f.faker.RandomString(preferences.CookingTimes.Values()))
	_ = form.SetSingleSelect(preferences.FieldMealType, f.faker.RandomString(preferences.MealTypes.Values()))
	form.SetPersons(f.faker.Number(preferences.MinPersons, preferences.MaxPersons))
	return form
}

// RecipeBuilder provides a fluent interface for building test recipes
type RecipeBuilder struct {
	recipe *recipe.Recipe
}

// NewRecipeBuilder creates a new recipe builder with random default values
func NewRecipeBuilder() *RecipeBuilder {
	return &RecipeBuilder{
		recipe: NewRecipeFactory(time.Now().UnixNano()).Recipe(),
	}
}

// WithName sets the recipe name
func (b *RecipeBuilder) WithName(name string) *RecipeBuilder {
	b.recipe.Name = name
	return b
}

// WithIngredients replaces the ingredient list with the given items
func (b *RecipeBuilder) WithIngredients(items ...string) *RecipeBuilder {
	b.recipe.Ingredients = make([]recipe.Ingredient, len(items))
	for i, item := range items {
		b.recipe.Ingredients[i] = recipe.Ingredient{Item: item, Amount: "1"}
	}
	return b
}

// WithoutNutrition clears the nutrition block
func (b *RecipeBuilder) WithoutNutrition() *RecipeBuilder {
	b.recipe.Nutrition = recipe.Nutrition{}
	return b
}

// Build returns the recipe
func (b *RecipeBuilder) Build() *recipe.Recipe {
	return b.recipe
}
