// Package preferences holds the recipe preference form and turns it into the
// payload sent to the recipe service.
package preferences

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Field names accepted by SetSingleSelect. They match the wire payload keys.
const (
	FieldCuisineType = "cuisineType"
	FieldCookingTime = "cookingTime"
	FieldMealType    = "mealType"
	FieldDietary     = "dietaryRestrictions"
)

const (
	DefaultPersons = 2
	MinPersons     = 1
	MaxPersons     = 20

	// RemarksCharLimit is the only hard limit on remarks.
	RemarksCharLimit = 1200
	// RemarksWordHint is shown next to the word counter; it is not enforced.
	RemarksWordHint = 200
)

var ErrUnknownField = errors.New("unknown single-select field")

// FormState is the pending user input. The zero value is not ready for use;
// call NewFormState.
type FormState struct {
	Ingredients         []string `json:"ingredients"`
	PendingIngredient   string   `json:"pendingIngredient"`
	CuisineType         string   `json:"cuisineType"`
	CookingTime         string   `json:"cookingTime"`
	MealType            string   `json:"mealType"`
	DietaryRestrictions []string `json:"dietaryRestrictions"`
	NumberOfPersons     int      `json:"numberOfPersons"`
	Remarks             string   `json:"remarks"`
}

// NewFormState returns an empty form with the default party size.
func NewFormState() *FormState {
	return &FormState{
		Ingredients:         []string{},
		DietaryRestrictions: []string{},
		NumberOfPersons:     DefaultPersons,
	}
}

// AddIngredient appends the trimmed text unless it is empty or already listed.
// The pending input is cleared only when something was added.
func (f *FormState) AddIngredient(text string) bool {
	item := strings.TrimSpace(text)
	if item == "" || f.HasIngredient(item) {
		return false
	}
	f.Ingredients = append(f.Ingredients, item)
	f.PendingIngredient = ""
	return true
}

// HasIngredient does a case-sensitive exact match.
func (f *FormState) HasIngredient(item string) bool {
	for _, existing := range f.Ingredients {
		if existing == item {
			return true
		}
	}
	return false
}

// RemoveIngredient removes value if present.
func (f *FormState) RemoveIngredient(value string) {
	for i, existing := range f.Ingredients {
		if existing == value {
			f.Ingredients = append(f.Ingredients[:i:i], f.Ingredients[i+1:]...)
			return
		}
	}
}

func (f *FormState) SetSingleSelect(field, value string) error {
	switch field {
	case FieldCuisineType:
		f.CuisineType = value
	case FieldCookingTime:
		f.CookingTime = value
	case FieldMealType:
		f.MealType = value
	default:
		return ErrUnknownField
	}
	return nil
}

// ToggleDietary keeps restrictions in the order they were switched on.
func (f *FormState) ToggleDietary(option string, included bool) {
	idx := -1
	for i, existing := range f.DietaryRestrictions {
		if existing == option {
			idx = i
			break
		}
	}

	switch {
	case included && idx < 0:
		f.DietaryRestrictions = append(f.DietaryRestrictions, option)
	case !included && idx >= 0:
		f.DietaryRestrictions = append(f.DietaryRestrictions[:idx:idx], f.DietaryRestrictions[idx+1:]...)
	}
}

// HasDietary reports whether option is switched on.
func (f *FormState) HasDietary(option string) bool {
	for _, existing := range f.DietaryRestrictions {
		if existing == option {
			return true
		}
	}
	return false
}

// SetPersons stores n as given. MinPersons and MaxPersons are input hints only.
func (f *FormState) SetPersons(n int) {
	f.NumberOfPersons = n
}

// SetRemarks stores text cut at RemarksCharLimit characters.
func (f *FormState) SetRemarks(text string) {
	if utf8.RuneCountInString(text) > RemarksCharLimit {
		text = string([]rune(text)[:RemarksCharLimit])
	}
	f.Remarks = text
}

// RemarksWordCount counts whitespace separated words in the remarks.
func (f *FormState) RemarksWordCount() int {
	return len(strings.Fields(f.Remarks))
}

// CanSubmit is true when at least one ingredient is listed and all three
// single-selects have a value.
func (f *FormState) CanSubmit() bool {
	return len(f.Ingredients) > 0 &&
		f.CuisineType != "" &&
		f.CookingTime != "" &&
		f.MealType != ""
}

// Reset discards all input.
func (f *FormState) Reset() {
	*f = *NewFormState()
}
