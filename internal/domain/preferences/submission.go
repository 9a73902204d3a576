package preferences

import (
	"strings"

	"github.com/alchemorsel/recipegen/internal/domain/shared"
)

// NoDietaryRestrictions is sent when no restriction is switched on.
const NoDietaryRestrictions = "none"

// Payload is the request body expected by the recipe service.
type Payload struct {
	Ingredients         string `json:"ingredients"`
	CuisineType         string `json:"cuisineType"`
	DietaryRestrictions string `json:"dietaryRestrictions"`
	CookingTime         string `json:"cookingTime"`
	MealType            string `json:"mealType"`
	NumberOfPersons     int    `json:"numberOfPersons"`
	Remarks             string `json:"remarks"`
	Language            string `json:"language"`
}

// BuildPayload flattens the form. It performs no validation; callers check
// CanSubmit first.
func BuildPayload(form *FormState, locale shared.Locale) Payload {
	dietary := strings.Join(form.DietaryRestrictions, ", ")
	if dietary == "" {
		dietary = NoDietaryRestrictions
	}

	return Payload{
		Ingredients:         strings.Join(form.Ingredients, ", "),
		CuisineType:         form.CuisineType,
		DietaryRestrictions: dietary,
		CookingTime:         form.CookingTime,
		MealType:            form.MealType,
		NumberOfPersons:     form.NumberOfPersons,
		Remarks:             form.Remarks,
		Language:            locale.String(),
	}
}
