package preferences

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchemorsel/recipegen/internal/domain/shared"
)

func TestBuildPayload(t *testing.T) {
	t.Run("NoDietary_ShouldSendNone", func(t *testing.T) {
		form := NewFormState()
		form.AddIngredient("pasta")
		form.AddIngredient("garlic")
		form.CuisineType = "Italian"
		form.CookingTime = "15-30 minutes"
		form.MealType = "Dinner"
		form.SetRemarks("quick please")

		payload := BuildPayload(form, shared.LocaleDutch)

		assert.Equal(t, Payload{
			Ingredients:         "pasta, garlic",
			CuisineType:         "Italian",
			DietaryRestrictions: "none",
			CookingTime:         "15-30 minutes",
			MealType:            "Dinner",
			NumberOfPersons:     2,
			Remarks:             "quick please",
			Language:            "nl",
		}, payload)
	})

	t.Run("Dietary_ShouldFollowToggleOrder", func(t *testing.T) {
		form := NewFormState()
		form.ToggleDietary("Vegan", true)
		form.ToggleDietary("Gluten-Free", true)
		form.ToggleDietary("Keto", true)
		form.ToggleDietary("Gluten-Free", false)

		payload := BuildPayload(form, shared.LocaleEnglish)

		assert.Equal(t, "Vegan, Keto", payload.DietaryRestrictions)
		assert.Equal(t, "", payload.Ingredients)
		assert.Equal(t, "en", payload.Language)
	})
}

func TestPayload_WireKeys(t *testing.T) {
	body, err := json.Marshal(BuildPayload(NewFormState(), shared.LocaleEnglish))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))

	for _, key := range []string{
		"ingredients", "cuisineType", "dietaryRestrictions", "cookingTime",
		"mealType", "numberOfPersons", "remarks", "language",
	} {
		assert.Contains(t, decoded, key)
	}
	assert.Len(t, decoded, 8)
}
