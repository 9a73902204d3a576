package recipe

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type OverlayTestSuite struct {
	suite.Suite
	overlay *CheckedOverlay
}

func (suite *OverlayTestSuite) SetupTest() {
	suite.overlay = &CheckedOverlay{}
	suite.overlay.Sync(1)
}

func (suite *OverlayTestSuite) TestToggle() {
	suite.Run("Index2_ShouldMarkOnlyIndex2", func() {
		// Act
		err := suite.overlay.Toggle(1, 2, 5)

		// Assert
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), []int{2}, suite.overlay.CheckedIndices())
		for i := 0; i < 5; i++ {
			assert.Equal(suite.T(), i == 2, suite.overlay.IsChecked(i))
		}
	})

	suite.Run("SecondToggle_ShouldUnmark", func() {
		require.NoError(suite.T(), suite.overlay.Toggle(1, 2, 5))
		assert.Empty(suite.T(), suite.overlay.CheckedIndices())
	})

	suite.Run("OutOfRange_ShouldFail", func() {
		assert.ErrorIs(suite.T(), suite.overlay.Toggle(1, 5, 5), ErrIndexOutOfRange)
		assert.ErrorIs(suite.T(), suite.overlay.Toggle(1, -1, 5), ErrIndexOutOfRange)
	})

	suite.Run("StaleRevision_ShouldBeIgnored", func() {
		require.NoError(suite.T(), suite.overlay.Toggle(0, 1, 5))
		assert.False(suite.T(), suite.overlay.IsChecked(1))
	})
}

func (suite *OverlayTestSuite) TestSync() {
	require.NoError(suite.T(), suite.overlay.Toggle(1, 0, 3))
	require.NoError(suite.T(), suite.overlay.Toggle(1, 2, 3))

	suite.overlay.Sync(1)
	assert.Equal(suite.T(), []int{0, 2}, suite.overlay.CheckedIndices(), "same recipe keeps marks")

	suite.overlay.Sync(2)
	assert.Empty(suite.T(), suite.overlay.CheckedIndices(), "new recipe resets marks")
	assert.Equal(suite.T(), uint64(2), suite.overlay.Revision)
}

func (suite *OverlayTestSuite) TestToggle_NeverTouchesRecipe() {
	r := Recipe{
		Name:        "Shakshuka",
		Ingredients: []Ingredient{{Item: "eggs", Amount: "4"}, {Item: "tomatoes", Amount: "400 g"}},
	}
	before, err := json.Marshal(r)
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.overlay.Toggle(1, 1, len(r.Ingredients)))

	after, err := json.Marshal(r)
	require.NoError(suite.T(), err)
	assert.JSONEq(suite.T(), string(before), string(after))
}

func TestOverlayTestSuite(t *testing.T) {
	suite.Run(t, new(OverlayTestSuite))
}

func TestRecipe_DecodesServiceShape(t *testing.T) {
	body := `{
		"name": "Pad Thai",
		"description": "Stir-fried noodles",
		"cuisine": "Thai",
		"difficulty": "Medium",
		"prepTime": "15 min",
		"cookTime": "10 min",
		"totalTime": "25 min",
		"servings": 2,
		"ingredients": [{"item": "rice noodles", "amount": "200 g", "notes": "soaked"}, {"item": "lime", "amount": "1"}],
		"instructions": [{"step": 1, "instruction": "Soak noodles", "time": "10 min"}, {"step": 2, "instruction": "Fry", "time": "5 min", "temperature": "high"}],
		"nutrition": {"calories": "550 kcal", "highlights": ["High protein"]},
		"tips": ["Use a wok"],
		"tags": ["quick"]
	}`

	var r Recipe
	require.NoError(t, json.Unmarshal([]byte(body), &r))

	assert.Equal(t, "Pad Thai", r.Name)
	assert.Equal(t, 2, r.Servings)
	require.Len(t, r.Ingredients, 2)
	assert.Equal(t, "soaked", r.Ingredients[0].Notes)
	assert.Empty(t, r.Ingredients[1].Notes)
	assert.Equal(t, "high", r.Instructions[1].Temperature)
	assert.True(t, r.HasNutrition())
	assert.False(t, (&Recipe{}).HasNutrition())
}
