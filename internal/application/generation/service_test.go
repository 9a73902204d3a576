package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/alchemorsel/recipegen/internal/domain/preferences"
	"github.com/alchemorsel/recipegen/internal/domain/shared"
	"github.com/alchemorsel/recipegen/internal/domain/view"
	"github.com/alchemorsel/recipegen/internal/ports/inbound"
	"github.com/alchemorsel/recipegen/pkg/errors"
	"github.com/alchemorsel/recipegen/test/testutils"
)

// ServiceTestSuite drives the submit/settle flow against a mocked recipe service
type ServiceTestSuite struct {
	suite.Suite
	generator *testutils.MockRecipeGenerator
	metrics   *testutils.MockGenerationMetrics
	service   *Service
	factory   *testutils.RecipeFactory
	ws        *Workspace
}

func (suite *ServiceTestSuite) SetupTest() {
	suite.generator = testutils.NewMockRecipeGenerator()
	suite.metrics = testutils.NewMockGenerationMetrics()
	suite.service = NewService(suite.generator, suite.metrics, zap.NewNop())
	suite.factory = testutils.NewRecipeFactory(42)
	suite.ws = NewWorkspace()
	suite.ws.Form = suite.factory.CompleteForm()
}

func (suite *ServiceTestSuite) run(locale shared.Locale) view.Settlement {
	sub, ok := suite.service.Begin(suite.ws, locale)
	require.True(suite.T(), ok)
	r, err := suite.service.Generate(context.Background(), sub.Payload)
	return suite.service.Settle(suite.ws, sub.Ticket, r, err)
}

func (suite *ServiceTestSuite) TestBegin_IncompleteFormIsInert() {
	// Arrange
	suite.ws.Form.MealType = ""

	// Act
	_, ok := suite.service.Begin(suite.ws, shared.LocaleEnglish)

	// Assert
	assert.False(suite.T(), ok)
	assert.Equal(suite.T(), view.PhaseIdle, suite.ws.View.Current())
	_, blocked, _ := suite.metrics.Snapshot()
	assert.Equal(suite.T(), 1, blocked)
	suite.generator.AssertNotCalled(suite.T(), "Generate", mock.Anything, mock.Anything)
}

func (suite *ServiceTestSuite) TestBegin_BuildsPayloadAndEntersLoading() {
	sub, ok := suite.service.Begin(suite.ws, shared.LocaleDutch)

	require.True(suite.T(), ok)
	assert.Equal(suite.T(), view.PhaseLoading, suite.ws.View.Current())
	assert.Equal(suite.T(), "nl", sub.Payload.Language)
	assert.Equal(suite.T(), preferences.NoDietaryRestrictions, sub.Payload.DietaryRestrictions)
	assert.Equal(suite.T(), view.Ticket(1), sub.Ticket)
}

func (suite *ServiceTestSuite) TestSuccess_ShowsRecipeAndResetsOverlay() {
	// Arrange
	first := suite.factory.RecipeWithIngredients(4)
	second := suite.factory.RecipeWithIngredients(4)
	suite.generator.On("Generate", mock.Anything, mock.Anything).Return(first, nil).Once()
	suite.generator.On("Generate", mock.Anything, mock.Anything).Return(second, nil).Once()

	// Act
	suite.run(shared.LocaleEnglish)
	require.NoError(suite.T(), suite.ws.ToggleIngredient(suite.ws.View.Revision, 2))
	assert.True(suite.T(), suite.ws.Overlay.IsChecked(2))
	suite.run(shared.LocaleEnglish)

	// Assert
	assert.Equal(suite.T(), view.PhaseSuccess, suite.ws.View.Current())
	assert.Same(suite.T(), second, suite.ws.View.Recipe)
	assert.Empty(suite.T(), suite.ws.Overlay.CheckedIndices())
	codes, _, _ := suite.metrics.Snapshot()
	assert.Equal(suite.T(), []string{"", ""}, codes)
	suite.generator.AssertExpectations(suite.T())
}

func (suite *ServiceTestSuite) TestFailures_AreDistinct() {
	cases := []struct {
		name string
		err  error
		code errors.ErrorCode
	}{
		{"Protocol", errors.NewProtocolError(http.StatusInternalServerError), errors.CodeProtocol},
		{"Service", errors.NewServiceError("success flag was false"), errors.CodeService},
		{"Configuration", errors.NewConfigurationError("webhook.url"), errors.CodeConfiguration},
		{"Unclassified", assert.AnError, errors.CodeInternal},
	}

	messages := map[string]bool{}
	for _, tc := range cases {
		suite.Run(tc.name, func() {
			// Arrange
			suite.SetupTest()
			suite.generator.On("Generate", mock.Anything, mock.Anything).Return(nil, tc.err)

			// Act
			suite.run(shared.LocaleEnglish)

			// Assert
			failure := suite.ws.View.Failure
			require.NotNil(suite.T(), failure)
			assert.Equal(suite.T(), view.PhaseError, suite.ws.View.Current())
			assert.Nil(suite.T(), suite.ws.View.Recipe)
			assert.Equal(suite.T(), string(tc.code), failure.Code)
			assert.NotEmpty(suite.T(), failure.Message)
			assert.False(suite.T(), messages[failure.Message], "message reused: %s", failure.Message)
			messages[failure.Message] = true
		})
	}
}

func (suite *ServiceTestSuite) TestProtocolFailure_CarriesStatus() {
	suite.generator.On("Generate", mock.Anything, mock.Anything).
		Return(nil, errors.NewProtocolError(http.StatusInternalServerError))

	suite.run(shared.LocaleEnglish)

	assert.Equal(suite.T(), http.StatusInternalServerError, suite.ws.View.Failure.Status)
	assert.Contains(suite.T(), suite.ws.View.Failure.Message, "500")
}

func (suite *ServiceTestSuite) TestNilRecipeWithoutError_IsServiceError() {
	suite.generator.On("Generate", mock.Anything, mock.Anything).Return(nil, nil)

	suite.run(shared.LocaleEnglish)

	assert.Equal(suite.T(), string(errors.CodeService), suite.ws.View.Failure.Code)
}

func (suite *ServiceTestSuite) TestStaleSettle_IsAppliedAndCounted() {
	// Arrange
	older, ok := suite.service.Begin(suite.ws, shared.LocaleEnglish)
	require.True(suite.T(), ok)
	newer, ok := suite.service.Begin(suite.ws, shared.LocaleEnglish)
	require.True(suite.T(), ok)
	late := suite.factory.Recipe()

	// Act
	suite.service.Settle(suite.ws, newer.Ticket, nil, errors.NewTransportError(context.DeadlineExceeded))
	settled := suite.service.Settle(suite.ws, older.Ticket, late, nil)

	// Assert
	assert.True(suite.T(), settled.Stale)
	assert.Same(suite.T(), late, suite.ws.View.Recipe)
	_, _, stale := suite.metrics.Snapshot()
	assert.Equal(suite.T(), 1, stale)
}

func (suite *ServiceTestSuite) TestGenerateRecipe() {
	suite.Run("IncompleteForm_ShouldFailValidation", func() {
		_, err := suite.service.GenerateRecipe(context.Background(), inbound.GenerateRecipeCommand{
			Form:   preferences.NewFormState(),
			Locale: shared.LocaleEnglish,
		})

		assert.True(suite.T(), errors.Is(err, errors.CodeValidationFailed))
	})

	suite.Run("CompleteForm_ShouldReturnRecipe", func() {
		dish := suite.factory.Recipe()
		suite.generator.On("Generate", mock.Anything, mock.MatchedBy(func(p preferences.Payload) bool {
			return p.Language == "nl"
		})).Return(dish, nil).Once()

		got, err := suite.service.GenerateRecipe(context.Background(), inbound.GenerateRecipeCommand{
			Form:   suite.factory.CompleteForm(),
			Locale: shared.LocaleDutch,
		})

		require.NoError(suite.T(), err)
		assert.Same(suite.T(), dish, got)
	})
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func TestWorkspace_SurvivesJSON(t *testing.T) {
	ws := NewWorkspace()
	ws.Form = testutils.NewRecipeFactory(7).CompleteForm()
	ticket := ws.View.Begin()
	ws.View.Succeed(ticket, testutils.NewRecipeFactory(7).RecipeWithIngredients(3))
	ws.Overlay.Sync(ws.View.Revision)
	require.NoError(t, ws.ToggleIngredient(ws.View.Revision, 1))

	raw, err := json.Marshal(ws)
	require.NoError(t, err)

	var decoded Workspace
	require.NoError(t, json.Unmarshal(raw, &decoded))
	decoded.Normalize()

	assert.Equal(t, ws.Form, decoded.Form)
	assert.Equal(t, view.PhaseSuccess, decoded.View.Current())
	assert.True(t, decoded.Overlay.IsChecked(1))
	assert.Equal(t, ws.View.Revision, decoded.Overlay.Revision)
}

func TestWorkspace_Reset(t *testing.T) {
	ws := NewWorkspace()
	ws.Form.AddIngredient("kale")
	ws.View.Succeed(ws.View.Begin(), testutils.NewRecipeFactory(1).Recipe())

	ws.Reset()

	assert.Empty(t, ws.Form.Ingredients)
	assert.Equal(t, view.PhaseIdle, ws.View.Current())
	assert.Empty(t, ws.Overlay.CheckedIndices())
}

func TestWorkspace_NormalizeEmpty(t *testing.T) {
	var ws Workspace

	ws.Normalize()

	require.NotNil(t, ws.Form)
	assert.Equal(t, preferences.DefaultPersons, ws.Form.NumberOfPersons)
}

func TestService_RecordsDuration(t *testing.T) {
	generator := testutils.NewMockRecipeGenerator()
	generator.On("Generate", mock.Anything, mock.Anything).Return(testutils.NewRecipeFactory(3).Recipe(), nil)
	service := NewService(generator, nil, zap.NewNop())

	calls := 0
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}

	_, err := service.Generate(context.Background(), preferences.Payload{})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
