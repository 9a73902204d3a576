package apiserver

import (
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alchemorsel/recipegen/internal/domain/preferences"
	"github.com/alchemorsel/recipegen/internal/domain/recipe"
	"github.com/alchemorsel/recipegen/internal/domain/shared"
	"github.com/alchemorsel/recipegen/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/recipegen/internal/ports/inbound"
	"github.com/alchemorsel/recipegen/pkg/errors"
)

// GenerateRecipeRequest mirrors the form. Only presence is validated; option
// values are passed through to the recipe service as given.
type GenerateRecipeRequest struct {
	Ingredients         []string `json:"ingredients" binding:"required,min=1,dive,required"`
	CuisineType         string   `json:"cuisineType" binding:"required"`
	DietaryRestrictions []string `json:"dietaryRestrictions"`
	CookingTime         string   `json:"cookingTime" binding:"required"`
	MealType            string   `json:"mealType" binding:"required"`
	NumberOfPersons     int      `json:"numberOfPersons"`
	Remarks             string   `json:"remarks"`
	Language            string   `json:"language"`
}

// GenerateRecipeResponse is the success envelope of POST /recipes/generate
type GenerateRecipeResponse struct {
	Success   bool           `json:"success"`
	Recipe    *recipe.Recipe `json:"recipe"`
	Language  shared.Locale  `json:"language"`
	Timestamp string         `json:"timestamp"`
}

// OptionView is one translated choice
type OptionView struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// CatalogView is one translated option catalog
type CatalogView struct {
	Field   string       `json:"field"`
	Options []OptionView `json:"options"`
}

// basicAuth checks HTTP Basic credentials against the sign-in gate.
func (s *APIServer) basicAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok || !s.gate.Verify(username, password) {
			s.logger.Warn("Rejected API credentials",
				zap.String("request_id", c.GetString(middleware.RequestIDKey)),
				zap.Bool("provided", ok),
				zap.String("ip", c.ClientIP()),
			)
			appErr := errors.NewUnauthorizedError("Valid credentials are required")
			c.Header("WWW-Authenticate", `Basic realm="recipegen", charset="UTF-8"`)
			c.AbortWithStatusJSON(appErr.StatusCode(), errors.ToErrorResponse(appErr, c.GetString(middleware.RequestIDKey)))
			return
		}
		c.Next()
	}
}

func (s *APIServer) handleGenerateRecipe(c *gin.Context) {
	var req GenerateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindingError(err))
		return
	}

	locale := s.locale(c, req.Language)
	r, err := s.service.GenerateRecipe(c.Request.Context(), inbound.GenerateRecipeCommand{
		Form:   req.toForm(),
		Locale: locale,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, GenerateRecipeResponse{
		Success:   true,
		Recipe:    r,
		Language:  locale,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *APIServer) handleOptions(c *gin.Context) {
	locale := s.locale(c, c.Query("lang"))
	t := s.catalog.Translator(locale)

	catalogs := preferences.Catalogs()
	views := make([]CatalogView, 0, len(catalogs))
	for _, catalog := range catalogs {
		view := CatalogView{Field: catalog.Field, Options: make([]OptionView, 0, len(catalog.Options))}
		for _, o := range catalog.Options {
			view.Options = append(view.Options, OptionView{Value: o.Value, Label: t.Text(o.LabelKey, o.Value)})
		}
		views = append(views, view)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"locale":      locale,
			"catalogs":    views,
			"min_persons": preferences.MinPersons,
			"max_persons": preferences.MaxPersons,
			"remarks_max": preferences.RemarksCharLimit,
		},
	})
}

// locale prefers an explicit supported language and falls back to
// Accept-Language negotiation.
func (s *APIServer) locale(c *gin.Context, explicit string) shared.Locale {
	if l, ok := shared.ParseLocale(explicit); ok {
		return l
	}
	return s.catalog.Match(c.GetHeader("Accept-Language"))
}

func (req GenerateRecipeRequest) toForm() *preferences.FormState {
	form := preferences.NewFormState()
	for _, item := range req.Ingredients {
		form.AddIngredient(item)
	}
	_ = form.SetSingleSelect(preferences.FieldCuisineType, req.CuisineType)
	_ = form.SetSingleSelect(preferences.FieldCookingTime, req.CookingTime)
	_ = form.SetSingleSelect(preferences.FieldMealType, req.MealType)
	for _, option := range req.DietaryRestrictions {
		if option = strings.TrimSpace(option); option != "" {
			form.ToggleDietary(option, true)
		}
	}
	if req.NumberOfPersons != 0 {
		form.SetPersons(req.NumberOfPersons)
	}
	form.SetRemarks(req.Remarks)
	return form
}

// bindingError turns gin binding failures into API errors. Validator errors
// list every failing field; anything else is a malformed body.
func bindingError(err error) *errors.AppError {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.NewBadRequestError("Request body must be a JSON object").WithCause(err)
	}

	fields := make([]errors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, errors.ValidationError{
			Field:   jsonFieldName(fe),
			Value:   fe.Value(),
			Tag:     fe.Tag(),
			Message: validationMessage(fe),
		})
	}
	return errors.NewValidationErrors(fields)
}

func jsonFieldName(fe validator.FieldError) string {
	switch fe.StructField() {
	case "Ingredients":
		return "ingredients"
	case "CuisineType":
		return preferences.FieldCuisineType
	case "CookingTime":
		return preferences.FieldCookingTime
	case "MealType":
		return preferences.FieldMealType
	}
	// dive errors carry the element index, e.g. Ingredients[2]
	if strings.HasPrefix(fe.StructField(), "Ingredients[") {
		return "ingredients" + strings.TrimPrefix(fe.StructField(), "Ingredients")
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return jsonFieldName(fe) + " is required"
	case "min":
		return jsonFieldName(fe) + " must contain at least " + fe.Param() + " item"
	default:
		return jsonFieldName(fe) + " is invalid"
	}
}
