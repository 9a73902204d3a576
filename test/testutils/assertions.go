// Package testutils provides custom assertions and testing utilities
package testutils

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alchemorsel/recipegen/internal/domain/recipe"
	"github.com/alchemorsel/recipegen/pkg/errors"
)

// RecipeAssertions provides recipe-specific assertion methods
type RecipeAssertions struct {
	t *testing.T
}

// NewRecipeAssertions creates a new recipe assertions helper
func NewRecipeAssertions(t *testing.T) *RecipeAssertions {
	return &RecipeAssertions{t: t}
}

// Rendered asserts that the HTML shows the recipe name and every ingredient item.
// Text is compared after html/template escaping of apostrophes and ampersands.
func (ra *RecipeAssertions) Rendered(body string, r *recipe.Recipe) {
	require.NotNil(ra.t, r, "Recipe should not be nil")
	assert.Contains(ra.t, body, htmlEscape(r.Name), "Recipe name should be rendered")
	for _, ing := range r.Ingredients {
		assert.Contains(ra.t, body, htmlEscape(ing.Item), "Ingredient %q should be rendered", ing.Item)
	}
}

// NotRendered asserts that nothing of the recipe appears in the HTML
func (ra *RecipeAssertions) NotRendered(body string, r *recipe.Recipe) {
	require.NotNil(ra.t, r, "Recipe should not be nil")
	assert.NotContains(ra.t, body, htmlEscape(r.Name), "Recipe name should not be rendered")
}

// HTTPAssertions provides HTTP-specific assertion methods
type HTTPAssertions struct {
	t *testing.T
}

// NewHTTPAssertions creates a new HTTP assertions helper
func NewHTTPAssertions(t *testing.T) *HTTPAssertions {
	return &HTTPAssertions{t: t}
}

// StatusCode asserts the HTTP status code
func (ha *HTTPAssertions) StatusCode(resp *http.Response, expectedCode int, msgAndArgs ...interface{}) {
	require.NotNil(ha.t, resp, "Response should not be nil")
	assert.Equal(ha.t, expectedCode, resp.StatusCode, msgAndArgs...)
}

// JSONResponse asserts that the response is valid JSON and unmarshals it
func (ha *HTTPAssertions) JSONResponse(resp *http.Response, target interface{}) {
	require.NotNil(ha.t, resp, "Response should not be nil")

	contentType := resp.Header.Get("Content-Type")
	assert.True(ha.t, strings.Contains(contentType, "application/json"),
		"Response should have JSON content type, got: %s", contentType)

	err := json.NewDecoder(resp.Body).Decode(target)
	require.NoError(ha.t, err, "Response should be valid JSON")
}

// ErrorResponse asserts that the response is an API error envelope with code
func (ha *HTTPAssertions) ErrorResponse(resp *http.Response, expectedCode errors.ErrorCode) errors.ErrorResponse {
	var errorResp errors.ErrorResponse
	ha.JSONResponse(resp, &errorResp)

	assert.False(ha.t, errorResp.Success)
	assert.Equal(ha.t, expectedCode, errorResp.Error.Code)
	assert.NotEmpty(ha.t, errorResp.Error.Message)
	return errorResp
}

// HasHeader asserts that a header exists
func (ha *HTTPAssertions) HasHeader(resp *http.Response, headerName string) {
	require.NotNil(ha.t, resp, "Response should not be nil")

	_, exists := resp.Header[http.CanonicalHeaderKey(headerName)]
	assert.True(ha.t, exists, "Response should have header %s", headerName)
}

// SecurityHeaders asserts that security headers are present
func (ha *HTTPAssertions) SecurityHeaders(resp *http.Response) {
	for _, header := range []string{
		"X-Content-Type-Options",
		"X-Frame-Options",
		"Content-Security-Policy",
		"Referrer-Policy",
	} {
		ha.HasHeader(resp, header)
	}
}

func htmlEscape(s string) string {
	return strings.NewReplacer("&", "&amp;", "'", "&#39;", "\"", "&#34;", "<", "&lt;", ">", "&gt;").Replace(s)
}
