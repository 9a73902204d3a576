package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_StatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"configuration", NewConfigurationError("webhook.url"), http.StatusServiceUnavailable},
		{"transport", NewTransportError(fmt.Errorf("dial tcp: refused")), http.StatusBadGateway},
		{"protocol", NewProtocolError(http.StatusInternalServerError), http.StatusBadGateway},
		{"format", NewFormatError(nil), http.StatusBadGateway},
		{"service", NewServiceError("success flag was false"), http.StatusBadGateway},
		{"validation", NewValidationError("ingredients is required"), http.StatusUnprocessableEntity},
		{"unauthorized", NewUnauthorizedError(""), http.StatusUnauthorized},
		{"rate limited", NewTooManyRequestsError(), http.StatusTooManyRequests},
		{"internal", NewInternalError(""), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestProtocolError_MentionsStatus(t *testing.T) {
	err := NewProtocolError(http.StatusInternalServerError)

	assert.Contains(t, err.Message, "500")
	assert.Equal(t, http.StatusInternalServerError, err.Metadata["status"])
}

func TestFailureMessagesAreDistinct(t *testing.T) {
	messages := map[string]bool{}
	for _, err := range []*AppError{
		NewConfigurationError("webhook.url"),
		NewTransportError(nil),
		NewProtocolError(http.StatusInternalServerError),
		NewFormatError(nil),
		NewServiceError(""),
	} {
		require.NotEmpty(t, err.Message)
		assert.False(t, messages[err.Message], "duplicate message %q", err.Message)
		messages[err.Message] = true
	}
}

func TestAs_FindsWrappedAppError(t *testing.T) {
	inner := NewServiceError("missing recipe")
	wrapped := fmt.Errorf("generate: %w", inner)

	appErr, ok := As(wrapped)

	require.True(t, ok)
	assert.Same(t, inner, appErr)
	assert.True(t, Is(wrapped, CodeService))
	assert.Equal(t, CodeService, GetCode(wrapped))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ignored"))

	plain := fmt.Errorf("boom")
	wrapped := Wrap(plain, "something broke")
	assert.Equal(t, CodeInternal, wrapped.Code)
	assert.ErrorIs(t, wrapped, plain)

	appErr := NewFormatError(nil)
	assert.Same(t, appErr, Wrap(appErr, "ignored"))
}

func TestToErrorResponse(t *testing.T) {
	resp := ToErrorResponse(NewProtocolError(http.StatusBadGateway), "req-1")

	assert.False(t, resp.Success)
	assert.Equal(t, CodeProtocol, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.NotEmpty(t, resp.Error.Timestamp)
}

func TestValidationErrors_Error(t *testing.T) {
	assert.Equal(t, "validation failed", ValidationErrors{}.Error())

	errs := ValidationErrors{
		{Field: "ingredients", Message: "ingredients is required"},
		{Field: "mealType", Message: "mealType is required"},
	}
	assert.Equal(t, "ingredients is required; mealType is required", errs.Error())
}
