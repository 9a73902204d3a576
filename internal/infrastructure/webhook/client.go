// Package webhook implements the RecipeGenerator port against the external
// recipe service: an HTTP POST with Basic auth and a JSON body.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/alchemorsel/recipegen/internal/domain/preferences"
	"github.com/alchemorsel/recipegen/internal/domain/recipe"
	"github.com/alchemorsel/recipegen/internal/infrastructure/config"
	"github.com/alchemorsel/recipegen/internal/ports/outbound"
	"github.com/alchemorsel/recipegen/pkg/errors"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 4 << 20

// Client calls the recipe service
type Client struct {
	cfg        config.WebhookConfig
	httpClient *http.Client
	logger     *zap.Logger
}

var _ outbound.RecipeGenerator = (*Client)(nil)

// envelope is the response body shape. Fields stay raw so that a missing
// field, a null and a wrongly typed value can be told apart.
type envelope struct {
	Success   json.RawMessage `json:"success"`
	Recipe    json.RawMessage `json:"recipe"`
	Timestamp json.RawMessage `json:"timestamp"`
	Error     json.RawMessage `json:"error"`
	Message   json.RawMessage `json:"message"`
}

// NewClient creates a recipe service client. A zero timeout leaves the
// deadline to the transport.
func NewClient(cfg config.WebhookConfig, logger *zap.Logger) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.Named("recipe-webhook"),
	}
}

// Configured reports the first unusable setting, or nil when all are usable.
func (c *Client) Configured() error {
	return CheckConfig(c.cfg)
}

// Generate sends payload and decodes the recipe. Failures are classified as
// configuration, transport, protocol, format or service errors.
func (c *Client) Generate(ctx context.Context, payload preferences.Payload) (*recipe.Recipe, error) {
	if err := c.Configured(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.NewInternalError("failed to encode recipe request").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewConfigurationError("webhook.url").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)

	c.logger.Debug("Recipe service request",
		zap.String("method", req.Method),
		zap.String("url", redact(req.URL)),
		zap.String("language", payload.Language),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.NewTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("Recipe service error response",
			zap.Int("status", resp.StatusCode),
			zap.Int("body_bytes", len(raw)),
		)
		return nil, errors.NewProtocolError(resp.StatusCode)
	}

	return decode(raw)
}

func decode(raw []byte) (*recipe.Recipe, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.NewFormatError(fmt.Errorf("response body is not a JSON object"))
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, errors.NewFormatError(err)
	}

	if !truthy(env.Success) {
		reason := serviceReason(env)
		if reason == "" {
			reason = "The service did not report success"
		}
		return nil, errors.NewServiceError(reason)
	}

	if isNull(env.Recipe) {
		return nil, errors.NewServiceError(recipe.ErrMissingRecipe.Error())
	}

	var r recipe.Recipe
	if err := json.Unmarshal(env.Recipe, &r); err != nil {
		return nil, errors.NewFormatError(err)
	}
	return &r, nil
}

// truthy follows JavaScript truthiness for decoded JSON values.
func truthy(raw json.RawMessage) bool {
	if isNull(raw) {
		return false
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case nil:
		return false
	default:
		return true
	}
}

func isNull(raw json.RawMessage) bool {
	s := bytes.TrimSpace(raw)
	return len(s) == 0 || bytes.Equal(s, []byte("null"))
}

// serviceReason returns the service's own error text, if it sent one.
func serviceReason(env envelope) string {
	for _, raw := range []json.RawMessage{env.Error, env.Message} {
		var s string
		if !isNull(raw) && json.Unmarshal(raw, &s) == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func redact(u *url.URL) string {
	c := *u
	c.User = nil
	c.RawQuery = ""
	return c.String()
}
