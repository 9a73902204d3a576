package webhook

import (
	"net/url"
	"strings"

	"github.com/alchemorsel/recipegen/internal/infrastructure/config"
	"github.com/alchemorsel/recipegen/pkg/errors"
)

// placeholderPrefixes are lower-cased prefixes of values copied from an
// example env file and never filled in.
var placeholderPrefixes = []string{"your_", "your-", "your ", "changeme", "replace_me", "replace-me"}

// IsPlaceholder reports whether v is empty or an obvious template value such
// as YOUR_WEBHOOK_URL, your-password, changeme or <password>.
func IsPlaceholder(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	if strings.HasPrefix(v, "<") && strings.HasSuffix(v, ">") {
		return true
	}
	lower := strings.ToLower(v)
	for _, p := range placeholderPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// CheckConfig validates the recipe service settings without any I/O.
func CheckConfig(cfg config.WebhookConfig) error {
	if IsPlaceholder(cfg.URL) {
		return errors.NewConfigurationError("webhook.url")
	}
	u, err := url.Parse(strings.TrimSpace(cfg.URL))
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.NewConfigurationError("webhook.url")
	}
	if IsPlaceholder(cfg.Username) {
		return errors.NewConfigurationError("webhook.username")
	}
	if IsPlaceholder(cfg.Password) {
		return errors.NewConfigurationError("webhook.password")
	}
	return nil
}
