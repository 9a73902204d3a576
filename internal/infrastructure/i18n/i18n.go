// Package i18n loads the embedded translation catalogs and negotiates the
// display locale from Accept-Language.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/alchemorsel/recipegen/internal/domain/shared"
)

//go:embed locales/*.json
var localesFS embed.FS

// Catalog holds the message bundle of every supported locale.
type Catalog struct {
	bundle   *goi18n.Bundle
	matcher  language.Matcher
	fallback shared.Locale
}

// NewCatalog loads the embedded catalogs. defaultLocale is used when the
// browser asks for nothing we support.
func NewCatalog(defaultLocale string) (*Catalog, error) {
	fallback, ok := shared.ParseLocale(defaultLocale)
	if !ok && defaultLocale != "" {
		return nil, fmt.Errorf("unsupported default locale %q", defaultLocale)
	}

	// Missing keys fall back to the English messages, then to the caller's literal.
	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	// The first tag is what the matcher falls back to.
	tags := []language.Tag{language.Make(fallback.String())}
	for _, locale := range shared.SupportedLocales {
		if _, err := bundle.LoadMessageFileFS(localesFS, catalogPath(locale)); err != nil {
			return nil, fmt.Errorf("failed to load %s catalog: %w", locale, err)
		}
		if locale != fallback {
			tags = append(tags, language.Make(locale.String()))
		}
	}

	return &Catalog{
		bundle:   bundle,
		matcher:  language.NewMatcher(tags),
		fallback: fallback,
	}, nil
}

func catalogPath(locale shared.Locale) string {
	return "locales/" + locale.String() + ".json"
}

// Match picks the best supported locale for an Accept-Language header.
func (c *Catalog) Match(acceptLanguage ...string) shared.Locale {
	tag, _ := language.MatchStrings(c.matcher, acceptLanguage...)
	base, _ := tag.Base()
	if locale, ok := shared.ParseLocale(base.String()); ok {
		return locale
	}
	return c.fallback
}

// Translator returns the message lookup for locale.
func (c *Catalog) Translator(locale shared.Locale) Translator {
	if !locale.IsSupported() {
		locale = c.fallback
	}
	return Translator{
		Locale:    locale,
		localizer: goi18n.NewLocalizer(c.bundle, locale.String()),
	}
}

// Translator resolves message keys for one locale.
type Translator struct {
	Locale    shared.Locale
	localizer *goi18n.Localizer
}

// Text returns the message for key, or fallback when no catalog has it.
func (t Translator) Text(key, fallback string) string {
	return t.Textf(key, fallback, nil)
}

// Textf returns the message for key with {{.name}} placeholders filled from
// data. fallback is rendered the same way.
func (t Translator) Textf(key, fallback string, data map[string]interface{}) string {
	if t.localizer == nil {
		return fallback
	}
	// A missing key still renders the default message, with a not-found error.
	msg, _ := t.localizer.Localize(&goi18n.LocalizeConfig{
		DefaultMessage: &goi18n.Message{ID: key, Other: fallback},
		TemplateData:   data,
	})
	if msg == "" {
		return fallback
	}
	return msg
}
