package i18n

import (
	"encoding/json"
	"testing"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/alchemorsel/recipegen/internal/domain/preferences"
	"github.com/alchemorsel/recipegen/internal/domain/shared"
)

func newCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog("en")
	require.NoError(t, err)
	return c
}

func TestNewCatalog_UnsupportedDefault(t *testing.T) {
	_, err := NewCatalog("fr")
	assert.Error(t, err)
}

func TestMatch(t *testing.T) {
	c := newCatalog(t)

	tests := []struct {
		header string
		want   shared.Locale
	}{
		{"nl-NL,nl;q=0.9,en;q=0.8", shared.LocaleDutch},
		{"nl-BE", shared.LocaleDutch},
		{"en-GB,en;q=0.9", shared.LocaleEnglish},
		{"de-DE,fr;q=0.5", shared.LocaleEnglish},
		{"", shared.LocaleEnglish},
		{"fr;q=0.9,nl;q=0.4", shared.LocaleDutch},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Match(tt.header))
		})
	}
}

func TestMatch_DutchDefault(t *testing.T) {
	c, err := NewCatalog("nl")
	require.NoError(t, err)

	assert.Equal(t, shared.LocaleDutch, c.Match("de"))
	assert.Equal(t, shared.LocaleEnglish, c.Match("en-US"))
}

func TestTranslator_Text(t *testing.T) {
	c := newCatalog(t)
	nl := c.Translator(shared.LocaleDutch)
	en := c.Translator(shared.LocaleEnglish)

	assert.Equal(t, "Recept genereren", nl.Text("form.submit", "Generate Recipe"))
	assert.Equal(t, "Generate Recipe", en.Text("form.submit", "x"))
	assert.Equal(t, "literal", nl.Text("missing.key", "literal"))

	unknown := c.Translator(shared.Locale("fr"))
	assert.Equal(t, shared.LocaleEnglish, unknown.Locale)
}

func TestTranslator_Textf(t *testing.T) {
	en := newCatalog(t).Translator(shared.LocaleEnglish)

	assert.Equal(t, "12/200 words", en.Textf("form.wordCount", "", map[string]interface{}{"count": 12, "max": 200}))
	assert.Contains(t, en.Textf("error.PROTOCOL_ERROR", "", map[string]interface{}{"status": 500}), "500")
	assert.Equal(t, "plain", en.Textf("missing", "plain", nil))
	assert.Equal(t, "Drop kale", en.Textf("missing", "Drop {{.item}}", map[string]interface{}{"item": "kale"}))
}

func TestTranslator_DutchFallsBackToEnglishThenLiteral(t *testing.T) {
	c := newCatalog(t)
	require.NoError(t, c.bundle.AddMessages(language.English, &goi18n.Message{ID: "only.english", Other: "English only"}))
	nl := c.Translator(shared.LocaleDutch)

	assert.Equal(t, "English only", nl.Text("only.english", "literal"))
	assert.Equal(t, "literal", nl.Text("nowhere", "literal"))
	assert.Equal(t, "ui verwijderen", nl.Textf("form.removeIngredient", "", map[string]interface{}{"item": "ui"}))
}

func TestTranslator_ZeroValueReturnsFallback(t *testing.T) {
	var tr Translator

	assert.Equal(t, "literal", tr.Text("form.submit", "literal"))
}

func TestCatalogs_CoverEveryOption(t *testing.T) {
	for _, locale := range shared.SupportedLocales {
		raw, err := localesFS.ReadFile(catalogPath(locale))
		require.NoError(t, err)
		var messages map[string]string
		require.NoError(t, json.Unmarshal(raw, &messages))

		for _, catalog := range preferences.Catalogs() {
			for _, opt := range catalog.Options {
				assert.NotEmpty(t, messages[opt.LabelKey], "%s missing %s", locale, opt.LabelKey)
			}
		}
	}
}
