package shared

import "strings"

// Locale is the active display language. It is threaded explicitly to the
// renderer and the submission builder.
type Locale string

const (
	LocaleEnglish Locale = "en"
	LocaleDutch   Locale = "nl"
)

// DefaultLocale is used when nothing else is known about the user.
const DefaultLocale = LocaleEnglish

// SupportedLocales lists the locales with a translation catalog, in display order.
var SupportedLocales = []Locale{LocaleEnglish, LocaleDutch}

// ParseLocale returns the supported locale matching tag, ignoring case and
// any region subtag ("nl-BE" -> nl). ok is false for unsupported tags.
func ParseLocale(tag string) (Locale, bool) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	for _, l := range SupportedLocales {
		if string(l) == tag {
			return l, true
		}
	}
	return DefaultLocale, false
}

// String returns the BCP 47 tag.
func (l Locale) String() string {
	return string(l)
}

// IsSupported reports whether l has a translation catalog.
func (l Locale) IsSupported() bool {
	_, ok := ParseLocale(string(l))
	return ok && l == Locale(strings.ToLower(string(l)))
}
