package webserver

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/alchemorsel/recipegen/internal/domain/preferences"
	"github.com/alchemorsel/recipegen/internal/domain/recipe"
	"github.com/alchemorsel/recipegen/internal/domain/shared"
	"github.com/alchemorsel/recipegen/internal/domain/view"
	"github.com/alchemorsel/recipegen/internal/infrastructure/i18n"
)

//go:embed templates/*
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// pageData is handed to every page and partial template.
type pageData struct {
	T             i18n.Translator
	Locale        shared.Locale
	Locales       []shared.Locale
	CSRFToken     string
	Authenticated bool
	Version       string

	Form    *preferences.FormState
	View    *view.State
	Overlay *recipe.CheckedOverlay

	Cuisines       preferences.Catalog
	DietaryOptions preferences.Catalog
	CookingTimes   preferences.Catalog
	MealTypes      preferences.Catalog
	MinPersons     int
	MaxPersons     int
	RemarksLimit   int

	// Notice is a one-off banner that is not part of the view state.
	Notice *view.Failure

	SignInError string
	Username    string
}

func (s *WebServer) newPageData(sess *Session) *pageData {
	data := &pageData{
		T:              s.catalog.Translator(sess.Locale),
		Locale:         sess.Locale,
		Locales:        shared.SupportedLocales,
		CSRFToken:      s.csrf.Token(sess.ID),
		Authenticated:  sess.Authenticated,
		Version:        s.config.App.Version,
		Cuisines:       preferences.Cuisines,
		DietaryOptions: preferences.DietaryRestrictions,
		CookingTimes:   preferences.CookingTimes,
		MealTypes:      preferences.MealTypes,
		MinPersons:     preferences.MinPersons,
		MaxPersons:     preferences.MaxPersons,
		RemarksLimit:   preferences.RemarksCharLimit,
	}
	if sess.Workspace != nil {
		data.Form = sess.Workspace.Form
		data.View = &sess.Workspace.View
		data.Overlay = &sess.Workspace.Overlay
	}
	return data
}

// Presentation is what the results region shows.
func (p *pageData) Presentation() string {
	return string(p.View.Presentation())
}

func (p *pageData) Loading() bool {
	return p.View.IsLoading()
}

func (p *pageData) CanSubmit() bool {
	return p.Form.CanSubmit() && !p.View.IsLoading()
}

// Checked reports whether ingredient i of the shown recipe is marked done.
func (p *pageData) Checked(i int) bool {
	return p.Overlay.IsChecked(i)
}

// Banner is the failure to show above the results, if any.
func (p *pageData) Banner() *view.Failure {
	if p.Notice != nil {
		return p.Notice
	}
	if p.View != nil && p.View.Current() == view.PhaseError {
		return p.View.Failure
	}
	return nil
}

// FailureText translates a failure, keeping the English message as fallback.
func (p *pageData) FailureText(f *view.Failure) string {
	if f == nil {
		return ""
	}
	return p.T.Textf("error."+f.Code, f.Message, map[string]interface{}{"status": f.Status})
}

func (p *pageData) Label(o preferences.Option) string {
	return p.T.Text(o.LabelKey, o.Value)
}

func (p *pageData) LocaleName(l shared.Locale) string {
	return p.T.Text("language."+l.String(), strings.ToUpper(l.String()))
}

func (p *pageData) WordCount() string {
	return p.T.Textf("form.wordCount", "{{.count}}/{{.max}} words", map[string]interface{}{
		"count": p.Form.RemarksWordCount(),
		"max":   preferences.RemarksWordHint,
	})
}

func (p *pageData) RemoveLabel(item string) string {
	return p.T.Textf("form.removeIngredient", "Remove {{.item}}", map[string]interface{}{"item": item})
}

// parseTemplates parses all HTML templates from the embedded filesystem
func parseTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"inc": func(i int) int { return i + 1 },
		"contains": func(values []string, v string) bool {
			for _, s := range values {
				if s == v {
					return true
				}
			}
			return false
		},
		"join": func(sep string, elems []string) string {
			return strings.Join(elems, sep)
		},
	}

	tmpl := template.New("").Funcs(funcMap)

	err := fs.WalkDir(templatesFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		content, err := templatesFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", path, err)
		}

		// Template name is the path relative to templates/ without extension
		name := strings.TrimSuffix(strings.TrimPrefix(path, "templates/"), ".html")
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk templates: %w", err)
	}

	return tmpl, nil
}

// renderTemplate executes into a buffer first so a failing template never
// leaves a half-written page behind.
func (s *WebServer) renderTemplate(w http.ResponseWriter, status int, name string, data *pageData) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("Failed to execute template",
			zap.String("template", name),
			zap.Error(err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func staticFiles() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
