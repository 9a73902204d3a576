package webserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/alchemorsel/recipegen/internal/application/generation"
	"github.com/alchemorsel/recipegen/internal/domain/preferences"
	"github.com/alchemorsel/recipegen/internal/domain/recipe"
	"github.com/alchemorsel/recipegen/internal/domain/shared"
	"github.com/alchemorsel/recipegen/internal/domain/view"
	apperrors "github.com/alchemorsel/recipegen/pkg/errors"
)

type contextKey string

const sessionKey contextKey = "session"

// Middleware

func (s *WebServer) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale := s.catalog.Match(r.Header.Get("Accept-Language"))
		sess, created, err := s.sessions.Resolve(r.Context(), r, locale)
		if err != nil {
			s.serverError(w, r, "Failed to load session", err)
			return
		}
		if created {
			http.SetCookie(w, s.sessions.Cookie(sess))
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// csrfMiddleware provides CSRF protection for state-changing requests
func (s *WebServer) csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		sess := sessionFrom(r)
		token := r.Header.Get("X-CSRF-Token")
		if token == "" {
			token = r.PostFormValue("csrf_token")
		}

		if !s.csrf.Valid(sess.ID, token) {
			s.logger.Warn("Invalid CSRF token",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Bool("missing", token == ""),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
			http.Error(w, "Invalid CSRF token", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *WebServer) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sessionFrom(r).Authenticated {
			if isHTMX(r) {
				w.Header().Set("HX-Redirect", "/signin")
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/signin", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Pages

func (s *WebServer) handleHome(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, http.StatusOK, "page", s.newPageData(sessionFrom(r)))
}

func (s *WebServer) handleSignInPage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if sess.Authenticated {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.renderTemplate(w, http.StatusOK, "signin", s.newPageData(sess))
}

func (s *WebServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	// Already signed in: keep the id so in-flight submissions still settle.
	if sess.Authenticated {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	data := s.newPageData(sess)
	data.Username = username

	if !s.signInLimiter.Allow(clientKey(r)) {
		s.metrics.RecordRateLimited("web", "/signin")
		data.SignInError = data.T.Text("error.TOO_MANY_REQUESTS", "You are requesting recipes too quickly. Please wait a moment.")
		w.Header().Set("Retry-After", strconv.Itoa(int(s.signInLimiter.RetryAfter().Seconds())+1))
		s.renderTemplate(w, http.StatusTooManyRequests, "signin", data)
		return
	}

	ok := s.gate.Verify(username, password)
	s.metrics.RecordSignIn(ok)
	if !ok {
		data.SignInError = data.T.Text("signin.invalid", "Invalid username or password")
		s.renderTemplate(w, http.StatusUnauthorized, "signin", data)
		return
	}

	renewed, err := s.sessions.Renew(r.Context(), sess.ID, func(next *Session) {
		next.Authenticated = true
	})
	if err != nil {
		s.serverError(w, r, "Failed to renew session", err)
		return
	}
	http.SetCookie(w, s.sessions.Cookie(renewed))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleSignOut clears the authenticated flag. Form and results stay in the
// session.
func (s *WebServer) handleSignOut(w http.ResponseWriter, r *http.Request) {
	_, err := s.sessions.Do(r.Context(), sessionFrom(r).ID, func(sess *Session) error {
		sess.Authenticated = false
		return nil
	})
	if err != nil {
		s.serverError(w, r, "Failed to sign out", err)
		return
	}
	s.redirect(w, r, "/signin")
}

func (s *WebServer) handleLocale(w http.ResponseWriter, r *http.Request) {
	locale, ok := shared.ParseLocale(r.PostFormValue("locale"))
	if !ok {
		http.Error(w, "Unsupported locale", http.StatusBadRequest)
		return
	}
	_, err := s.sessions.Do(r.Context(), sessionFrom(r).ID, func(sess *Session) error {
		sess.Locale = locale
		return nil
	})
	if err != nil {
		s.serverError(w, r, "Failed to switch locale", err)
		return
	}

	target := "/"
	if !sessionFrom(r).Authenticated {
		target = "/signin"
	}
	s.redirect(w, r, target)
}

// HTMX form interactions

func (s *WebServer) handleAddIngredient(w http.ResponseWriter, r *http.Request) {
	pending := r.PostFormValue("pending")
	s.mutateAndRender(w, r, "form", func(ws *generation.Workspace) error {
		ws.Form.PendingIngredient = pending
		ws.Form.AddIngredient(pending)
		return nil
	})
}

func (s *WebServer) handleRemoveIngredient(w http.ResponseWriter, r *http.Request) {
	item := r.PostFormValue("remove")
	pending := r.PostFormValue("pending")
	s.mutateAndRender(w, r, "form", func(ws *generation.Workspace) error {
		ws.Form.PendingIngredient = pending
		ws.Form.RemoveIngredient(item)
		return nil
	})
}

func (s *WebServer) handleSelect(w http.ResponseWriter, r *http.Request) {
	field := r.PostFormValue("field")
	value := r.PostFormValue(field)
	s.mutateAndRender(w, r, "submit-controls", func(ws *generation.Workspace) error {
		return ws.Form.SetSingleSelect(field, value)
	})
}

func (s *WebServer) handleDietary(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad form", http.StatusBadRequest)
		return
	}
	selected := r.PostForm[preferences.FieldDietary]
	s.mutateAndRender(w, r, "submit-controls", func(ws *generation.Workspace) error {
		for _, option := range preferences.DietaryRestrictions.Values() {
			ws.Form.ToggleDietary(option, contains(selected, option))
		}
		return nil
	})
}

func (s *WebServer) handlePersons(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("numberOfPersons")))
	if err != nil {
		// A half-typed number is not an error, the previous value stays.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.mutateAndRender(w, r, "submit-controls", func(ws *generation.Workspace) error {
		ws.Form.SetPersons(n)
		return nil
	})
}

func (s *WebServer) handleRemarks(w http.ResponseWriter, r *http.Request) {
	remarks := r.PostFormValue("remarks")
	s.mutateAndRender(w, r, "remarks-counter", func(ws *generation.Workspace) error {
		ws.Form.SetRemarks(remarks)
		return nil
	})
}

func (s *WebServer) handleReset(w http.ResponseWriter, r *http.Request) {
	s.mutateAndRender(w, r, "workspace", func(ws *generation.Workspace) error {
		ws.Reset()
		return nil
	})
}

func (s *WebServer) handleResults(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), sessionFrom(r).ID)
	if err != nil {
		s.serverError(w, r, "Failed to load session", err)
		return
	}
	s.renderTemplate(w, http.StatusOK, "results-response", s.newPageData(sess))
}

func (s *WebServer) handleToggleIngredient(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "Bad ingredient index", http.StatusBadRequest)
		return
	}
	revision, err := strconv.ParseUint(r.PostFormValue("revision"), 10, 64)
	if err != nil {
		http.Error(w, "Bad recipe revision", http.StatusBadRequest)
		return
	}

	sess, err := s.sessions.Do(r.Context(), sessionFrom(r).ID, func(sess *Session) error {
		return sess.Workspace.ToggleIngredient(revision, index)
	})
	if errors.Is(err, recipe.ErrIndexOutOfRange) {
		http.Error(w, "No such ingredient", http.StatusNotFound)
		return
	}
	if err != nil {
		s.serverError(w, r, "Failed to toggle ingredient", err)
		return
	}
	s.renderTemplate(w, http.StatusOK, "recipe-ingredients", s.newPageData(sess))
}

// handleGenerate holds the session lock only to begin and to settle. The
// call to the recipe service runs unlocked and is not cancelled when the
// browser goes away.
func (s *WebServer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	id := sessionFrom(r).ID

	if s.config.RateLimit.Enable && !s.generateLimiter.Allow(id) {
		s.metrics.RecordRateLimited("web", "/htmx/generate")
		sess, err := s.sessions.Get(r.Context(), id)
		if err != nil {
			s.serverError(w, r, "Failed to load session", err)
			return
		}
		appErr := apperrors.NewTooManyRequestsError()
		data := s.newPageData(sess)
		data.Notice = &view.Failure{Code: string(appErr.Code), Message: appErr.Message}
		w.Header().Set("Retry-After", strconv.Itoa(int(s.generateLimiter.RetryAfter().Seconds())+1))
		s.renderTemplate(w, http.StatusTooManyRequests, "results-response", data)
		return
	}

	var (
		submission generation.Submission
		started    bool
	)
	_, err := s.sessions.Do(r.Context(), id, func(sess *Session) error {
		submission, started = s.service.Begin(sess.Workspace, sess.Locale)
		return nil
	})
	if err != nil {
		s.serverError(w, r, "Failed to start generation", err)
		return
	}
	if !started {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	dish, genErr := s.service.Generate(context.WithoutCancel(r.Context()), submission.Payload)

	sess, err := s.sessions.Do(context.WithoutCancel(r.Context()), id, func(sess *Session) error {
		s.service.Settle(sess.Workspace, submission.Ticket, dish, genErr)
		return nil
	})
	if errors.Is(err, ErrSessionNotFound) {
		s.logger.Info("Session replaced during generation, result dropped",
			zap.Uint64("ticket", uint64(submission.Ticket)),
		)
		s.redirect(w, r, "/")
		return
	}
	if err != nil {
		s.serverError(w, r, "Failed to store generation result", err)
		return
	}

	if sess.Workspace.View.Current() == view.PhaseSuccess {
		w.Header().Set("HX-Trigger", "recipe-ready")
	}
	s.renderTemplate(w, http.StatusOK, "results-response", s.newPageData(sess))
}

// Helpers

// mutateAndRender applies fn to the session workspace and renders partial.
func (s *WebServer) mutateAndRender(w http.ResponseWriter, r *http.Request, partial string, fn func(*generation.Workspace) error) {
	sess, err := s.sessions.Do(r.Context(), sessionFrom(r).ID, func(sess *Session) error {
		return fn(sess.Workspace)
	})
	if errors.Is(err, preferences.ErrUnknownField) {
		s.logger.Error("Unknown form field", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "Unknown field", http.StatusBadRequest)
		return
	}
	if err != nil {
		s.serverError(w, r, "Failed to update form", err)
		return
	}
	s.renderTemplate(w, http.StatusOK, partial, s.newPageData(sess))
}

func (s *WebServer) redirect(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *WebServer) serverError(w http.ResponseWriter, r *http.Request, message string, err error) {
	s.logger.Error(message,
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func sessionFrom(r *http.Request) *Session {
	sess, _ := r.Context().Value(sessionKey).(*Session)
	return sess
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// clientKey identifies the client for sign-in throttling. RealIP has already
// replaced RemoteAddr with the forwarded address.
func clientKey(r *http.Request) string {
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return host
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
