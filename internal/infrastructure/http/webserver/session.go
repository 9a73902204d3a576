// Package webserver provides the HTMX web frontend: chi routing, server-side
// sessions and template rendering.
package webserver

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alchemorsel/recipegen/internal/application/generation"
	"github.com/alchemorsel/recipegen/internal/domain/shared"
	"github.com/alchemorsel/recipegen/internal/infrastructure/config"
)

// ErrSessionNotFound is returned by backends for unknown or expired ids.
var ErrSessionNotFound = errors.New("session not found")

// Session is the per-browser state. It never holds the webhook credentials.
type Session struct {
	ID            string                `json:"id"`
	Authenticated bool                  `json:"authenticated"`
	Locale        shared.Locale         `json:"locale"`
	Workspace     *generation.Workspace `json:"workspace"`
	CreatedAt     time.Time             `json:"created_at"`
	ExpiresAt     time.Time             `json:"expires_at"`
}

func (s *Session) normalize() {
	if s.Workspace == nil {
		s.Workspace = generation.NewWorkspace()
	}
	s.Workspace.Normalize()
	if !s.Locale.IsSupported() {
		s.Locale = shared.DefaultLocale
	}
}

// SessionBackend persists encoded sessions.
type SessionBackend interface {
	Load(ctx context.Context, id string) ([]byte, error)
	Save(ctx context.Context, id string, data []byte, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
	// Cleanup drops expired sessions and returns how many were removed.
	Cleanup(ctx context.Context) (int, error)
}

// MemoryBackend keeps sessions in process memory.
type MemoryBackend struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (m *MemoryBackend) Load(_ context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	entry, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok || !m.now().Before(entry.expiresAt) {
		return nil, ErrSessionNotFound
	}
	return entry.data, nil
}

func (m *MemoryBackend) Save(_ context.Context, id string, data []byte, expiresAt time.Time) error {
	m.mu.Lock()
	m.sessions[id] = memoryEntry{data: data, expiresAt: expiresAt}
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Cleanup(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, entry := range m.sessions {
		if !now.Before(entry.expiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

const lockStripes = 64

// SessionStore loads, mutates and saves sessions. Mutations of one session id
// are serialized within this process.
type SessionStore struct {
	backend SessionBackend
	config  config.SessionConfig
	logger  *zap.Logger
	locks   [lockStripes]sync.Mutex
	now     func() time.Time
}

// NewSessionStore creates a new session store
func NewSessionStore(backend SessionBackend, cfg config.SessionConfig, logger *zap.Logger) *SessionStore {
	return &SessionStore{
		backend: backend,
		config:  cfg,
		logger:  logger.Named("sessions"),
		now:     time.Now,
	}
}

// Resolve returns the session named by the request cookie, or a new
// anonymous one using locale when there is none. created reports whether the
// cookie must be (re)issued.
func (s *SessionStore) Resolve(ctx context.Context, r *http.Request, locale shared.Locale) (sess *Session, created bool, err error) {
	if cookie, cerr := r.Cookie(s.config.CookieName); cerr == nil && cookie.Value != "" {
		sess, err = s.Get(ctx, cookie.Value)
		if err == nil {
			return sess, false, nil
		}
		if !errors.Is(err, ErrSessionNotFound) {
			return nil, false, err
		}
	}

	sess, err = s.Create(ctx, locale)
	if err != nil {
		return nil, false, err
	}
	return sess, true, nil
}

// Get loads a session without locking it.
func (s *SessionStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.backend.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.logger.Warn("Discarding unreadable session", zap.Error(err))
		_ = s.backend.Delete(ctx, id)
		return nil, ErrSessionNotFound
	}
	sess.normalize()
	return &sess, nil
}

// Create stores a new anonymous session.
func (s *SessionStore) Create(ctx context.Context, locale shared.Locale) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}
	now := s.now()
	sess := &Session{
		ID:        id,
		Locale:    locale,
		Workspace: generation.NewWorkspace(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.config.TTL),
	}
	sess.normalize()
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Do runs fn on the latest copy of session id while holding its lock and
// saves the result. The session is not saved when fn returns an error.
func (s *SessionStore) Do(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return sess, err
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Renew moves session id to a fresh id with a fresh lifetime, keeping its
// contents. Used on sign-in so a pre-auth id never becomes authenticated.
func (s *SessionStore) Renew(ctx context.Context, id string, fn func(*Session)) (*Session, error) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	newID, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	// A submission still in flight settles against the old id, which is
	// about to be deleted.
	if sess.Workspace.View.IsLoading() {
		sess.Workspace.View.Reset()
	}

	now := s.now()
	sess.ID = newID
	sess.CreatedAt = now
	sess.ExpiresAt = now.Add(s.config.TTL)
	if fn != nil {
		fn(sess)
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	if err := s.backend.Delete(ctx, id); err != nil {
		s.logger.Warn("Failed to delete replaced session", zap.Error(err))
	}
	return sess, nil
}

// Cookie builds the cookie carrying sess.
func (s *SessionStore) Cookie(sess *Session) *http.Cookie {
	return &http.Cookie{
		Name:     s.config.CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.SecureCookie,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.ExpiresAt,
		MaxAge:   int(sess.ExpiresAt.Sub(s.now()).Seconds()),
	}
}

// Run removes expired sessions every cleanup interval until ctx is done.
func (s *SessionStore) Run(ctx context.Context) {
	interval := s.config.CleanupInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.backend.Cleanup(ctx)
			if err != nil {
				s.logger.Warn("Session cleanup failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				s.logger.Debug("Cleaned up expired sessions", zap.Int("removed", removed))
			}
		}
	}
}

func (s *SessionStore) save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.backend.Save(ctx, sess.ID, data, sess.ExpiresAt); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SessionStore) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &s.locks[h.Sum32()%lockStripes]
}

// generateSessionID generates a random session ID
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
