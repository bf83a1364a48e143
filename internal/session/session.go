// Package session holds the per-login context (user and theme) that the
// render layer reads from the request instead of from globals.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

const CookieName = "invoicepro_session"

var (
	ErrNoSession          = errors.New("no session")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme returns the theme for s, defaulting to light.
func ParseTheme(s string) Theme {
	if Theme(s) == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}

// Session is the explicit context of one logged in user.
type Session struct {
	Token     string
	User      string
	Theme     Theme
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s *Session) expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Manager keeps sessions in memory. Sessions do not survive a restart.
type Manager struct {
	username string
	password string
	ttl      time.Duration
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(username, password string, ttl time.Duration) *Manager {
	return &Manager{
		username: username,
		password: password,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Login checks the demo credential and starts a session.
func (m *Manager) Login(username, password string) (*Session, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(m.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(m.password)) == 1
	if !userOK || !passOK {
		return nil, ErrInvalidCredentials
	}
	return m.Create(username), nil
}

// Create starts a session for user with the light theme.
func (m *Manager) Create(user string) *Session {
	now := m.now()
	s := &Session{
		Token:     uuid.NewString(),
		User:      user,
		Theme:     ThemeLight,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	m.mu.Lock()
	m.sessions[s.Token] = s
	m.mu.Unlock()
	return s
}

// Get returns a copy of the live session for token.
func (m *Manager) Get(token string) (Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return Session{}, ErrNoSession
	}
	if s.expired(m.now()) {
		m.Destroy(token)
		return Session{}, ErrNoSession
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *s, nil
}

// SetTheme updates the theme of a live session.
func (m *Manager) SetTheme(token string, theme Theme) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok || s.expired(m.now()) {
		return ErrNoSession
	}
	s.Theme = theme
	return nil
}

// Destroy tears the session down. Unknown tokens are ignored.
func (m *Manager) Destroy(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// Sweep drops expired sessions and returns how many were removed.
func (m *Manager) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for token, s := range m.sessions {
		if s.expired(now) {
			delete(m.sessions, token)
			n++
		}
	}
	return n
}

// Cookie returns the cookie carrying s.
func (m *Manager) Cookie(s *Session) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie expires the session cookie in the browser.
func ClearCookie() *http.Cookie {
	return &http.Cookie{Name: CookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, SameSite: http.SameSiteLaxMode}
}

// FromRequest resolves the session cookie of r.
func (m *Manager) FromRequest(r *http.Request) (Session, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return Session{}, ErrNoSession
	}
	return m.Get(c.Value)
}

type ctxKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by Middleware, if any.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}

// Middleware attaches the session, when present, to the request context. It
// never rejects a request; see RequireAuth in the http package.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s, err := m.FromRequest(r); err == nil {
			r = r.WithContext(WithSession(r.Context(), s))
		}
		next.ServeHTTP(w, r)
	})
}

// StartSweeper removes expired sessions every interval until ctx is done.
func (m *Manager) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Sweep()
			}
		}
	}()
}
