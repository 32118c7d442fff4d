package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/shared"
)

// DefaultCookieName names the session cookie when the config leaves it empty.
const DefaultCookieName = "sortify_session"

// SessionStore persists browser sessions. Implemented by repositories.SessionRepository.
type SessionStore interface {
	Create(session *models.Session) error
	Get(id string) (*models.Session, error)
	Update(session *models.Session) error
}

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// SessionManager maps the session cookie to a stored [models.Session].
type SessionManager struct {
	store  SessionStore
	cookie CookieConfig
}

// NewSessionManager creates a [SessionManager] backed by store.
func NewSessionManager(store SessionStore, cookie CookieConfig) *SessionManager {
	if cookie.Name == "" {
		cookie.Name = DefaultCookieName
	}
	return &SessionManager{store: store, cookie: cookie}
}

// Load returns the session named by the request cookie.
//
// A missing cookie or an unknown id returns [shared.ErrSessionNotFound].
func (m *SessionManager) Load(r *http.Request) (*models.Session, error) {
	c, err := r.Cookie(m.cookie.Name)
	if err != nil || c.Value == "" {
		return nil, shared.ErrSessionNotFound
	}
	return m.store.Get(c.Value)
}

// Start returns the request's session, creating one and setting its cookie when none exists.
func (m *SessionManager) Start(w http.ResponseWriter, r *http.Request) (*models.Session, error) {
	session, err := m.Load(r)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, shared.ErrSessionNotFound) {
		return nil, err
	}

	session = models.NewSession(0)
	if err := m.store.Create(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie.Name,
		Value:    session.ID(),
		Path:     "/",
		HttpOnly: true,
		Secure:   m.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return session, nil
}

// Save writes the session back to the store.
func (m *SessionManager) Save(session *models.Session) error {
	return m.store.Update(session)
}
