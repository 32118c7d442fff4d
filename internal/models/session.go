package models

import (
	"fmt"
	"time"
)

// Session is a browser session. It holds the pending OAuth state during login and the user's credential after.
type Session struct {
	id         string
	sequence   int
	state      string
	credential Credential
	createdAt  time.Time
	updatedAt  time.Time
}

// NewSession creates an empty session stamped with the current time.
func NewSession(sequence int) *Session {
	now := time.Now().UTC()
	return &Session{sequence: sequence, createdAt: now, updatedAt: now}
}

func (s *Session) ID() string { return s.id }
func (s *Session) Sequence() int { return s.sequence }
func (s *Session) State() string { return s.state }
func (s *Session) Credential() Credential { return s.credential }
func (s *Session) CreatedAt() time.Time { return s.createdAt }
func (s *Session) UpdatedAt() time.Time { return s.updatedAt }

func (s *Session) SetID(id string) { s.id = id }
func (s *Session) SetSequence(seq int) { s.sequence = seq }
func (s *Session) SetState(state string) { s.state = state }
func (s *Session) SetCredential(c Credential) { s.credential = c }
func (s *Session) SetCreatedAt(t time.Time) { s.createdAt = t }
func (s *Session) SetUpdatedAt(t time.Time) { s.updatedAt = t }
func (s *Session) Authenticated() bool { return s.credential.AccessToken != "" }
func (s *Session) HasRefreshToken() bool { return s.credential.RefreshToken != "" }
func (s *Session) Expired(now time.Time) bool { return s.credential.Expired(now) }

// Validate checks the session is persistable.
func (s *Session) Validate() error {
	if s.id == "" {
		return fmt.Errorf("session id is required")
	}
	if s.credential.ExpiresAt < 0 {
		return fmt.Errorf("session expiry must not be negative")
	}
	return nil
}

var _ Model = (*Session)(nil)
