package models

import (
	"time"

	"golang.org/x/oauth2"
)

// Credential is a user's Spotify tokens. ExpiresAt is absolute epoch seconds.
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
}

// Expired reports whether now is past ExpiresAt. A zero ExpiresAt never expires.
func (c Credential) Expired(now time.Time) bool {
	return c.ExpiresAt > 0 && now.Unix() > c.ExpiresAt
}

// Usable reports whether the credential carries an unexpired access token.
func (c Credential) Usable(now time.Time) bool {
	return c.AccessToken != "" && !c.Expired(now)
}

// Token converts the credential to an [oauth2.Token].
func (c Credential) Token() *oauth2.Token {
	t := &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
	}
	if c.ExpiresAt > 0 {
		t.Expiry = time.Unix(c.ExpiresAt, 0)
	}
	return t
}

// CredentialFromToken converts an [oauth2.Token], keeping fallbackRefresh when the token has no refresh token.
func CredentialFromToken(t *oauth2.Token, fallbackRefresh string) Credential {
	c := Credential{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
	}
	if c.RefreshToken == "" {
		c.RefreshToken = fallbackRefresh
	}
	if !t.Expiry.IsZero() {
		c.ExpiresAt = t.Expiry.Unix()
	}
	return c
}
