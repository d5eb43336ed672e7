// Package clientstore keeps the client's persisted session state: the bearer
// token, which expires like a browser cookie, and a cached copy of the
// member profile kept as opaque JSON.
package clientstore

import (
	"errors"
	"time"
)

// TokenLifetime is how long a stored token stays readable.
const TokenLifetime = 7 * 24 * time.Hour

// ErrEmptyToken is returned when storing a blank token.
var ErrEmptyToken = errors.New("clientstore: empty token")

// TokenJar stores the bearer token.
type TokenJar interface {
	// Token returns the stored token. ok is false when no token is stored or
	// it has expired.
	Token() (token string, ok bool, err error)
	SetToken(token string) error
	ClearToken() error
}

// ProfileCache stores the last known member profile.
type ProfileCache interface {
	Profile() (profile []byte, ok bool, err error)
	SetProfile(profile []byte) error
	ClearProfile() error
}

type storedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (t storedToken) valid(now time.Time) bool {
	return t.Token != "" && now.Before(t.ExpiresAt)
}
