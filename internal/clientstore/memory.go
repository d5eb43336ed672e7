package clientstore

import (
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps session state for the lifetime of the process.
type MemoryStore struct {
	mu      sync.Mutex
	token   storedToken
	profile []byte
	now     func() time.Time
}

// NewMemoryStore returns an empty store. now defaults to time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{now: now}
}

func (s *MemoryStore) Token() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.token.valid(s.now()) {
		s.token = storedToken{}
		return "", false, nil
	}
	return s.token.Token, true, nil
}

func (s *MemoryStore) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = storedToken{Token: token, ExpiresAt: s.now().Add(TokenLifetime)}
	return nil
}

func (s *MemoryStore) ClearToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = storedToken{}
	return nil
}

func (s *MemoryStore) Profile() ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.profile == nil {
		return nil, false, nil
	}
	return append([]byte(nil), s.profile...), true, nil
}

func (s *MemoryStore) SetProfile(profile []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = append([]byte(nil), profile...)
	return nil
}

func (s *MemoryStore) ClearProfile() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = nil
	return nil
}
