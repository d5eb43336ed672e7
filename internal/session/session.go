// Package session holds the signed-in member and bearer token of one client,
// synchronized with the persisted token jar and profile cache.
//
// The store keeps two tiers of profile: the authoritative copy most recently
// returned by the backend, and the last known good copy read from the cache.
// Current prefers the authoritative copy.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/example/club-scheduler/internal/client"
	"github.com/example/club-scheduler/internal/clientstore"
)

// API is the subset of the API client the store needs.
type API interface {
	Me(ctx context.Context) (client.User, error)
	Login(ctx context.Context, name, phone string) (client.AuthResult, error)
	Register(ctx context.Context, name, phone string) (client.AuthResult, error)
}

// State is a snapshot of the store.
type State struct {
	User    *client.User
	Token   string
	Loading bool
}

// IsAuthenticated reports whether both a member and a token are present.
func (s State) IsAuthenticated() bool {
	return s.User != nil && s.Token != ""
}

// RegisterResult reports the outcome of a registration. Pending registrations
// establish no session.
type RegisterResult struct {
	User    client.User
	Pending bool
}

// Store is the session of one client. Create it with New and pass it to every
// consumer.
type Store struct {
	api      API
	tokens   clientstore.TokenJar
	profiles clientstore.ProfileCache
	logger   *slog.Logger

	mu            sync.Mutex
	authoritative *client.User
	lastKnownGood *client.User
	token         string
	loading       bool
	// generation changes whenever the session is replaced so a late
	// background refresh cannot resurrect a signed-out member.
	generation uint64

	refresh sync.WaitGroup
}

// New returns a store in the loading state. Call Initialize before use.
func New(api API, tokens clientstore.TokenJar, profiles clientstore.ProfileCache, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		api:      api,
		tokens:   tokens,
		profiles: profiles,
		logger:   logger.With("component", "session"),
		loading:  true,
	}
}

// Initialize restores the persisted session.
//
// With both a token and a cached profile the profile is adopted immediately
// and refreshed in the background; a failed refresh keeps the cached copy.
// With only a token the refresh blocks and its failure signs the member out.
// With neither, any stale cached profile is removed.
func (s *Store) Initialize(ctx context.Context) error {
	defer s.setLoading(false)

	token, hasToken, err := s.tokens.Token()
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read stored token", "error", err)
		hasToken = false
	}
	cached, hasProfile := s.readProfile(ctx)

	switch {
	case hasToken && hasProfile:
		generation := s.adopt(token, cached)
		s.refresh.Add(1)
		go s.refreshInBackground(context.WithoutCancel(ctx), generation)
		return nil

	case hasToken:
		generation := s.adopt(token, nil)
		user, err := s.api.Me(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "session refresh failed", "error", err)
			s.clear(ctx)
			return fmt.Errorf("session: restore: %w", err)
		}
		s.accept(ctx, generation, user)
		return nil

	default:
		if hasProfile {
			s.clearProfile(ctx)
		}
		return nil
	}
}

// Wait blocks until a background refresh started by Initialize settles.
func (s *Store) Wait() {
	s.refresh.Wait()
}

func (s *Store) refreshInBackground(ctx context.Context, generation uint64) {
	defer s.refresh.Done()

	user, err := s.api.Me(ctx)
	if err != nil {
		// The cached profile stays in place; a 401 has already signed the
		// member out through HandleUnauthorized.
		s.logger.DebugContext(ctx, "background refresh failed", "error", err)
		return
	}
	s.accept(ctx, generation, user)
}

// Login authenticates and establishes a session. Failures leave the current
// state untouched.
func (s *Store) Login(ctx context.Context, name, phone string) (client.User, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	result, err := s.api.Login(ctx, name, phone)
	if err != nil {
		return client.User{}, err
	}
	if result.Pending() {
		return client.User{}, &client.RequestError{Message: "로그인에 실패했습니다."}
	}
	if err := s.establish(ctx, result); err != nil {
		return client.User{}, err
	}
	return result.User, nil
}

// Register creates an account. When the backend approves it immediately a
// session is established; otherwise Pending is set and nothing changes.
func (s *Store) Register(ctx context.Context, name, phone string) (RegisterResult, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	result, err := s.api.Register(ctx, name, phone)
	if err != nil {
		return RegisterResult{}, err
	}
	if result.Pending() {
		return RegisterResult{User: result.User, Pending: true}, nil
	}
	if err := s.establish(ctx, result); err != nil {
		return RegisterResult{}, err
	}
	return RegisterResult{User: result.User}, nil
}

// Logout forgets the session locally. It never contacts the backend.
func (s *Store) Logout() {
	s.clear(context.Background())
}

// HandleUnauthorized resets the store after the backend rejected the token.
func (s *Store) HandleUnauthorized() {
	s.clear(context.Background())
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{User: copyUser(s.current()), Token: s.token, Loading: s.loading}
}

// Current returns the authoritative profile when known, else the cached one.
func (s *Store) Current() *client.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyUser(s.current())
}

// Token returns the session token, or an empty string.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Store) IsAuthenticated() bool {
	return s.Snapshot().IsAuthenticated()
}

func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) current() *client.User {
	if s.authoritative != nil {
		return s.authoritative
	}
	return s.lastKnownGood
}

func (s *Store) setLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

// adopt installs a restored session and returns its generation.
func (s *Store) adopt(token string, cached *client.User) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.token = token
	s.authoritative = nil
	s.lastKnownGood = cached
	return s.generation
}

// accept records a profile fetched from the backend unless the session it
// belongs to has been replaced in the meantime.
func (s *Store) accept(ctx context.Context, generation uint64, user client.User) {
	s.mu.Lock()
	if s.generation != generation {
		s.mu.Unlock()
		return
	}
	s.authoritative = copyUser(&user)
	s.lastKnownGood = copyUser(&user)
	s.mu.Unlock()

	s.writeProfile(ctx, user)
}

func (s *Store) establish(ctx context.Context, result client.AuthResult) error {
	if err := s.tokens.SetToken(result.Token); err != nil {
		return fmt.Errorf("session: store token: %w", err)
	}

	s.mu.Lock()
	s.generation++
	s.token = result.Token
	s.authoritative = copyUser(&result.User)
	s.lastKnownGood = copyUser(&result.User)
	s.mu.Unlock()

	s.writeProfile(ctx, result.User)
	return nil
}

func (s *Store) clear(ctx context.Context) {
	s.mu.Lock()
	s.generation++
	s.token = ""
	s.authoritative = nil
	s.lastKnownGood = nil
	s.mu.Unlock()

	if err := s.tokens.ClearToken(); err != nil {
		s.logger.WarnContext(ctx, "failed to clear stored token", "error", err)
	}
	s.clearProfile(ctx)
}

func (s *Store) readProfile(ctx context.Context) (*client.User, bool) {
	if s.profiles == nil {
		return nil, false
	}
	raw, ok, err := s.profiles.Profile()
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read cached profile", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	user, err := decodeProfile(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "discarding unreadable cached profile", "error", err)
		s.clearProfile(ctx)
		return nil, false
	}
	return &user, true
}

func (s *Store) writeProfile(ctx context.Context, user client.User) {
	if s.profiles == nil {
		return
	}
	raw, err := json.Marshal(user)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to encode profile", "error", err)
		return
	}
	if err := s.profiles.SetProfile(raw); err != nil {
		s.logger.WarnContext(ctx, "failed to cache profile", "error", err)
	}
}

func (s *Store) clearProfile(ctx context.Context) {
	if s.profiles == nil {
		return
	}
	if err := s.profiles.ClearProfile(); err != nil {
		s.logger.WarnContext(ctx, "failed to clear cached profile", "error", err)
	}
}

// cachedProfile accepts both the client shape and the camelCase identity
// shape older clients cached.
type cachedProfile struct {
	client.User
	UserID        int64 `json:"userId"`
	IsApprovedAlt *bool `json:"isApproved"`
	IsAdminAlt    *bool `json:"isAdmin"`
}

var errEmptyProfile = errors.New("cached profile has no id")

func decodeProfile(raw []byte) (client.User, error) {
	var cached cachedProfile
	if err := json.Unmarshal(raw, &cached); err != nil {
		return client.User{}, err
	}

	user := cached.User
	if user.ID == 0 && cached.UserID != 0 {
		user.ID = cached.UserID
		if cached.IsApprovedAlt != nil {
			user.IsApproved = *cached.IsApprovedAlt
		}
		if cached.IsAdminAlt != nil {
			user.IsAdmin = *cached.IsAdminAlt
		}
	}
	if user.ID == 0 {
		return client.User{}, errEmptyProfile
	}
	return user, nil
}

func copyUser(user *client.User) *client.User {
	if user == nil {
		return nil
	}
	clone := *user
	return &clone
}
