package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultPrincipalCacheSize = 1024
	defaultPrincipalCacheTTL  = 30 * time.Second
)

// CredentialStore exposes the member lookups required by the auth service.
type CredentialStore interface {
	// CreateUser stores a new member. The store decides approval and
	// administrator rights for the very first member.
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByPhone(ctx context.Context, phone string) (User, error)
}

// AuthService coordinates registration, login and token validation.
type AuthService struct {
	credentials CredentialStore
	tokens      *TokenIssuer
	principals  *expirable.LRU[int64, User]
	now         func() time.Time
	logger      *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(credentials CredentialStore, tokens *TokenIssuer, now func() time.Time) *AuthService {
	return NewAuthServiceWithLogger(credentials, tokens, now, 0, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
// cacheTTL bounds how long a validated member is served from memory; zero
// selects the default and a negative value disables caching.
func NewAuthServiceWithLogger(credentials CredentialStore, tokens *TokenIssuer, now func() time.Time, cacheTTL time.Duration, logger *slog.Logger) *AuthService {
	if now == nil {
		now = time.Now
	}
	if cacheTTL == 0 {
		cacheTTL = defaultPrincipalCacheTTL
	}
	service := &AuthService{
		credentials: credentials,
		tokens:      tokens,
		now:         now,
		logger:      defaultLogger(logger),
	}
	if cacheTTL > 0 {
		service.principals = expirable.NewLRU[int64, User](defaultPrincipalCacheSize, nil, cacheTTL)
	}
	return service
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Register creates a member account. The first member of the club is
// approved immediately and receives a token; everyone else waits for an
// administrator and gets no token.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (result AuthResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}

	logger := s.loggerWith(ctx, "Register")
	defer func() {
		if err == nil {
			logger = logger.With("user_id", result.User.ID, "approved", result.User.IsApproved)
		}
		logOutcome(ctx, logger, err, "member registered")
	}()

	vErr := &ValidationError{}
	name := validateName(params.Name, vErr)
	phoneNumber := validatePhone(params.Phone, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	var user User
	user, err = s.credentials.CreateUser(ctx, User{
		Name:      name,
		Phone:     phoneNumber,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			vErr.add("phone", "phone is already registered")
			err = fmt.Errorf("%w: %w", ErrConflict, vErr)
		}
		return
	}

	result.User = user
	if !user.IsApproved {
		return
	}

	result.Token, result.ExpiresAt, err = s.tokens.Issue(user)
	return
}

// Login authenticates a member by name and phone number.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (result AuthResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}

	logger := s.loggerWith(ctx, "Login")
	defer func() {
		if err == nil {
			logger = logger.With("user_id", result.User.ID)
		}
		logOutcome(ctx, logger, err, "member logged in")
	}()

	vErr := &ValidationError{}
	name := validateName(params.Name, vErr)
	phoneNumber := validatePhone(params.Phone, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var user User
	user, err = s.credentials.GetUserByPhone(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}
	if !strings.EqualFold(user.Name, name) {
		err = ErrInvalidCredentials
		return
	}
	if !user.IsApproved {
		err = ErrPendingApproval
		return
	}

	s.remember(user)
	result.User = user
	result.Token, result.ExpiresAt, err = s.tokens.Issue(user)
	return
}

// Me returns the current record of the authenticated member.
func (s *AuthService) Me(ctx context.Context, principal Principal) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("AuthService is nil")
	}
	if principal.UserID <= 0 {
		return User{}, ErrUnauthorized
	}
	return s.lookup(ctx, principal.UserID)
}

// ValidateToken verifies a bearer token and resolves the member it belongs to.
// Tokens of deleted members are rejected with ErrUnauthorized. Members whose
// approval was revoked still resolve; authorization checks reject them later.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.tokens == nil {
		err = fmt.Errorf("token issuer not configured")
		return
	}

	var id int64
	id, err = s.tokens.Parse(token)
	if err != nil {
		s.loggerWith(ctx, "ValidateToken").DebugContext(ctx, "token rejected", "error", err)
		return
	}

	var user User
	user, err = s.lookup(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrUnauthorized
		}
		return
	}

	principal = user.Principal()
	return
}

// Forget drops any cached copy of the member so the next request reads fresh state.
func (s *AuthService) Forget(userID int64) {
	if s == nil || s.principals == nil {
		return
	}
	s.principals.Remove(userID)
}

func (s *AuthService) lookup(ctx context.Context, id int64) (User, error) {
	if s.principals != nil {
		if user, ok := s.principals.Get(id); ok {
			return user, nil
		}
	}
	if s.credentials == nil {
		return User{}, fmt.Errorf("credential store not configured")
	}
	user, err := s.credentials.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	s.remember(user)
	return user, nil
}

func (s *AuthService) remember(user User) {
	if s.principals != nil {
		s.principals.Add(user.ID, user)
	}
}
