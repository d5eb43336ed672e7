package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	GetUser(ctx context.Context, id int64) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]User, error)
	ListPendingUsers(ctx context.Context) ([]User, error)
	SetApproval(ctx context.Context, id int64, approved bool, at time.Time) error
}

// PrincipalInvalidator drops cached member state after a mutation.
type PrincipalInvalidator interface {
	Forget(userID int64)
}

// UserService orchestrates validation, authorization, and persistence for members.
type UserService struct {
	users       UserRepository
	invalidator PrincipalInvalidator
	now         func() time.Time
	logger      *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, invalidator PrincipalInvalidator, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, invalidator, now, nil)
}

// NewUserServiceWithLogger wires dependencies for the user service with a specified logger.
func NewUserServiceWithLogger(users UserRepository, invalidator PrincipalInvalidator, now func() time.Time, logger *slog.Logger) *UserService {
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, invalidator: invalidator, now: now, logger: defaultLogger(logger)}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// ListUsers returns every member for administrators, oldest first.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	if s.users == nil {
		return nil, nil
	}
	return s.users.ListUsers(ctx)
}

// ListPendingUsers returns the members awaiting approval.
func (s *UserService) ListPendingUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}
	if s.users == nil {
		return nil, nil
	}
	return s.users.ListPendingUsers(ctx)
}

// ApproveUser grants club access to a member.
func (s *UserService) ApproveUser(ctx context.Context, principal Principal, userID int64) (User, error) {
	return s.setApproval(ctx, principal, userID, true)
}

// RevokeUser withdraws club access from a member.
func (s *UserService) RevokeUser(ctx context.Context, principal Principal, userID int64) (User, error) {
	return s.setApproval(ctx, principal, userID, false)
}

func (s *UserService) setApproval(ctx context.Context, principal Principal, userID int64, approved bool) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "SetApproval", "principal_id", principal.UserID, "user_id", userID, "approved", approved)
	defer func() {
		logOutcome(ctx, logger, err, "approval updated")
	}()

	if err = requireAdmin(principal); err != nil {
		return
	}
	if err = s.users.SetApproval(ctx, userID, approved, s.now()); err != nil {
		return
	}
	s.forget(userID)

	user, err = s.users.GetUser(ctx, userID)
	return
}

// UpdateUser applies an administrator edit to a member.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateUser", "principal_id", params.Principal.UserID, "user_id", params.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "member updated")
	}()

	if err = requireAdmin(params.Principal); err != nil {
		return
	}

	var existing User
	existing, err = s.users.GetUser(ctx, params.UserID)
	if err != nil {
		return
	}

	updated := existing
	vErr := &ValidationError{}
	if params.Patch.Name != nil {
		updated.Name = validateName(*params.Patch.Name, vErr)
	}
	if params.Patch.Phone != nil {
		updated.Phone = validatePhone(*params.Patch.Phone, vErr)
	}
	if params.Patch.IsAdmin != nil {
		updated.IsAdmin = *params.Patch.IsAdmin
	}
	if params.Patch.IsApproved != nil {
		updated.IsApproved = *params.Patch.IsApproved
	}
	if params.UserID == params.Principal.UserID && !updated.IsAdmin {
		vErr.add("is_admin", "cannot remove own administrator rights")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}
	updated.UpdatedAt = s.now()

	user, err = s.users.UpdateUser(ctx, updated)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			vErr.add("phone", "phone is already registered")
			err = fmt.Errorf("%w: %w", ErrConflict, vErr)
		}
		return
	}
	s.forget(user.ID)
	return
}

// DeleteUser removes a member together with their participation rows.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID int64) (err error) {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteUser", "principal_id", principal.UserID, "user_id", userID)
	defer func() {
		logOutcome(ctx, logger, err, "member deleted")
	}()

	if err = requireAdmin(principal); err != nil {
		return
	}
	if userID == principal.UserID {
		err = ErrSelfDeletion
		return
	}
	if err = s.users.DeleteUser(ctx, userID); err != nil {
		return
	}
	s.forget(userID)
	return
}

func (s *UserService) forget(userID int64) {
	if s.invalidator != nil {
		s.invalidator.Forget(userID)
	}
}
