package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/club-scheduler/internal/participation"
)

// ParticipantRepository stores participation rows, one per schedule and member.
type ParticipantRepository interface {
	ParticipantLister
	UpsertParticipant(ctx context.Context, scheduleID, userID int64, status participation.Status, at time.Time) error
	// DeleteParticipant reports whether a row existed.
	DeleteParticipant(ctx context.Context, scheduleID, userID int64) (bool, error)
	ListUserParticipations(ctx context.Context, userID int64) ([]MyParticipation, error)
}

// ScheduleLookup resolves a schedule by id.
type ScheduleLookup interface {
	GetSchedule(ctx context.Context, id int64) (Schedule, error)
}

// UserLookup resolves a member by id.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (User, error)
}

// ParticipationService records members' attendance declarations. Members
// manage their own row; administrators may manage anyone's.
type ParticipationService struct {
	participants ParticipantRepository
	schedules    ScheduleLookup
	users        UserLookup
	now          func() time.Time
	logger       *slog.Logger
}

// NewParticipationService wires dependencies for participation operations.
func NewParticipationService(participants ParticipantRepository, schedules ScheduleLookup, users UserLookup, now func() time.Time) *ParticipationService {
	return NewParticipationServiceWithLogger(participants, schedules, users, now, nil)
}

// NewParticipationServiceWithLogger wires dependencies with a specified logger.
func NewParticipationServiceWithLogger(participants ParticipantRepository, schedules ScheduleLookup, users UserLookup, now func() time.Time, logger *slog.Logger) *ParticipationService {
	if now == nil {
		now = time.Now
	}
	return &ParticipationService{
		participants: participants,
		schedules:    schedules,
		users:        users,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *ParticipationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ParticipationService", operation, attrs...)
}

// SetParticipation creates or overwrites a participation row.
func (s *ParticipationService) SetParticipation(ctx context.Context, params SetParticipationParams) (err error) {
	if s == nil {
		return fmt.Errorf("ParticipationService is nil")
	}
	if s.participants == nil {
		return fmt.Errorf("participant repository not configured")
	}

	target := params.UserID
	if target == 0 {
		target = params.Principal.UserID
	}

	logger := s.loggerWith(ctx, "SetParticipation",
		"principal_id", params.Principal.UserID,
		"schedule_id", params.ScheduleID,
		"user_id", target,
		"status", string(params.Status),
	)
	defer func() {
		logOutcome(ctx, logger, err, "participation recorded")
	}()

	if err = s.authorize(ctx, params.Principal, params.ScheduleID, target); err != nil {
		return
	}
	if !params.Status.Valid() {
		vErr := &ValidationError{}
		vErr.add("status", "status is invalid")
		err = vErr
		return
	}

	err = s.participants.UpsertParticipant(ctx, params.ScheduleID, target, params.Status, s.now())
	return
}

// RemoveParticipation deletes a participation row. Removing a row that does
// not exist succeeds. A zero userID targets the principal.
func (s *ParticipationService) RemoveParticipation(ctx context.Context, principal Principal, scheduleID, userID int64) (err error) {
	if s == nil {
		return fmt.Errorf("ParticipationService is nil")
	}
	if s.participants == nil {
		return fmt.Errorf("participant repository not configured")
	}
	if userID == 0 {
		userID = principal.UserID
	}

	logger := s.loggerWith(ctx, "RemoveParticipation",
		"principal_id", principal.UserID,
		"schedule_id", scheduleID,
		"user_id", userID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "participation removed")
	}()

	if err = s.authorize(ctx, principal, scheduleID, userID); err != nil {
		return
	}

	var removed bool
	removed, err = s.participants.DeleteParticipant(ctx, scheduleID, userID)
	if err == nil && !removed {
		logger = logger.With("noop", true)
	}
	return
}

// MyParticipations lists the schedules the principal holds a row for.
func (s *ParticipationService) MyParticipations(ctx context.Context, principal Principal) ([]MyParticipation, error) {
	if s == nil {
		return nil, fmt.Errorf("ParticipationService is nil")
	}
	if s.participants == nil {
		return nil, fmt.Errorf("participant repository not configured")
	}
	if err := requireMember(principal); err != nil {
		return nil, err
	}

	rows, err := s.participants.ListUserParticipations(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []MyParticipation{}
	}
	return rows, nil
}

func (s *ParticipationService) authorize(ctx context.Context, principal Principal, scheduleID, userID int64) error {
	if userID == principal.UserID {
		if err := requireMember(principal); err != nil {
			return err
		}
	} else if err := requireAdmin(principal); err != nil {
		return err
	}

	if s.schedules != nil {
		if _, err := s.schedules.GetSchedule(ctx, scheduleID); err != nil {
			return err
		}
	}
	if userID != principal.UserID && s.users != nil {
		if _, err := s.users.GetUser(ctx, userID); err != nil {
			return err
		}
	}
	return nil
}
