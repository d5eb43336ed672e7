package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for members.
type UserRepository interface {
	// CreateUser stores a member. When no member exists yet the new member is
	// stored approved and with administrator rights regardless of the input.
	CreateUser(ctx context.Context, user User) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByPhone(ctx context.Context, phone string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	ListPendingUsers(ctx context.Context) ([]User, error)
	SetApproval(ctx context.Context, id int64, approved bool, at time.Time) error
	DeleteUser(ctx context.Context, id int64) error
}

// ScheduleRange bounds a schedule listing by inclusive dates in YYYY-MM-DD form.
type ScheduleRange struct {
	From string
	To   string
}

// ScheduleRepository stores calendar sessions.
type ScheduleRepository interface {
	CreateSchedule(ctx context.Context, schedule Schedule) (Schedule, error)
	UpdateSchedule(ctx context.Context, schedule Schedule) (Schedule, error)
	GetSchedule(ctx context.Context, id int64) (ScheduleSummary, error)
	ListSchedules(ctx context.Context, rng ScheduleRange) ([]ScheduleSummary, error)
	DeleteSchedule(ctx context.Context, id int64) error
}

// ParticipantRepository stores participation rows, at most one per schedule and member.
type ParticipantRepository interface {
	// UpsertParticipant creates the row or overwrites its status, keeping the
	// original arrival time.
	UpsertParticipant(ctx context.Context, scheduleID, userID int64, status string, at time.Time) error
	// DeleteParticipant removes the row and reports whether one existed.
	DeleteParticipant(ctx context.Context, scheduleID, userID int64) (bool, error)
	ListParticipants(ctx context.Context, scheduleID int64) ([]Participant, error)
	ListUserParticipations(ctx context.Context, userID int64) ([]Participation, error)
}
