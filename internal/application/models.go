package application

import (
	"time"

	"github.com/example/club-scheduler/internal/participation"
)

// Principal represents the authenticated member invoking a service method.
type Principal struct {
	UserID     int64
	Name       string
	IsAdmin    bool
	IsApproved bool
}

// User represents a club member account exposed by the application services.
type User struct {
	ID         int64
	Name       string
	Phone      string
	IsApproved bool
	IsAdmin    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Principal returns the principal acting on behalf of the member.
func (u User) Principal() Principal {
	return Principal{UserID: u.ID, Name: u.Name, IsAdmin: u.IsAdmin, IsApproved: u.IsApproved}
}

// RegisterParams captures the self-registration form.
type RegisterParams struct {
	Name  string
	Phone string
}

// LoginParams captures the login form. Members identify themselves by name and phone.
type LoginParams struct {
	Name  string
	Phone string
}

// AuthResult is returned by login and registration. Token is empty when the
// member still awaits approval.
type AuthResult struct {
	User      User
	Token     string
	ExpiresAt time.Time
}

// UserPatch carries the administrator editable member fields. Nil fields are left unchanged.
type UserPatch struct {
	Name       *string
	Phone      *string
	IsAdmin    *bool
	IsApproved *bool
}

// UpdateUserParams wraps the data required to update a member.
type UpdateUserParams struct {
	Principal Principal
	UserID    int64
	Patch     UserPatch
}

// ScheduleInput captures caller provided schedule fields. Date is YYYY-MM-DD
// and the times are HH:MM.
type ScheduleInput struct {
	Title          string
	Description    *string
	Date           string
	StartTime      string
	EndTime        string
	Location       *string
	LocationDetail *string
}

// Schedule represents a session on the club calendar together with its listing aggregates.
type Schedule struct {
	ID               int64
	Title            string
	Description      *string
	Date             string
	StartTime        string
	EndTime          string
	Location         *string
	LocationDetail   *string
	CreatedBy        int64
	CreatedByName    string
	ParticipantCount int
	ConfirmedCount   int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Participant is one member's declared status for a schedule.
type Participant struct {
	UserID    int64
	UserName  string
	UserPhone string
	Status    participation.Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ScheduleDetail is a schedule with its participants in arrival order.
type ScheduleDetail struct {
	Schedule
	DescriptionHTML string
	Participants    []Participant
}

// MyParticipation is a schedule the principal holds a participation row for.
type MyParticipation struct {
	Schedule
	Status participation.Status
}

// CreateScheduleParams wraps the data required to create a schedule.
type CreateScheduleParams struct {
	Principal Principal
	Input     ScheduleInput
}

// UpdateScheduleParams wraps the data required to update an existing schedule.
type UpdateScheduleParams struct {
	Principal  Principal
	ScheduleID int64
	Input      ScheduleInput
}

// ListSchedulesParams selects a calendar month. Zero values select the
// current month in the service time zone.
type ListSchedulesParams struct {
	Principal Principal
	Year      int
	Month     time.Month
}

// SetParticipationParams declares a status for a member on a schedule.
// A zero UserID targets the principal.
type SetParticipationParams struct {
	Principal  Principal
	ScheduleID int64
	UserID     int64
	Status     participation.Status
}
