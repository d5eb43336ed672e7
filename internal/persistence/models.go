package persistence

import "time"

// User represents a club member account.
type User struct {
	ID         int64
	Name       string
	Phone      string
	IsApproved bool
	IsAdmin    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Schedule represents a tennis session on the shared calendar. Date is stored
// as YYYY-MM-DD and the times as HH:MM wall-clock values on that date.
type Schedule struct {
	ID             int64
	Title          string
	Description    *string
	Date           string
	StartTime      string
	EndTime        string
	Location       *string
	LocationDetail *string
	CreatedBy      int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ScheduleSummary is a schedule row joined with its creator name and participant counts.
type ScheduleSummary struct {
	Schedule
	CreatedByName    string
	ParticipantCount int
	ConfirmedCount   int
}

// Participant is one member's participation row for a schedule.
type Participant struct {
	ScheduleID int64
	UserID     int64
	UserName   string
	UserPhone  string
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Participation is a schedule joined with the requesting member's status.
type Participation struct {
	Schedule
	CreatedByName string
	Status        string
}
