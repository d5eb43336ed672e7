package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/club-scheduler/internal/persistence"
)

var (
	memberCounter   uint64
	scheduleCounter uint64
)

// ReferenceDate is the calendar day of ReferenceTime in YYYY-MM-DD form.
const ReferenceDate = "2024-05-01"

var referenceTime = time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Member fixtures -----------------------------

// MemberFixture represents a deterministic club member.
type MemberFixture struct {
	Name       string
	Phone      string
	IsApproved bool
	IsAdmin    bool
	CreatedAt  time.Time
}

// MemberOption configures the generated member fixture.
type MemberOption func(*MemberFixture)

// NewMemberFixture returns a member with a unique name and phone number.
func NewMemberFixture(opts ...MemberOption) MemberFixture {
	idx := atomic.AddUint64(&memberCounter, 1)
	fixture := MemberFixture{
		Name:      fmt.Sprintf("Member %03d", idx),
		Phone:     fmt.Sprintf("010-%04d-%04d", 1000+idx/10000, idx%10000),
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithMemberName overrides the generated name.
func WithMemberName(name string) MemberOption {
	return func(f *MemberFixture) {
		f.Name = name
	}
}

// WithMemberPhone overrides the generated phone number.
func WithMemberPhone(phone string) MemberOption {
	return func(f *MemberFixture) {
		f.Phone = phone
	}
}

// WithMemberApproved marks the member approved.
func WithMemberApproved() MemberOption {
	return func(f *MemberFixture) {
		f.IsApproved = true
	}
}

// WithMemberAdmin marks the member an approved administrator.
func WithMemberAdmin() MemberOption {
	return func(f *MemberFixture) {
		f.IsAdmin = true
		f.IsApproved = true
	}
}

// Persistence returns the fixture as a persistence.User value.
func (f MemberFixture) Persistence() persistence.User {
	return persistence.User{
		Name:       f.Name,
		Phone:      f.Phone,
		IsApproved: f.IsApproved,
		IsAdmin:    f.IsAdmin,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.CreatedAt,
	}
}

// ---------------------------- Schedule fixtures ----------------------------

// ScheduleFixture represents a deterministic calendar session.
type ScheduleFixture struct {
	Title       string
	Description *string
	Date        string
	StartTime   string
	EndTime     string
	Location    *string
	CreatedBy   int64
	CreatedAt   time.Time
}

// ScheduleOption configures the generated schedule fixture.
type ScheduleOption func(*ScheduleFixture)

// NewScheduleFixture returns a two hour morning session on ReferenceDate.
func NewScheduleFixture(createdBy int64, opts ...ScheduleOption) ScheduleFixture {
	idx := atomic.AddUint64(&scheduleCounter, 1)
	fixture := ScheduleFixture{
		Title:     fmt.Sprintf("Session %03d", idx),
		Date:      ReferenceDate,
		StartTime: "07:00",
		EndTime:   "09:00",
		CreatedBy: createdBy,
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithScheduleDate overrides the session date.
func WithScheduleDate(date string) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.Date = date
	}
}

// WithScheduleTimes overrides the start and end times.
func WithScheduleTimes(start, end string) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.StartTime = start
		f.EndTime = end
	}
}

// WithScheduleLocation sets the court.
func WithScheduleLocation(location string) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.Location = &location
	}
}

// WithScheduleDescription sets the Markdown description.
func WithScheduleDescription(description string) ScheduleOption {
	return func(f *ScheduleFixture) {
		f.Description = &description
	}
}

// Persistence returns the fixture as a persistence.Schedule value.
func (f ScheduleFixture) Persistence() persistence.Schedule {
	return persistence.Schedule{
		Title:       f.Title,
		Description: f.Description,
		Date:        f.Date,
		StartTime:   f.StartTime,
		EndTime:     f.EndTime,
		Location:    f.Location,
		CreatedBy:   f.CreatedBy,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.CreatedAt,
	}
}
