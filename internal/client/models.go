package client

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/club-scheduler/internal/participation"
	"github.com/example/club-scheduler/internal/phone"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// User is the client-side member shape.
type User struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	IsApproved bool   `json:"is_approved"`
	IsAdmin    bool   `json:"is_admin"`
	CreatedAt  string `json:"created_at,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// AuthResult is the outcome of login or registration. Token is empty when
// the member still awaits approval.
type AuthResult struct {
	User  User
	Token string
}

// Pending reports whether the backend withheld the token.
func (r AuthResult) Pending() bool {
	return r.Token == ""
}

// identityDTO is the camelCase member shape the auth endpoints return.
type identityDTO struct {
	UserID     int64  `json:"userId"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	IsApproved bool   `json:"isApproved"`
	IsAdmin    bool   `json:"isAdmin"`
	Token      string `json:"token"`
}

func (d identityDTO) toUser() User {
	return User{
		ID:         d.UserID,
		Name:       d.Name,
		Phone:      d.Phone,
		IsApproved: d.IsApproved,
		IsAdmin:    d.IsAdmin,
	}
}

// Schedule is one session on the club calendar.
type Schedule struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	Date             string `json:"date"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	Location         string `json:"location,omitempty"`
	LocationDetail   string `json:"location_detail,omitempty"`
	CreatedBy        int64  `json:"created_by"`
	CreatedByName    string `json:"created_by_name,omitempty"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
	ParticipantCount int    `json:"participant_count"`
	ConfirmedCount   int    `json:"confirmed_count"`
}

// Participant is one member's row in a schedule detail.
type Participant struct {
	UserID    int64                `json:"user_id"`
	UserName  string               `json:"user_name"`
	UserPhone string               `json:"user_phone"`
	Status    participation.Status `json:"status"`
}

// ScheduleDetail is a schedule with its participants in arrival order.
type ScheduleDetail struct {
	Schedule
	DescriptionHTML string        `json:"description_html,omitempty"`
	Participants    []Participant `json:"participants"`
}

// PresenceOf returns the stored participation of userID.
func (d ScheduleDetail) PresenceOf(userID int64) participation.Presence {
	for _, p := range d.Participants {
		if p.UserID == userID {
			return participation.Present(p.Status)
		}
	}
	return participation.Absent
}

// MyParticipation is a schedule the caller holds a row for.
type MyParticipation struct {
	Schedule
	MyStatus participation.Status `json:"my_status"`
}

// ScheduleInput is the schedule form.
type ScheduleInput struct {
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	Date           string `json:"date"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	Location       string `json:"location,omitempty"`
	LocationDetail string `json:"location_detail,omitempty"`
}

// Validate enforces the form constraints: title, date and both times are
// required and the session must end after it starts.
func (in ScheduleInput) Validate() error {
	vErr := &ValidationError{}
	if strings.TrimSpace(in.Title) == "" {
		vErr.add("title", "제목을 입력해주세요.")
	}
	if strings.TrimSpace(in.Date) == "" {
		vErr.add("date", "날짜를 선택해주세요.")
	} else if _, err := time.Parse(dateLayout, strings.TrimSpace(in.Date)); err != nil {
		vErr.add("date", "올바른 날짜 형식이 아닙니다. (YYYY-MM-DD)")
	}

	start, startOK := parseClock(in.StartTime, "start_time", "시작 시간을 선택해주세요.", vErr)
	end, endOK := parseClock(in.EndTime, "end_time", "종료 시간을 선택해주세요.", vErr)
	if startOK && endOK && !start.Before(end) {
		vErr.add("end_time", "종료 시간은 시작 시간보다 늦어야 합니다.")
	}

	if len(vErr.Fields) > 0 {
		return vErr
	}
	return nil
}

func parseClock(value, field, requiredMessage string, vErr *ValidationError) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		vErr.add(field, requiredMessage)
		return time.Time{}, false
	}
	if len(value) > len(clockLayout) {
		value = value[:len(clockLayout)]
	}
	parsed, err := time.Parse(clockLayout, value)
	if err != nil {
		vErr.add(field, "올바른 시간 형식이 아닙니다. (HH:MM)")
		return time.Time{}, false
	}
	return parsed, true
}

// Credentials is the login and registration form.
type Credentials struct {
	Name  string
	Phone string
}

// Normalize trims the name and formats the phone number, then enforces the
// form constraints. The normalized value is what goes on the wire.
func (c Credentials) Normalize() (Credentials, error) {
	vErr := &ValidationError{}

	name := strings.TrimSpace(c.Name)
	switch length := utf8.RuneCountInString(name); {
	case length == 0:
		vErr.add("name", "이름을 입력해주세요.")
	case length < 2:
		vErr.add("name", "이름은 2자 이상 입력해주세요.")
	case length > 50:
		vErr.add("name", "이름은 50자 이하로 입력해주세요.")
	}

	formatted, ok := phone.Normalize(c.Phone)
	switch {
	case strings.TrimSpace(c.Phone) == "":
		vErr.add("phone", "전화번호를 입력해주세요.")
	case !ok:
		vErr.add("phone", "010-xxxx-xxxx 형식으로 입력해주세요. (예: 010-1234-5678)")
	}

	if len(vErr.Fields) > 0 {
		return Credentials{}, vErr
	}
	return Credentials{Name: name, Phone: formatted}, nil
}

// UserUpdate carries the administrator editable member fields. Nil fields
// are left unchanged.
type UserUpdate struct {
	Name       *string `json:"name,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	IsAdmin    *bool   `json:"is_admin,omitempty"`
	IsApproved *bool   `json:"is_approved,omitempty"`
}
