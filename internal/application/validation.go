package application

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/club-scheduler/internal/phone"
)

const (
	maxNameLength  = 50
	maxTitleLength = 100
	dateLayout     = "2006-01-02"
	clockLayout    = "15:04"
)

func validateName(name string, vErr *ValidationError) string {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		vErr.add("name", "name is required")
	case utf8.RuneCountInString(name) > maxNameLength:
		vErr.add("name", "name is too long")
	}
	return name
}

// validatePhone formats the raw input and records an error unless it is a
// complete mobile number.
func validatePhone(raw string, vErr *ValidationError) string {
	if strings.TrimSpace(raw) == "" {
		vErr.add("phone", "phone is required")
		return ""
	}
	formatted, ok := phone.Normalize(raw)
	if !ok {
		vErr.add("phone", "phone is invalid")
	}
	return formatted
}

// normalizeScheduleInput trims the input, collapses blank optional fields to
// nil and canonicalises times to HH:MM. Validation errors are recorded in vErr.
func normalizeScheduleInput(input ScheduleInput, vErr *ValidationError) ScheduleInput {
	out := ScheduleInput{
		Title:          strings.TrimSpace(input.Title),
		Description:    trimOptional(input.Description),
		Date:           strings.TrimSpace(input.Date),
		Location:       trimOptional(input.Location),
		LocationDetail: trimOptional(input.LocationDetail),
	}

	switch {
	case out.Title == "":
		vErr.add("title", "title is required")
	case utf8.RuneCountInString(out.Title) > maxTitleLength:
		vErr.add("title", "title is too long")
	}

	if out.Date == "" {
		vErr.add("date", "date is required")
	} else if _, err := time.Parse(dateLayout, out.Date); err != nil {
		vErr.add("date", "date is invalid")
	}

	start, startOK := parseClock(input.StartTime, "start_time", vErr)
	end, endOK := parseClock(input.EndTime, "end_time", vErr)
	if startOK {
		out.StartTime = start.Format(clockLayout)
	}
	if endOK {
		out.EndTime = end.Format(clockLayout)
	}
	if startOK && endOK && !start.Before(end) {
		vErr.add("end_time", "end_time must be after start_time")
	}

	return out
}

func parseClock(value, field string, vErr *ValidationError) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		vErr.add(field, field+" is required")
		return time.Time{}, false
	}
	for _, layout := range []string{clockLayout, "15:04:05"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	vErr.add(field, field+" is invalid")
	return time.Time{}, false
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func requireMember(principal Principal) error {
	if principal.UserID <= 0 {
		return ErrUnauthorized
	}
	if !principal.IsApproved {
		return ErrPendingApproval
	}
	return nil
}

func requireAdmin(principal Principal) error {
	if err := requireMember(principal); err != nil {
		return err
	}
	if !principal.IsAdmin {
		return ErrForbidden
	}
	return nil
}
