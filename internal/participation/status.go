// Package participation models a member's stated attendance for a schedule
// and the toggle rule applied when a status is requested.
//
// A member either has no participation row for a schedule (Absent) or has a
// row holding exactly one Status. Absent and StatusUndecided are different
// states: undecided is an explicit answer.
package participation

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the closed set of participation answers.
type Status string

const (
	StatusAttending    Status = "attending"
	StatusNotAttending Status = "not-attending"
	StatusUndecided    Status = "undecided"
)

// ErrInvalidStatus is returned by ParseStatus for unknown values.
var ErrInvalidStatus = errors.New("participation: invalid status")

var labels = map[Status]string{
	StatusAttending:    "참여",
	StatusNotAttending: "불참",
	StatusUndecided:    "미정",
}

// Statuses lists every status in display order.
func Statuses() []Status {
	return []Status{StatusAttending, StatusNotAttending, StatusUndecided}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	_, ok := labels[s]
	return ok
}

// Label returns the localized display label.
func (s Status) Label() string {
	if label, ok := labels[s]; ok {
		return label
	}
	return string(s)
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus accepts a wire value or its localized label.
func ParseStatus(value string) (Status, error) {
	trimmed := strings.TrimSpace(value)
	normalized := Status(strings.ReplaceAll(strings.ToLower(trimmed), "_", "-"))
	if normalized.Valid() {
		return normalized, nil
	}
	for status, label := range labels {
		if label == trimmed {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
}
