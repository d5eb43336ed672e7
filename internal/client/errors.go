package client

import (
	"errors"
	"sort"
	"strings"
)

// ErrAuthRequired reports that the backend rejected the caller's token. The
// stored token and cached profile have already been cleared when it is returned.
var ErrAuthRequired = errors.New("client: authentication required")

// FieldError is one field level message reported by the backend.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RequestError is the single failure shape of every operation. Message is
// suitable for display.
type RequestError struct {
	Status  int
	Message string
	Fields  []FieldError
	err     error
}

func (e *RequestError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *RequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// ValidationError is a form constraint violated before any request was sent.
type ValidationError struct {
	Fields map[string]string
}

func (v *ValidationError) Error() string {
	if v == nil || len(v.Fields) == 0 {
		return ""
	}
	names := make([]string, 0, len(v.Fields))
	for name := range v.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	messages := make([]string, 0, len(names))
	for _, name := range names {
		messages = append(messages, v.Fields[name])
	}
	return strings.Join(messages, " ")
}

func (v *ValidationError) add(field, message string) {
	if v.Fields == nil {
		v.Fields = make(map[string]string)
	}
	if _, exists := v.Fields[field]; !exists {
		v.Fields[field] = message
	}
}
