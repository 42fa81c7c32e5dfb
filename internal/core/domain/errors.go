package domain

import (
	"errors"
	"sort"
	"strings"
)

// Sentinel errors. Callers wrap them with fmt.Errorf("...: %w") and the HTTP
// error handler maps them with errors.Is.
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired or revoked")
	ErrAccountInactive    = errors.New("account is deactivated")

	ErrNotFound             = errors.New("not found")
	ErrUserNotFound         = &kindError{msg: "user not found", kind: ErrNotFound}
	ErrBadgeRequestNotFound = &kindError{msg: "badge request not found", kind: ErrNotFound}
	ErrBadgeNotFound        = &kindError{msg: "badge not found", kind: ErrNotFound}

	ErrConflict         = errors.New("conflict")
	ErrEmailTaken       = &kindError{msg: "email already in use", kind: ErrConflict}
	ErrBadgeNumberTaken = &kindError{msg: "badge number already in use", kind: ErrConflict}

	ErrInvalidState  = errors.New("invalid state")
	ErrRenderFailure = errors.New("badge rendering failed")
)

// kindError is a specific error that also matches a broader category, so
// errors.Is(ErrEmailTaken, ErrConflict) holds.
type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool { return target == e.kind }

// ValidationError reports malformed input, keyed by the offending field.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns a ValidationError for a single field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Add records a message for field, keeping the first one reported.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// OrNil returns nil when no field failed, which lets callers accumulate.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
