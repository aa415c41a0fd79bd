package run

import (
	"errors"
	"fmt"
)

// Kind classifies run/room errors independently of any transport.
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindInvalidInput    Kind = "invalid_input"
	KindConflict        Kind = "conflict"
	KindForbidden       Kind = "forbidden"
	KindStateCorruption Kind = "state_corruption"
)

// Error is the domain error for run and room operations. Validation
// errors are raised before any state mutation, so a caller receiving
// one can assume the run and room are unchanged.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Errorf builds a domain error of the given kind.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind == kind
	}
	return false
}
