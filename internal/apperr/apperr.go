// Package apperr defines the error kinds the workflow engine reports to
// its callers. Kinds map onto transport signaling (HTTP statuses, bot
// replies); messages are safe to show to end users.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Unknown Kind = iota
	NotFound
	Forbidden
	InvalidState
	Conflict
	OutOfRange
	EmptyInput
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	case InvalidState:
		return "invalid_state"
	case Conflict:
		return "conflict"
	case OutOfRange:
		return "out_of_range"
	case EmptyInput:
		return "empty_input"
	}
	return "unknown"
}

type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func E(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind carried anywhere in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

func Is(err error, kind Kind) bool { return KindOf(err) == kind }
