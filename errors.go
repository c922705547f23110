package bundler

import (
	"errors"
	"fmt"
)

// Kind classifies bundling errors.
type Kind int

const (
	// KindConfig reports a missing or incompatible base interpreter. Fatal, no output is produced.
	KindConfig Kind = iota + 1
	// KindInput reports a missing script. Fatal, no output is produced.
	KindInput
	// KindWarning reports a problem that does not abort processing.
	KindWarning
	// KindFormat reports a malformed icon file. Fatal to the icon step only.
	KindFormat
	// KindResource reports a failed resource update session. Fatal to the icon step only.
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config error"
	case KindInput:
		return "input error"
	case KindWarning:
		return "warning"
	case KindFormat:
		return "format error"
	case KindResource:
		return "resource error"
	}
	return "error"
}

// Error is returned by all bundling steps.
type Error struct {
	Kind Kind
	Msg  string
	Err  error // optional cause
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates a new error of the given kind.
// A %w verb in format is honoured and becomes the cause.
func Errorf(kind Kind, format string, a ...interface{}) *Error {
	wrapped := fmt.Errorf(format, a...)
	return &Error{
		Kind: kind,
		Msg:  wrapped.Error(),
		Err:  errors.Unwrap(wrapped),
	}
}

// IsKind reports whether err, or any error it wraps, is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// CorruptError reports problems with the payload embedded in an artifact.
type CorruptError string

func (o *CorruptError) Error() string {
	return string(*o)
}

func newCorruptError(format string, a ...interface{}) *CorruptError {
	err := CorruptError(fmt.Sprintf(format, a...))
	return &err
}
