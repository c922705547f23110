// Package resource patches the icon resources of bundled executables,
// either through an external resource editor or by rewriting the resource table directly.
package resource

import (
	"errors"
)

// Resource types and identifiers used for icons.
const (
	TypeIcon      uint16 = 3  // RT_ICON
	TypeGroupIcon uint16 = 14 // RT_GROUP_ICON
	LangNeutral   uint16 = 0  // MAKELANGID(LANG_NEUTRAL, SUBLANG_NEUTRAL)
	GroupID       uint16 = 1  // identifier of the icon group
)

// PrintlnFunc is used for logging the injection progress.
type PrintlnFunc func(format string, args ...interface{})

func (f PrintlnFunc) orDiscard() PrintlnFunc {
	if f == nil {
		return func(string, ...interface{}) {}
	}
	return f
}

// Updater opens resource update sessions.
type Updater interface {
	// Begin starts buffering resource changes for the given executable.
	Begin(exePath string) (Session, error)
}

// Session holds pending resource changes.
// Nothing is written to the executable unless the session is committed.
// Exactly one of Commit or Discard must be called; afterwards the session is unusable.
type Session interface {
	Update(typ, id, lang uint16, data []byte) error
	Commit() error
	Discard() error
}

var errSessionClosed = errors.New("resource update session already closed")

// Strategy applies an icon file to an executable.
// Non-fatal problems are returned as warnings.
type Strategy interface {
	Apply(exePath, iconPath string) (warnings []error, err error)
}
