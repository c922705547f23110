package resource

import (
	"errors"
	"os"
)

// State of the injection strategy selection.
type State int

const (
	Unselected State = iota
	ExternalToolAvailable
	NativeOnly
	Declined
)

func (s State) String() string {
	switch s {
	case ExternalToolAvailable:
		return "external tool"
	case NativeOnly:
		return "native"
	case Declined:
		return "declined"
	default:
		return "unselected"
	}
}

// DefaultTools returns the resource editor locations that are probed by default.
// Resource Hacker is preferred, rcedit is the fallback.
func DefaultTools() []string {
	return []string{
		"ResourceHacker.exe",
		`C:\Program Files (x86)\Resource Hacker\ResourceHacker.exe`,
		`C:\Program Files\Resource Hacker\ResourceHacker.exe`,
		"rcedit.exe",
		"rcedit-x64.exe",
	}
}

// ErrDeclined is returned by Select if no icon strategy is available and the user
// chose not to continue without an icon.
var ErrDeclined = errors.New("bundling cancelled by user")

// Injector applies icons to artifacts.
// Select must be called before the artifact is assembled, so that a refusal aborts early.
type Injector struct {
	Tools    []string // candidate resource editor paths, probed in order
	Native   Updater  // optional; used when no resource editor is found
	Provider Provider // runs the resource editor; defaults to ExecProvider

	// Confirm asks whether bundling may continue without an icon.
	// A nil Confirm is treated as a refusal.
	Confirm func(question string) bool

	Exists func(path string) bool // defaults to checking for a regular file
	Logger PrintlnFunc

	state State
	tool  string
}

// State returns the selected strategy.
func (inj *Injector) State() State {
	return inj.state
}

// Tool returns the resource editor found by Select.
func (inj *Injector) Tool() string {
	return inj.tool
}

// FindTool returns the first existing resource editor.
func (inj *Injector) FindTool() (string, bool) {
	exists := inj.Exists
	if exists == nil {
		exists = isFile
	}
	for _, t := range inj.Tools {
		if t != "" && exists(t) {
			return t, true
		}
	}
	return "", false
}

// Select chooses the injection strategy. Repeated calls return the previous selection.
func (inj *Injector) Select() (State, error) {
	if inj.state != Unselected {
		return inj.state, nil
	}
	logger := inj.Logger.orDiscard()

	if tool, ok := inj.FindTool(); ok {
		inj.tool = tool
		inj.state = ExternalToolAvailable
		logger("Found resource editor: %s", tool)
		return inj.state, nil
	}
	if inj.Native != nil {
		inj.state = NativeOnly
		logger("No resource editor found, icons are updated natively")
		return inj.state, nil
	}

	if inj.Confirm == nil || !inj.Confirm("No resource editor was found. Continue bundling without icon?") {
		return Unselected, ErrDeclined
	}
	inj.state = Declined
	return inj.state, nil
}

// Strategy returns the strategy for the selected state, or nil if icons are skipped.
func (inj *Injector) Strategy() Strategy {
	switch inj.state {
	case ExternalToolAvailable:
		return &ExternalStrategy{Tool: inj.tool, Provider: inj.Provider, Logger: inj.Logger}
	case NativeOnly:
		return &NativeStrategy{Updater: inj.Native, Logger: inj.Logger}
	}
	return nil
}

// Inject applies the icon to the executable, selecting a strategy first if needed.
// If the user declined, the icon is skipped with a log message.
func (inj *Injector) Inject(exePath, iconPath string) ([]error, error) {
	if _, err := inj.Select(); err != nil {
		return nil, err
	}
	s := inj.Strategy()
	if s == nil {
		inj.Logger.orDiscard()("Skipping icon %s", iconPath)
		return nil, nil
	}
	return s.Apply(exePath, iconPath)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
