package resource

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/kozakscript/bundler"
)

// Provider runs an external resource editing tool and waits for it to exit.
type Provider interface {
	// Run returns the exit code of the tool.
	// An error is only returned if the tool could not be run at all.
	Run(tool string, args ...string) (int, error)
}

// ExecProvider runs tools as child processes.
type ExecProvider struct{}

func (ExecProvider) Run(tool string, args ...string) (int, error) {
	err := exec.Command(tool, args...).Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, err
	}
	return 0, nil
}

// ExternalStrategy applies icons with an external resource editor.
// Resource Hacker is driven by an instruction file, rcedit by its command line.
type ExternalStrategy struct {
	Tool     string // path of the resource editor
	Provider Provider
	Logger   PrintlnFunc
}

// IsRcedit reports whether the tool is an rcedit binary (e.g. "rcedit.exe" or "rcedit-x64.exe").
func IsRcedit(tool string) bool {
	return strings.HasPrefix(strings.ToLower(filepath.Base(tool)), "rcedit")
}

// Apply runs the tool on the executable.
// A tool that fails or exits with a non-zero code is reported as a warning.
func (s *ExternalStrategy) Apply(exePath, iconPath string) ([]error, error) {
	logger := s.Logger.orDiscard()
	logger("Applying icon using %s: %s", filepath.Base(s.Tool), iconPath)

	if IsRcedit(s.Tool) {
		code, err := s.provider().Run(s.Tool, exePath, "--set-icon", iconPath)
		return s.result(logger, code, err), nil
	}
	return s.applyScript(logger, exePath, iconPath)
}

// applyScript writes a Resource Hacker instruction file next to the executable and runs it.
// Instruction and log files are always removed.
func (s *ExternalStrategy) applyScript(logger PrintlnFunc, exePath, iconPath string) ([]error, error) {
	dir := filepath.Dir(exePath)
	id := uuid.NewString()
	scriptPath := filepath.Join(dir, "_rh_script_"+id+".txt")
	logPath := filepath.Join(dir, "_rh_log_"+id+".txt")
	defer func() {
		_ = os.Remove(scriptPath)
		_ = os.Remove(logPath)
	}()

	if err := os.WriteFile(scriptPath, []byte(instructions(exePath, iconPath, logPath)), 0644); err != nil {
		return nil, bundler.Errorf(bundler.KindResource, "write instruction file: %w", err)
	}

	code, err := s.provider().Run(s.Tool, "-script", scriptPath)
	return s.result(logger, code, err), nil
}

func (s *ExternalStrategy) provider() Provider {
	if s.Provider == nil {
		return ExecProvider{}
	}
	return s.Provider
}

func (s *ExternalStrategy) result(logger PrintlnFunc, code int, err error) []error {
	var warning *bundler.Error
	switch {
	case err != nil:
		warning = bundler.Errorf(bundler.KindWarning, "could not run %s: %w", s.Tool, err)
	case code != 0:
		warning = bundler.Errorf(bundler.KindWarning, "%s returned code %d, icon may not have been applied correctly", filepath.Base(s.Tool), code)
	default:
		return nil
	}
	logger("[WARNING] %s", warning)
	return []error{warning}
}

// instructions returns a Resource Hacker script that replaces the main icon group in place.
func instructions(exePath, iconPath, logPath string) string {
	var b strings.Builder
	b.WriteString("[FILENAMES]\n")
	fmt.Fprintf(&b, "Exe=%s\n", exePath)
	fmt.Fprintf(&b, "SaveAs=%s\n", exePath)
	fmt.Fprintf(&b, "Log=%s\n", logPath)
	b.WriteString("[COMMANDS]\n")
	fmt.Fprintf(&b, "-addoverwrite %s, ICONGROUP,MAINICON,0\n", iconPath)
	return b.String()
}
