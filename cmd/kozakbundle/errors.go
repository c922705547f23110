package main

import (
	"errors"
	"log"
	"strings"

	"github.com/kozakscript/bundler"
)

// errorLabel returns the log prefix for a fatal error.
func errorLabel(err error) string {
	var e *bundler.Error
	if errors.As(err, &e) {
		return "[" + strings.ToUpper(e.Kind.String()) + "]"
	}
	return "[ERROR]"
}

// exitCode reports a fatal error and returns the process exit code.
func exitCode(logger *log.Logger, err error) int {
	if err == nil {
		return 0
	}
	logger.Printf("%s %s", errorLabel(err), err)
	return 1
}
