package errors

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/storage"
)

var (
	exitFunc           = os.Exit
	stderr   io.Writer = os.Stderr
)

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...any) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// IsNotFound reports whether err means the requested habit, entry or
// setting does not exist.
func IsNotFound(err error) bool {
	return stderrors.Is(err, storage.ErrNotFound) || stderrors.Is(err, sql.ErrNoRows)
}

// Fatal logs an error and exits the program with exit code 1. A nil error is a no-op.
func Fatal(err error) {
	if err == nil {
		return
	}
	logger.Error("Command execution failed", "err", err)
	fmt.Fprintln(stderr, Format(err))
	exitFunc(1)
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...any) {
	logger.Error("Command execution failed", "err", fmt.Sprintf(format, args...))
	fmt.Fprintln(stderr, Formatf(format, args...))
	exitFunc(1)
}
