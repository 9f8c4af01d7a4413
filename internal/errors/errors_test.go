package errors

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/storage"
)

func captureExit(t *testing.T) (*bytes.Buffer, *int) {
	t.Helper()
	var buf bytes.Buffer
	code := -1
	origExit, origStderr := exitFunc, stderr
	exitFunc = func(c int) { code = c }
	stderr = &buf
	t.Cleanup(func() {
		exitFunc, stderr = origExit, origStderr
	})
	return &buf, &code
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil error", nil, ""},
		{"simple error", errors.New("something went wrong"), "Error: something went wrong"},
		{"wrapped error", fmt.Errorf("loading habit: %w", storage.ErrNotFound), "Error: loading habit: not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.err); got != tt.expected {
				t.Errorf("Format(%v) = %q, want %q", tt.err, got, tt.expected)
			}
		})
	}
}

func TestFormatf(t *testing.T) {
	got := Formatf("habit %q has no reminder at %02d:%02d", "Read", 7, 30)
	want := `Error: habit "Read" has no reminder at 07:30`
	if got != want {
		t.Errorf("Formatf() = %q, want %q", got, want)
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"storage sentinel", storage.ErrNotFound, true},
		{"wrapped storage sentinel", fmt.Errorf("get habit: %w", storage.ErrNotFound), true},
		{"sql no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), true},
		{"other", errors.New("disk full"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestFatal(t *testing.T) {
	buf, code := captureExit(t)

	Fatal(errors.New("test error"))

	if *code != 1 {
		t.Errorf("Fatal() exit code = %d, want 1", *code)
	}
	if !strings.Contains(buf.String(), "Error: test error") {
		t.Errorf("Fatal() stderr = %q, want to contain %q", buf.String(), "Error: test error")
	}
}

func TestFatal_LogsUnderErrKey(t *testing.T) {
	captureExit(t)
	var logs bytes.Buffer
	logger.Logger = log.NewWithOptions(&logs, log.Options{Level: log.DebugLevel})
	t.Cleanup(func() { logger.Logger = nil })

	Fatal(errors.New("disk full"))

	if !strings.Contains(logs.String(), `err="disk full"`) {
		t.Errorf("expected err key in log output, got %q", logs.String())
	}
}

func TestFatal_NilError(t *testing.T) {
	buf, code := captureExit(t)

	Fatal(nil)

	if *code != -1 {
		t.Errorf("Fatal(nil) exited with %d", *code)
	}
	if buf.Len() != 0 {
		t.Errorf("Fatal(nil) wrote %q", buf.String())
	}
}

func TestFatalf(t *testing.T) {
	buf, code := captureExit(t)

	Fatalf("connection to %s:%d failed", "localhost", 5432)

	if *code != 1 {
		t.Errorf("Fatalf() exit code = %d, want 1", *code)
	}
	if !strings.Contains(buf.String(), "Error: connection to localhost:5432 failed") {
		t.Errorf("Fatalf() stderr = %q", buf.String())
	}
}
