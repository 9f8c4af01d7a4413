// Package control is the local channel between one-shot commands and a
// running `habitual serve`. The daemon listens on a loopback port and
// publishes it in a port|pid|secret lockfile, the same handshake the tray
// app uses for notifications.
package control

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/julianstephens/habitual/internal/constants"
)

// ErrNotRunning is returned by Client calls when no daemon answers.
var ErrNotRunning = errors.New("habitual serve is not running")

// Handler is implemented by the daemon.
type Handler interface {
	// Logged reports that habitID was logged outside the daemon.
	Logged(ctx context.Context, habitID string) error
	// Resync reloads reminders and settings from the store.
	Resync(ctx context.Context) error
	// Action applies a notification action.
	Action(ctx context.Context, req ActionRequest) error
	// States returns the reminder state of every tracked habit.
	States(ctx context.Context) (map[string]string, error)
}

// ActionRequest is a notification action, either replied by the tray app
// or sent with `habitual notify action`.
type ActionRequest struct {
	RequestID string `json:"request_id"`
	Action    string `json:"action"`
	Input     string `json:"input,omitempty"`
}

type habitRequest struct {
	HabitID string `json:"habit_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Lockfile is the content of the daemon's lockfile.
type Lockfile struct {
	Port   int
	PID    int
	Secret string
}

func (l Lockfile) String() string {
	return fmt.Sprintf("%d|%d|%s", l.Port, l.PID, l.Secret)
}

// LockfilePath returns the lockfile location inside dir.
func LockfilePath(dir string) string {
	return filepath.Join(dir, constants.ControlLockfileName)
}

// ReadLockfile parses a port|pid|secret lockfile.
func ReadLockfile(path string) (Lockfile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Lockfile{}, err
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return Lockfile{}, errors.New("lockfile is malformed")
	}

	port, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Lockfile{}, errors.New("invalid port number in lockfile")
	}
	if port < 1 || port > 65535 {
		return Lockfile{}, fmt.Errorf("port number %d is outside valid range (1-65535)", port)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Lockfile{}, errors.New("invalid process ID in lockfile")
	}
	secret := strings.TrimSpace(parts[2])
	if secret == "" {
		return Lockfile{}, errors.New("secret in lockfile is empty")
	}
	return Lockfile{Port: port, PID: pid, Secret: secret}, nil
}
