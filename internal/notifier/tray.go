package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/control"
	"github.com/julianstephens/habitual/internal/reminders"
)

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess
)

// WebhookPayload is the body posted to the tray app.
type WebhookPayload struct {
	RequestID  string   `json:"request_id"`
	Title      string   `json:"title"`
	Text       string   `json:"text"`
	Category   string   `json:"category,omitempty"`
	Actions    []string `json:"actions,omitempty"`
	DeepLink   string   `json:"deep_link,omitempty"`
	Urgent     bool     `json:"urgent"`
	DurationMs uint32   `json:"duration_ms"`
}

// TraySink posts notifications to the local tray app found through its
// lockfile.
type TraySink struct {
	client *http.Client
}

func NewTraySink() *TraySink {
	return &TraySink{client: &http.Client{Timeout: 10 * time.Second}}
}

func (s *TraySink) Deliver(ctx context.Context, requestID string, content reminders.Content) error {
	trayAppConfigPath, err := GetTrayAppConfigDir()
	if err != nil {
		return err
	}

	port, secret, err := findAndValidateTrayProcess(filepath.Join(trayAppConfigPath, constants.NotifierLockfileName))
	if err != nil {
		return err
	}

	payload := WebhookPayload{
		RequestID:  requestID,
		Title:      content.Title,
		Text:       content.Body,
		Category:   content.Category,
		Actions:    content.Actions,
		DeepLink:   content.DeepLink,
		Urgent:     content.TimeSensitive,
		DurationMs: constants.NotificationDurationMs,
	}

	return s.send(ctx, port, secret, payload)
}

// GetTrayAppConfigDir returns the configuration directory used by the tray application.
func GetTrayAppConfigDir() (string, error) {
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}

	trayConfigDir := filepath.Join(configDir, constants.TrayAppIdentifier)

	// settings.json may move the lockfile elsewhere
	data, err := os.ReadFile(filepath.Join(trayConfigDir, "settings.json"))
	if err == nil {
		var store struct {
			Settings struct {
				LockfileDir *string `json:"lockfile_dir"`
			} `json:"settings"`
		}
		if err := json.Unmarshal(data, &store); err == nil {
			if store.Settings.LockfileDir != nil && *store.Settings.LockfileDir != "" {
				return *store.Settings.LockfileDir, nil
			}
		}
	}

	return trayConfigDir, nil
}

// findAndValidateTrayProcess reads the tray lockfile and checks that its
// pid still belongs to the tray app.
func findAndValidateTrayProcess(lockfilePath string) (string, string, error) {
	lock, err := control.ReadLockfile(lockfilePath)
	if errors.Is(err, fs.ErrNotExist) {
		return "", "", errors.New("habitual-tray is not running")
	}
	if err != nil {
		return "", "", err
	}

	process, err := findProcessFunc(lock.PID)
	if err != nil || process == nil {
		return "", "", errors.New("habitual-tray process not running")
	}
	if !strings.HasPrefix(process.Executable(), constants.TrayExecutablePrefix) {
		return "", "", fmt.Errorf("process with PID %d is not habitual-tray (is %s)", lock.PID, process.Executable())
	}

	return strconv.Itoa(lock.Port), lock.Secret, nil
}

func (s *TraySink) send(ctx context.Context, port, secret string, payload WebhookPayload) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://127.0.0.1:%s", port)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.TraySecretHeader, secret)

	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := io.ReadAll(res.Body)
	return fmt.Errorf("notification failed with status %d: %s", res.StatusCode, string(body))
}
