// Package config loads the process configuration: where the database
// lives, how reminders are delivered and how verbose logging is.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/config"

	"github.com/julianstephens/habitual/internal/constants"
)

type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Notify    NotifyConfig    `yaml:"notify"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	Reminders RemindersConfig `yaml:"reminders"`
}

type DatabaseConfig struct {
	// Path is a SQLite file path or a PostgreSQL connection string
	// without a password.
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

type NotifyConfig struct {
	Sink string `yaml:"sink"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	UseTLS   bool   `yaml:"use_tls"`
}

type RemindersConfig struct {
	// FollowUpDelay overrides the follow_up_minutes setting when set,
	// e.g. "45m".
	FollowUpDelay    string `yaml:"follow_up_delay"`
	MaxStreakPeriods int    `yaml:"max_streak_periods"`
}

var userHomeDirFunc = os.UserHomeDir

func defaults() map[string]any {
	return map[string]any{
		"database": map[string]any{"path": constants.DefaultDBPath},
		"logging":  map[string]any{"debug": false},
		"notify":   map[string]any{"sink": constants.NotificationSinkTray},
		"smtp":     map[string]any{"port": 587, "use_tls": true},
		"reminders": map[string]any{
			"follow_up_delay":    "",
			"max_streak_periods": constants.DefaultMaxStreakPeriods,
		},
	}
}

// EnvFileName is read from the config directory before the YAML file is
// expanded. Variables already set in the environment win.
const EnvFileName = ".env"

func loadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads the YAML file at path on top of the built-in defaults,
// expanding ${VAR} and ${VAR:default} references from the environment.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	opts := []config.YAMLOption{config.Static(defaults())}
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return nil, err
		}
		if err := loadEnvFile(filepath.Join(filepath.Dir(expanded), EnvFileName)); err != nil {
			return nil, err
		}
		if _, err := os.Stat(expanded); err == nil {
			opts = append(opts, config.File(expanded))
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to access config file: %w", err)
		}
	}
	opts = append(opts, config.Expand(os.LookupEnv))

	provider, err := config.NewYAML(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create config provider: %w", err)
	}

	var cfg Config
	if err := provider.Get(config.Root).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("failed to populate config: %w", err)
	}

	cfg.overrideFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) overrideFromEnv() {
	if val := os.Getenv(constants.EnvDBConnection); val != "" {
		c.Database.Path = val
	}
}

func (c *Config) Validate() error {
	switch c.Notify.Sink {
	case constants.NotificationSinkTray, constants.NotificationSinkSMTP, constants.NotificationSinkStdout:
	default:
		return fmt.Errorf("unknown notify sink %q (expected tray, smtp or stdout)", c.Notify.Sink)
	}
	if _, err := c.Reminders.Delay(); err != nil {
		return err
	}
	if c.Reminders.MaxStreakPeriods < 0 {
		return errors.New("reminders.max_streak_periods cannot be negative")
	}
	return nil
}

// Delay parses FollowUpDelay. Zero means "use the stored setting".
func (r RemindersConfig) Delay() (time.Duration, error) {
	if strings.TrimSpace(r.FollowUpDelay) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.FollowUpDelay)
	if err != nil {
		return 0, fmt.Errorf("invalid reminders.follow_up_delay: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("reminders.follow_up_delay must be positive, got %s", d)
	}
	return d, nil
}

func (d DatabaseConfig) IsPostgres() bool {
	return strings.HasPrefix(d.Path, "postgres://") || strings.HasPrefix(d.Path, "postgresql://")
}

// ExpandPath resolves a leading "~" to the user's home directory.
func ExpandPath(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := userHomeDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

const starterTemplate = `# habitual configuration
database:
  # SQLite file or postgres://user@host:5432/habitual (no password; use the keyring)
  path: %s
logging:
  debug: false
notify:
  # tray, smtp or stdout
  sink: tray
smtp:
  host: ""
  port: 587
  username: ""
  from: ""
  to: ""
  use_tls: true
reminders:
  follow_up_delay: ""
  max_streak_periods: %d
`

// WriteDefault writes a commented starter file to path unless one exists.
func WriteDefault(path, dbPath string) (bool, error) {
	expanded, err := ExpandPath(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(expanded); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0700); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	body := fmt.Sprintf(starterTemplate, dbPath, constants.DefaultMaxStreakPeriods)
	if err := os.WriteFile(expanded, []byte(body), 0600); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}
