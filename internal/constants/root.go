package constants

import "time"

const (
	AppName            = "habitual"
	DefaultKeyringUser = "database-connection"
	SMTPKeyringUser    = "smtp-password"
	DefaultConfigDir   = "~/.config/habitual"
	DefaultDBPath      = "~/.config/habitual/habitual.db"
	DefaultConfigFile  = "~/.config/habitual/config.yaml"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Environment overrides
	EnvConfigFile     = "HABITUAL_CONFIG"
	EnvDBConnection   = "HABITUAL_DB_CONNECTION"
	EnvSMTPPassword   = "HABITUAL_SMTP_PASSWORD"
	EnvTestPostgresDB = "HABITUAL_TEST_POSTGRES"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habitual-"
	BackupFileSuffix = ".db"

	// Streak walking bound, in periods
	DefaultMaxStreakPeriods = 5000

	// Notify constants
	NotifierLockfileName    = "habitual-notifier.lock"
	NotificationDurationMs  = 5000
	TrayAppIdentifier       = "com.julianstephens.habitual"
	TrayExecutablePrefix    = "habitual-tray"
	TraySecretHeader        = "X-Habitual-Secret"
	ControlLockfileName     = "habitual-serve.lock"
	ControlExecutablePrefix = "habitual"
	DefaultFollowUpDelay    = 30 * time.Minute

	// Notification request identifiers
	RequestIDPrefix        = "habit"
	FollowUpSegment        = "followup"
	DailySummaryID         = "summary.daily"
	DailySummaryThread     = "summary.daily"
	DeepLinkScheme         = "habitual"
	NotificationSinkTray   = "tray"
	NotificationSinkSMTP   = "smtp"
	NotificationSinkStdout = "stdout"
)
