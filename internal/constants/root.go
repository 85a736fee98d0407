package constants

import "time"

const (
	AppName            = "hard75"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/hard75/hard75.db"
	Version            = "v0.1.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// ChallengeDays is the length of the program.
	ChallengeDays = 75

	// LocalFilePrefix marks a task value as a reference to a locally captured image.
	LocalFilePrefix = "file://"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "hard75-"
	BackupFileSuffix = ".db"

	// Log rotation
	LogDirName    = "logs"
	LogMaxSizeMB  = 5
	LogMaxBackups = 3
	LogMaxAgeDays = 30

	// Writer lock
	LockfileName = "hard75.lock"

	// Background write constants
	WriteMaxRetries = 3
	WriteRetryDelay = 100 * time.Millisecond
	WriteQueueSize  = 64

	// SQLite connection
	SQLiteBusyTimeoutMs = 5000

	// Environment variables
	EnvConnectionString = "HARD75_DB_CONNECTION"
)
