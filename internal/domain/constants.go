package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Timeout and duration constants
const (
	// DefaultCommandTimeout is the wall-clock limit for one command.
	DefaultCommandTimeout = 30 * time.Second
	// PendingRetention is how long a completed router entry absorbs
	// rapid repeats of the same input.
	PendingRetention = 5 * time.Second
)

// Limit constants
const (
	// MaxCommandLength is the hard cap on raw command length.
	MaxCommandLength = 1000
	// MaxFileNameLength is the hard cap on a single file name.
	MaxFileNameLength = 255
	// DefaultHistorySize is the capacity of the executor's history ring.
	DefaultHistorySize = 100
	// DefaultMaxCacheEntries is the maximum number of cache entries.
	DefaultMaxCacheEntries = 100
	// DefaultHistoryLimit is the default number of history records to display.
	DefaultHistoryLimit = 20
	// MaxSuggestions is the cap on "did you mean" alternatives.
	MaxSuggestions = 3
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
