package commands

// Error messages shared across subcommands.
const (
	ErrHistoryStoreUnavailable = "history store unavailable"
	ErrCacheStoreUnavailable   = "cache store unavailable"
	ErrInvalidPruneDays        = "--days must be > 0"
)

// Success messages.
const (
	MsgNoHistoryRecorded  = "No history recorded yet."
	MsgNoCachedCommands   = "No cached commands."
	MsgNoWorkflowsDefined = "No workflows defined."
)
