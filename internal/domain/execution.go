package domain

import "time"

// ExecuteOptions tunes a single executor call.
type ExecuteOptions struct {
	// Timeout overrides the default wall-clock limit when positive.
	Timeout time.Duration
	// AllowConcurrent bypasses the busy gate. Used internally by sequence
	// execution, which intentionally serializes many commands through one
	// logical executor instance.
	AllowConcurrent bool
	// Strict is forwarded to re-validation.
	Strict bool
}

// ExecutionResult is the tagged outcome of one executor call. Failures are
// ordinary values here, never exceptions; Err carries the underlying cause
// when one exists.
type ExecutionResult struct {
	Success    bool
	Stdout     string
	Stderr     string
	ExitCode   int
	TimedOut   bool
	// StartedAt and PID are set once a process was actually spawned;
	// builtins and refused commands leave them zero.
	StartedAt  time.Time
	PID        int
	DurationMS int64
	// Validation is set when the command was refused before any side effect.
	Validation *ValidationResult
	Err        error
}

// HistoryEntry is one slot of the executor's capacity-bounded ring.
type HistoryEntry struct {
	Command          string    `json:"command"`
	Timestamp        time.Time `json:"timestamp"`
	WorkingDirectory string    `json:"working_directory"`
}

// HistoryRecord captures executed command metadata for persistent history.
type HistoryRecord struct {
	Timestamp       time.Time `json:"timestamp"`
	Prompt          string    `json:"prompt"`
	Command         string    `json:"command"`
	Source          string    `json:"source"`
	Executed        bool      `json:"executed"`
	Success         bool      `json:"success"`
	ExitCode        int       `json:"exit_code"`
	RiskLevel       RiskLevel `json:"risk_level"`
	ExecutionTimeMS int64     `json:"execution_time_ms"`
}

// Request sources recorded in history.
const (
	SourceDirect    = "direct"
	SourceCache     = "cache"
	SourceAssistant = "assistant"
	SourceWorkflow  = "workflow"
)
