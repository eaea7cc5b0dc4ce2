// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and
// external adapters (infrastructure). Following the Ports and Adapters
// pattern, these interfaces allow the application to remain independent of
// specific implementations like databases, subprocess supervision, or CLI
// frameworks.
package ports

import (
	"context"

	"github.com/doeshing/aish/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.aish/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// Validator screens a raw command string before anything touches it.
// Validation failures are values, never errors: the result carries risk
// level, hard errors and actionable suggestions.
type Validator interface {
	Validate(raw string, opts domain.ValidateOptions) domain.ValidationResult
}

// CacheStore is a bounded, time-expiring store of resolved command
// sequences keyed by fingerprint. Implementations are not required to be
// safe for unsynchronized concurrent mutation; single-writer discipline is
// enforced by the router.
type CacheStore interface {
	Get(key string) (domain.CacheEntry, bool)
	Set(entry domain.CacheEntry)
	Entries() []domain.CacheEntry
	Len() int
	Clear()
	Settings() domain.CacheSettings
	Update(settings domain.CacheSettings)
}

// Router decides, per request, whether a command can execute directly,
// is a cache hit, or must escalate to the AI collaborator.
type Router interface {
	Route(ctx context.Context, input string, snapshot domain.ContextSnapshot) (domain.ExecutionPlan, error)
	// Commit stores the result of a successfully executed plan so rapid
	// repeats become cache hits.
	Commit(plan domain.ExecutionPlan, entry domain.CacheEntry)
}

// CommandExecutor spawns and supervises exactly one foreground process at a
// time. All failures come back as tagged results, never as panics.
type CommandExecutor interface {
	Execute(ctx context.Context, command string, opts domain.ExecuteOptions) domain.ExecutionResult
	// ExecuteSequence runs commands strictly in array order, each fully
	// resolved before the next starts.
	ExecuteSequence(ctx context.Context, commands []string, opts domain.ExecuteOptions) []domain.ExecutionResult
	WorkingDir() string
	History() []domain.HistoryEntry
}

// ExecutorFactory builds independent executor instances, needed by parallel
// workflow steps which must not share the single foreground slot.
type ExecutorFactory interface {
	NewExecutor() CommandExecutor
}

// WorkflowEngine sequences named workflows with per-step rollback
// bookkeeping.
type WorkflowEngine interface {
	Define(def domain.WorkflowDefinition) error
	Run(ctx context.Context, id string, params map[string]interface{}) (domain.WorkflowExecution, error)
	Definitions() []domain.WorkflowDefinition
}

// SessionStore is the injected home of mutable session state (working
// directory, preferences). Get/set by key, last-write-wins, no
// transactional guarantees.
type SessionStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// HistoryRepository persists closed execution records.
type HistoryRepository interface {
	Save(record domain.HistoryRecord) error
	Records(limit int, search string) ([]domain.HistoryRecord, error)
	Clear() error
	ExportJSON(dest string) error
	PruneOlderThan(days int) error
	Path() string
}

// ContextCollector gathers environmental context attached to requests and
// sent across the AI collaborator boundary.
type ContextCollector interface {
	Collect(ctx context.Context, cfg domain.Config) (domain.ContextSnapshot, error)
}

// Assistant is the AI collaborator boundary. The core sends the query plus
// context and expects ranked command sequences back; every returned command
// re-enters the Validator before execution.
type Assistant interface {
	Name() string
	Suggest(ctx context.Context, query string, snapshot domain.ContextSnapshot) (domain.AssistantReply, error)
}

// Logger provides structured logging abstraction for the application layer.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
