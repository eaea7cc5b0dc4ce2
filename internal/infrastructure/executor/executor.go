// Package executor spawns and supervises foreground processes. Commands are
// parsed into an argument vector and never handed to a shell interpreter,
// which closes the injection class entirely even if validation has a gap.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/doeshing/aish/internal/domain"
	"github.com/doeshing/aish/internal/infrastructure/history"
	"github.com/doeshing/aish/internal/pkg/filesystem"
	"github.com/doeshing/aish/internal/ports"
)

// Sentinel errors surfaced inside tagged results.
var (
	// ErrAlreadyRunning reports the busy gate: one foreground process at a
	// time per executor instance.
	ErrAlreadyRunning = errors.New("an execution is already in progress")
	// ErrElevationRefused is returned for sudo-style commands. Plaintext
	// elevated credentials are never accepted; callers are directed to the
	// system's interactive authentication flow.
	ErrElevationRefused = errors.New("elevated execution is refused; authenticate through the system prompt instead")
	// ErrShellOperator is returned when a command relies on shell syntax
	// the executor does not interpret.
	ErrShellOperator = errors.New("shell operators are not supported; commands run without a shell")
)

// SessionKeyWorkingDir is the session store key holding the current
// working directory.
const SessionKeyWorkingDir = "current_directory"

// Options tunes a new executor.
type Options struct {
	Timeout     time.Duration
	HistorySize int
}

// Executor implements ports.CommandExecutor.
type Executor struct {
	validator ports.Validator
	session   ports.SessionStore
	logger    ports.Logger
	ring      *history.Ring
	timeout   time.Duration

	mu      sync.Mutex
	busy    bool
	workDir string
}

// New builds an executor. The initial working directory comes from the
// session store when present, the process working directory otherwise.
func New(validator ports.Validator, session ports.SessionStore, logger ports.Logger, opts Options) *Executor {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultCommandTimeout
	}
	workDir := ""
	if session != nil {
		if dir, ok := session.Get(SessionKeyWorkingDir); ok && dir != "" {
			workDir = dir
		}
	}
	if workDir == "" {
		if wd, err := os.Getwd(); err == nil {
			workDir = wd
		} else {
			workDir = filesystem.UserHomeDir()
		}
	}
	return &Executor{
		validator: validator,
		session:   session,
		logger:    logger,
		ring:      history.NewRing(opts.HistorySize),
		timeout:   timeout,
		workDir:   workDir,
	}
}

// Execute implements ports.CommandExecutor. All failure modes come back as
// tagged results; only the validation screen prevents side effects.
func (e *Executor) Execute(ctx context.Context, command string, opts domain.ExecuteOptions) domain.ExecutionResult {
	if !opts.AllowConcurrent {
		e.mu.Lock()
		if e.busy {
			e.mu.Unlock()
			return domain.ExecutionResult{Err: ErrAlreadyRunning}
		}
		e.busy = true
		e.mu.Unlock()
		defer func() {
			e.mu.Lock()
			e.busy = false
			e.mu.Unlock()
		}()
	}

	// Re-validate: never trust a previously validated string blindly.
	screen := e.validator.Validate(command, domain.ValidateOptions{
		Strict:      opts.Strict,
		AllowHidden: true,
	})
	if screen.Blocked || !screen.IsValid {
		return domain.ExecutionResult{Validation: &screen, Err: fmt.Errorf("command rejected by validation")}
	}
	sanitized := screen.Sanitized

	// History is appended on every path past validation, even when the
	// execution itself errors out.
	defer e.ring.Append(domain.HistoryEntry{
		Command:          sanitized,
		Timestamp:        time.Now(),
		WorkingDirectory: e.WorkingDir(),
	})

	if result, handled := e.runBuiltin(sanitized); handled {
		return result
	}

	switch special := Classify(sanitized); special.Kind {
	case KindEditor:
		return e.openForEditing(special.Path)
	case KindRedirect:
		return e.writeFile(special.Path, special.Content, special.Append)
	case KindTouch:
		return e.touchFile(special.Path)
	case KindShell:
		return e.spawn(ctx, sanitized, opts)
	default:
		return domain.ExecutionResult{Err: fmt.Errorf("unhandled command class")}
	}
}

// ExecuteSequence runs commands strictly in order through this executor,
// each fully resolved before the next starts. The busy gate is held across
// the whole sequence; execution stops at the first failure.
func (e *Executor) ExecuteSequence(ctx context.Context, commands []string, opts domain.ExecuteOptions) []domain.ExecutionResult {
	if !opts.AllowConcurrent {
		e.mu.Lock()
		if e.busy {
			e.mu.Unlock()
			return []domain.ExecutionResult{{Err: ErrAlreadyRunning}}
		}
		e.busy = true
		e.mu.Unlock()
		defer func() {
			e.mu.Lock()
			e.busy = false
			e.mu.Unlock()
		}()
	}

	inner := opts
	inner.AllowConcurrent = true

	var results []domain.ExecutionResult
	for _, command := range commands {
		result := e.Execute(ctx, command, inner)
		results = append(results, result)
		if !result.Success {
			break
		}
	}
	return results
}

// WorkingDir implements ports.CommandExecutor.
func (e *Executor) WorkingDir() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.workDir
}

// History returns the ring contents, oldest first.
func (e *Executor) History() []domain.HistoryEntry {
	return e.ring.Entries()
}

// runBuiltin handles commands that must not be spawned as subprocesses.
func (e *Executor) runBuiltin(command string) (domain.ExecutionResult, bool) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return domain.ExecutionResult{}, false
	}
	switch fields[0] {
	case "sudo", "doas":
		return domain.ExecutionResult{Err: ErrElevationRefused}, true
	case "cd":
		target := filesystem.UserHomeDir()
		if len(fields) > 1 {
			target = fields[1]
		}
		return e.changeDirectory(target), true
	}
	return domain.ExecutionResult{}, false
}

// changeDirectory updates internal state instead of spawning a process.
func (e *Executor) changeDirectory(target string) domain.ExecutionResult {
	resolved := e.resolvePath(target)
	info, err := os.Stat(resolved)
	if err != nil {
		return domain.ExecutionResult{Err: fmt.Errorf("cd: %s: no such directory", target)}
	}
	if !info.IsDir() {
		return domain.ExecutionResult{Err: fmt.Errorf("cd: %s: not a directory", target)}
	}
	e.mu.Lock()
	e.workDir = resolved
	e.mu.Unlock()
	if e.session != nil {
		if err := e.session.Set(SessionKeyWorkingDir, resolved); err != nil && e.logger != nil {
			e.logger.Warn("persist working directory failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return domain.ExecutionResult{Success: true, Stdout: resolved}
}

func (e *Executor) resolvePath(path string) string {
	switch {
	case path == "~":
		return filesystem.UserHomeDir()
	case strings.HasPrefix(path, "~/"):
		return filepath.Join(filesystem.UserHomeDir(), path[2:])
	case filepath.IsAbs(path):
		return filepath.Clean(path)
	default:
		return filepath.Join(e.WorkingDir(), path)
	}
}

// openForEditing models an editor invocation as a file read, creating the
// file when it does not exist yet.
func (e *Executor) openForEditing(path string) domain.ExecutionResult {
	resolved := e.resolvePath(path)
	data, err := os.ReadFile(resolved)
	if err != nil {
		if !os.IsNotExist(err) {
			return domain.ExecutionResult{Err: fmt.Errorf("open %s: %w", path, err)}
		}
		if result := e.touchFile(path); !result.Success {
			return result
		}
	}
	return domain.ExecutionResult{Success: true, Stdout: string(data)}
}

func (e *Executor) writeFile(path, content string, appendTo bool) domain.ExecutionResult {
	resolved := e.resolvePath(path)
	flags := os.O_CREATE | os.O_WRONLY
	if appendTo {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(resolved, flags, 0o644)
	if err != nil {
		return domain.ExecutionResult{Err: fmt.Errorf("write %s: %w", path, err)}
	}
	defer f.Close()
	if _, err := f.WriteString(content + "\n"); err != nil {
		return domain.ExecutionResult{Err: fmt.Errorf("write %s: %w", path, err)}
	}
	return domain.ExecutionResult{Success: true}
}

func (e *Executor) touchFile(path string) domain.ExecutionResult {
	resolved := e.resolvePath(path)
	f, err := os.OpenFile(resolved, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return domain.ExecutionResult{Err: fmt.Errorf("touch %s: %w", path, err)}
	}
	_ = f.Close()
	now := time.Now()
	_ = os.Chtimes(resolved, now, now)
	return domain.ExecutionResult{Success: true}
}

// spawn runs the command as a subprocess: argument vector, restricted
// environment, hard wall-clock timeout, full output collection.
func (e *Executor) spawn(ctx context.Context, command string, opts domain.ExecuteOptions) domain.ExecutionResult {
	if containsShellOperator(command) {
		return domain.ExecutionResult{Err: ErrShellOperator}
	}

	args, err := shellquote.Split(command)
	if err != nil {
		return domain.ExecutionResult{Err: fmt.Errorf("parse command: %w", err)}
	}
	if len(args) == 0 {
		return domain.ExecutionResult{Err: fmt.Errorf("empty command")}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = e.timeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, args[0], args[1:]...)
	cmd.Dir = e.WorkingDir()
	cmd.Env = restrictedEnv()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	result := domain.ExecutionResult{
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		StartedAt:  start,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if cmd.Process != nil {
		result.PID = cmd.Process.Pid
	}

	if cctx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		result.ExitCode = -1
		result.Err = fmt.Errorf("command timed out after %s", timeout)
		return result
	}

	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		result.Success = true
	case errors.As(runErr, &exitErr):
		result.ExitCode = exitErr.ExitCode()
		result.Err = runErr
	default:
		// spawn failure (program not found, permission denied, ...)
		result.ExitCode = -1
		result.Err = fmt.Errorf("failed to start command: %w", runErr)
	}
	return result
}

// Factory builds independent executor instances for parallel workflow
// steps. Instances share the validator and session store but own their busy
// flag and history ring.
type Factory struct {
	Validator ports.Validator
	Session   ports.SessionStore
	Logger    ports.Logger
	Opts      Options
}

// NewExecutor implements ports.ExecutorFactory.
func (f *Factory) NewExecutor() ports.CommandExecutor {
	return New(f.Validator, f.Session, f.Logger, f.Opts)
}

var (
	_ ports.CommandExecutor = (*Executor)(nil)
	_ ports.ExecutorFactory = (*Factory)(nil)
)
