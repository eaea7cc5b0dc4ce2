// Package workflow sequences named multi-step definitions against the
// command executor, with predicate gating, variable substitution and
// per-step rollback bookkeeping.
package workflow

import (
	"context"
	"fmt"
	"os"
	osexec "os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/doeshing/aish/internal/domain"
	"github.com/doeshing/aish/internal/ports"
)

// Engine implements ports.WorkflowEngine.
type Engine struct {
	factory ports.ExecutorFactory
	session ports.SessionStore
	logger  ports.Logger

	mu    sync.Mutex
	defs  map[string]domain.WorkflowDefinition
	order []string
}

// NewEngine builds an engine. The factory supplies one executor per run plus
// independent executors for parallel groups.
func NewEngine(factory ports.ExecutorFactory, session ports.SessionStore, logger ports.Logger) *Engine {
	return &Engine{
		factory: factory,
		session: session,
		logger:  logger,
		defs:    map[string]domain.WorkflowDefinition{},
	}
}

// Define registers a definition after structural validation. Redefining an
// existing id replaces it.
func (e *Engine) Define(def domain.WorkflowDefinition) error {
	if err := ValidateDefinition(def); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.defs[def.ID]; !exists {
		e.order = append(e.order, def.ID)
	}
	e.defs[def.ID] = def
	return nil
}

// Definitions returns registered definitions in registration order.
func (e *Engine) Definitions() []domain.WorkflowDefinition {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.WorkflowDefinition, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.defs[id])
	}
	return out
}

// runState is the mutable per-run record. Parallel groups touch it from
// multiple goroutines, hence the lock.
type runState struct {
	mu   sync.Mutex
	exec *domain.WorkflowExecution
}

func (s *runState) record(result domain.StepResult) {
	s.mu.Lock()
	s.exec.Results = append(s.exec.Results, result)
	s.mu.Unlock()
}

func (s *runState) pushRollback(command string) {
	s.mu.Lock()
	s.exec.RollbackStack = append(s.exec.RollbackStack, command)
	s.mu.Unlock()
}

func (s *runState) bind(name string, value interface{}) {
	s.mu.Lock()
	s.exec.Context[name] = value
	s.mu.Unlock()
}

// snapshot copies the run context under the lock. Substitution and condition
// evaluation work on the copy, so parallel siblings binding output variables
// never race with readers.
func (s *runState) snapshot() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make(map[string]interface{}, len(s.exec.Context))
	for k, v := range s.exec.Context {
		copied[k] = v
	}
	return copied
}

func (s *runState) lastSuccess() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.exec.Results) == 0 {
		return true
	}
	return s.exec.Results[len(s.exec.Results)-1].Success
}

// Run executes a registered workflow. Run errors for an unknown id only;
// everything that happens inside the run is reported through the returned
// execution, including failure and rollback.
func (e *Engine) Run(ctx context.Context, id string, params map[string]interface{}) (domain.WorkflowExecution, error) {
	e.mu.Lock()
	def, ok := e.defs[id]
	e.mu.Unlock()
	if !ok {
		return domain.WorkflowExecution{}, fmt.Errorf("unknown workflow %q", id)
	}

	runCtx := map[string]interface{}{}
	for k, v := range def.Variables {
		runCtx[k] = v
	}
	for k, v := range params {
		runCtx[k] = v
	}

	execution := &domain.WorkflowExecution{
		ID:         uuid.NewString(),
		Definition: def,
		Context:    runCtx,
		Status:     domain.WorkflowRunning,
	}
	state := &runState{exec: execution}
	executor := e.factory.NewExecutor()

	for i := range def.Steps {
		step := &def.Steps[i]
		execution.CurrentStep = i
		if !e.predicate(step.Condition, state, executor) {
			continue
		}
		result := e.runStep(ctx, executor, step, state)
		state.record(result)
		if !result.Success && step.Critical {
			e.rollback(ctx, executor, state)
			execution.Status = domain.WorkflowFailed
			return *execution, nil
		}
	}

	execution.Status = domain.WorkflowCompleted
	e.recordParameters(def, runCtx)
	return *execution, nil
}

// predicate gates a step. A false predicate skips the step without recording
// a result.
func (e *Engine) predicate(cond string, state *runState, executor ports.CommandExecutor) bool {
	cond = strings.TrimSpace(cond)
	switch {
	case cond == "" || cond == "always":
		return true
	case strings.HasPrefix(cond, "tool:"):
		_, err := osexec.LookPath(strings.TrimSpace(strings.TrimPrefix(cond, "tool:")))
		return err == nil
	case strings.HasPrefix(cond, "file:"):
		path := Substitute(strings.TrimSpace(strings.TrimPrefix(cond, "file:")), state.snapshot())
		if !filepath.IsAbs(path) {
			path = filepath.Join(executor.WorkingDir(), path)
		}
		_, err := os.Stat(path)
		return err == nil
	case cond == "previous_success":
		return state.lastSuccess()
	default:
		return EvalCondition(cond, state.snapshot())
	}
}

func (e *Engine) runStep(ctx context.Context, executor ports.CommandExecutor, step *domain.WorkflowStep, state *runState) domain.StepResult {
	switch stepType(step) {
	case domain.StepCommand:
		return e.runCommand(ctx, executor, step, state)
	case domain.StepCondition:
		return e.runCondition(ctx, executor, step, state)
	case domain.StepLoop:
		return e.runLoop(ctx, executor, step, state)
	case domain.StepParallel:
		return e.runParallel(ctx, step, state)
	default:
		return domain.StepResult{StepID: step.ID, Error: fmt.Sprintf("unknown step type %q", step.Type)}
	}
}

func (e *Engine) runCommand(ctx context.Context, executor ports.CommandExecutor, step *domain.WorkflowStep, state *runState) domain.StepResult {
	vars := state.snapshot()
	command := Substitute(step.Command, vars)
	result := executor.Execute(ctx, command, domain.ExecuteOptions{AllowConcurrent: true})

	sr := domain.StepResult{
		StepID:  step.ID,
		Success: result.Success,
		Output:  strings.TrimRight(result.Stdout, "\n"),
	}
	if result.Err != nil {
		sr.Error = result.Err.Error()
	} else if !result.Success {
		sr.Error = strings.TrimSpace(result.Stderr)
	}
	if !result.Success {
		return sr
	}

	if step.FileContent != "" {
		content := Substitute(step.FileContent, vars)
		if err := writeStepFile(executor.WorkingDir(), command, content); err != nil {
			sr.Success = false
			sr.Error = err.Error()
			return sr
		}
	}
	if inverse, ok := inverseFor(command); ok {
		state.pushRollback(inverse)
	}
	if step.OutputVariable != "" {
		state.bind(step.OutputVariable, sr.Output)
	}
	return sr
}

func (e *Engine) runCondition(ctx context.Context, executor ports.CommandExecutor, step *domain.WorkflowStep, state *runState) domain.StepResult {
	branch := step.Else
	if EvalCondition(step.If, state.snapshot()) {
		branch = step.Then
	}
	if branch == nil {
		return domain.StepResult{StepID: step.ID, Success: true}
	}
	result := e.runStep(ctx, executor, branch, state)
	result.StepID = step.ID
	return result
}

func (e *Engine) runLoop(ctx context.Context, executor ports.CommandExecutor, step *domain.WorkflowStep, state *runState) domain.StepResult {
	items, err := resolveItems(step.Items, state.snapshot())
	if err != nil {
		return domain.StepResult{StepID: step.ID, Error: err.Error()}
	}
	loopVar := step.As
	if loopVar == "" {
		loopVar = "item"
	}

	sr := domain.StepResult{StepID: step.ID, Success: true}
	var outputs []string
	for _, item := range items {
		state.bind(loopVar, item)
		result := e.runStep(ctx, executor, step.Body, state)
		if result.Output != "" {
			outputs = append(outputs, result.Output)
		}
		if !result.Success {
			sr.Success = false
			sr.Error = result.Error
			if !step.ContinueOnError {
				break
			}
		}
	}
	sr.Output = strings.Join(outputs, "\n")
	return sr
}

// runParallel fans sub-steps out across independent executors and joins
// all-settled: every result is collected regardless of individual failure,
// and the group succeeds only if every member did.
func (e *Engine) runParallel(ctx context.Context, step *domain.WorkflowStep, state *runState) domain.StepResult {
	results := make([]domain.StepResult, len(step.Steps))
	var wg sync.WaitGroup
	for i := range step.Steps {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.runStep(ctx, e.factory.NewExecutor(), &step.Steps[i], state)
		}(i)
	}
	wg.Wait()

	sr := domain.StepResult{StepID: step.ID, Success: true}
	var outputs, errs []string
	for _, result := range results {
		if result.Output != "" {
			outputs = append(outputs, result.Output)
		}
		if !result.Success {
			sr.Success = false
			if result.Error != "" {
				errs = append(errs, result.Error)
			}
		}
	}
	sr.Output = strings.Join(outputs, "\n")
	sr.Error = strings.Join(errs, "; ")
	return sr
}

// rollback executes the stack in reverse order, best-effort: a failing
// inverse is logged and recorded, never escalated.
func (e *Engine) rollback(ctx context.Context, executor ports.CommandExecutor, state *runState) {
	stack := state.exec.RollbackStack
	for i := len(stack) - 1; i >= 0; i-- {
		command := stack[i]
		result := executor.Execute(ctx, command, domain.ExecuteOptions{AllowConcurrent: true})
		state.exec.RollbackRan = append(state.exec.RollbackRan, command)
		sr := domain.StepResult{StepID: "rollback", Success: result.Success, Output: command, Rollback: true}
		if result.Err != nil {
			sr.Error = result.Err.Error()
		}
		state.record(sr)
		if !result.Success && e.logger != nil {
			e.logger.Warn("rollback command failed", map[string]interface{}{
				"command": command,
				"error":   sr.Error,
			})
		}
	}
}

// recordParameters stores supplied parameter values for preference recall on
// later runs.
func (e *Engine) recordParameters(def domain.WorkflowDefinition, runCtx map[string]interface{}) {
	if e.session == nil {
		return
	}
	for _, name := range def.Parameters {
		value, ok := runCtx[name]
		if !ok {
			continue
		}
		key := "workflow." + def.ID + "." + name
		if err := e.session.Set(key, fmt.Sprintf("%v", value)); err != nil && e.logger != nil {
			e.logger.Warn("record workflow parameter failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
}

// resolveItems turns a loop's items expression into a slice: either a
// context path to an array or a comma-separated literal.
func resolveItems(expr string, ctx map[string]interface{}) ([]interface{}, error) {
	if value, ok := Lookup(ctx, strings.TrimSpace(expr)); ok {
		switch v := value.(type) {
		case []interface{}:
			return v, nil
		case []string:
			items := make([]interface{}, len(v))
			for i, s := range v {
				items[i] = s
			}
			return items, nil
		default:
			return nil, fmt.Errorf("loop items %q is not an array", expr)
		}
	}
	var items []interface{}
	for _, part := range strings.Split(expr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("loop items %q resolved to nothing", expr)
	}
	return items, nil
}

// writeStepFile writes a step's file content to the file named by the
// command's final argument.
func writeStepFile(workDir, command, content string) error {
	fields := strings.Fields(command)
	if len(fields) < 2 {
		return fmt.Errorf("cannot determine target file from %q", command)
	}
	target := strings.Trim(fields[len(fields)-1], `"'`)
	if !filepath.IsAbs(target) {
		target = filepath.Join(workDir, target)
	}
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}

// inverseFor maps a reversible forward command to its inverse. Coverage is
// deliberately narrow: directory creation, empty-file creation and
// repository initialization. Everything else contributes nothing.
func inverseFor(command string) (string, bool) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "", false
	}
	var args []string
	for _, f := range fields[1:] {
		if !strings.HasPrefix(f, "-") {
			args = append(args, f)
		}
	}
	switch fields[0] {
	case "mkdir":
		if len(args) == 1 {
			return "rmdir " + args[0], true
		}
	case "touch":
		if len(args) == 1 {
			return "rm " + args[0], true
		}
	case "git":
		if len(args) >= 1 && args[0] == "init" {
			if len(args) == 2 {
				return "rm -rf " + filepath.Join(args[1], ".git"), true
			}
			return "rm -rf .git", true
		}
	}
	return "", false
}

var _ ports.WorkflowEngine = (*Engine)(nil)
