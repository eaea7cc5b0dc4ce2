package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/aish/internal/domain"
	"github.com/doeshing/aish/internal/ports"
)

type fakeExecutor struct {
	mu       sync.Mutex
	commands []string
	fail     map[string]bool
	outputs  map[string]string
	workDir  string
}

func (f *fakeExecutor) Execute(_ context.Context, command string, _ domain.ExecuteOptions) domain.ExecutionResult {
	f.mu.Lock()
	f.commands = append(f.commands, command)
	f.mu.Unlock()
	for needle := range f.fail {
		if strings.Contains(command, needle) {
			return domain.ExecutionResult{Err: errors.New("command failed")}
		}
	}
	var stdout string
	for needle, out := range f.outputs {
		if strings.Contains(command, needle) {
			stdout = out
		}
	}
	return domain.ExecutionResult{Success: true, Stdout: stdout}
}

func (f *fakeExecutor) ExecuteSequence(ctx context.Context, commands []string, opts domain.ExecuteOptions) []domain.ExecutionResult {
	var results []domain.ExecutionResult
	for _, command := range commands {
		result := f.Execute(ctx, command, opts)
		results = append(results, result)
		if !result.Success {
			break
		}
	}
	return results
}

func (f *fakeExecutor) WorkingDir() string {
	if f.workDir == "" {
		return "/tmp"
	}
	return f.workDir
}

func (f *fakeExecutor) History() []domain.HistoryEntry { return nil }

func (f *fakeExecutor) executed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.commands))
	copy(out, f.commands)
	return out
}

type fakeFactory struct{ exec *fakeExecutor }

func (f *fakeFactory) NewExecutor() ports.CommandExecutor { return f.exec }

type memSession struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemSession() *memSession { return &memSession{values: map[string]string{}} }

func (m *memSession) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *memSession) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func newTestEngine(t *testing.T, exec *fakeExecutor) (*Engine, *memSession) {
	t.Helper()
	session := newMemSession()
	return NewEngine(&fakeFactory{exec: exec}, session, nil), session
}

func TestRunRollsBackReversibleStepsOnCriticalFailure(t *testing.T) {
	exec := &fakeExecutor{fail: map[string]bool{"deploy": true}}
	engine, _ := newTestEngine(t, exec)

	require.NoError(t, engine.Define(domain.WorkflowDefinition{
		ID: "release",
		Steps: []domain.WorkflowStep{
			{ID: "workdir", Command: "mkdir build"},
			{ID: "marker", Command: "touch build/ok"},
			{ID: "ship", Command: "deploy build", Critical: true},
		},
	}))

	run, err := engine.Run(context.Background(), "release", nil)
	require.NoError(t, err)

	assert.Equal(t, domain.WorkflowFailed, run.Status)
	require.Equal(t, []string{"rm build/ok", "rmdir build"}, run.RollbackRan,
		"inverses run in reverse order of the forward steps")

	commands := exec.executed()
	require.Len(t, commands, 5)
	assert.Equal(t, []string{"rm build/ok", "rmdir build"}, commands[3:])

	var rollbackResults int
	for _, result := range run.Results {
		if result.Rollback {
			rollbackResults++
		}
	}
	assert.Equal(t, 2, rollbackResults)
}

func TestRunGitInitContributesRollback(t *testing.T) {
	exec := &fakeExecutor{fail: map[string]bool{"broken": true}}
	engine, _ := newTestEngine(t, exec)

	require.NoError(t, engine.Define(domain.WorkflowDefinition{
		ID: "init",
		Steps: []domain.WorkflowStep{
			{ID: "repo", Command: "git init myproj"},
			{ID: "boom", Command: "broken", Critical: true},
		},
	}))

	run, err := engine.Run(context.Background(), "init", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"rm -rf myproj/.git"}, run.RollbackRan)
}

func TestRunNonReversibleStepsContributeNoRollback(t *testing.T) {
	exec := &fakeExecutor{fail: map[string]bool{"fail": true}}
	engine, _ := newTestEngine(t, exec)

	require.NoError(t, engine.Define(domain.WorkflowDefinition{
		ID: "plain",
		Steps: []domain.WorkflowStep{
			{ID: "list", Command: "ls -la"},
			{ID: "boom", Command: "fail now", Critical: true},
		},
	}))

	run, err := engine.Run(context.Background(), "plain", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.WorkflowFailed, run.Status)
	assert.Empty(t, run.RollbackRan)
}

func TestRunSubstitutesVariablesAndParameters(t *testing.T) {
	exec := &fakeExecutor{}
	engine, session := newTestEngine(t, exec)

	require.NoError(t, engine.Define(domain.WorkflowDefinition{
		ID:         "scaffold",
		Parameters: []string{"name"},
		Variables:  map[string]interface{}{"lang": "go"},
		Steps: []domain.WorkflowStep{
			{ID: "dir", Command: "mkdir {{name|app}}"},
			{ID: "tag", Command: "echo {{lang}} {{missing|fallback}}"},
		},
	}))

	run, err := engine.Run(context.Background(), "scaffold", map[string]interface{}{"name": "svc"})
	require.NoError(t, err)
	assert.Equal(t, domain.WorkflowCompleted, run.Status)
	assert.Equal(t, []string{"mkdir svc", "echo go fallback"}, exec.executed())

	stored, ok := session.Get("workflow.scaffold.name")
	require.True(t, ok)
	assert.Equal(t, "svc", stored)
}

func TestRunOutputVariableFeedsLaterSteps(t *testing.T) {
	exec := &fakeExecutor{outputs: map[string]string{"git describe": "v1.2.3\n"}}
	engine, _ := newTestEngine(t, exec)

	require.NoError(t, engine.Define(domain.WorkflowDefinition{
		ID: "tagged-build",
		Steps: []domain.WorkflowStep{
			{ID: "version", Command: "git describe", OutputVariable: "version"},
			{ID: "announce", Command: "echo building {{version}}"},
		},
	}))

	_, err := engine.Run(context.Background(), "tagged-build", nil)
	require.NoError(t, err)
	assert.Equal(t, "echo building v1.2.3", exec.executed()[1])
}

func TestPredicateGating(t *testing.T) {
	exec := &fakeExecutor{fail: map[string]bool{"flaky": true}}
	engine, _ := newTestEngine(t, exec)

	require.NoError(t, engine.Define(domain.WorkflowDefinition{
		ID: "gated",
		Steps: []domain.WorkflowStep{
			{ID: "first", Command: "flaky probe"},
			{ID: "dependent", Command: "echo after", Condition: "previous_success"},
			{ID: "ghost-tool", Command: "echo tooled", Condition: "tool:definitely-not-a-real-binary-7f3a"},
			{ID: "always", Command: "echo always", Condition: "always"},
		},
	}))

	run, err := engine.Run(context.Background(), "gated", nil)
	require.NoError(t, err)

	assert.Equal(t, domain.WorkflowCompleted, run.Status)
	assert.Equal(t, []string{"flaky probe", "echo always"}, exec.executed())
	// skipped steps record nothing
	require.Len(t, run.Results, 2)
	assert.Equal(t, "first", run.Results[0].StepID)
	assert.Equal(t, "always", run.Results[1].StepID)
}

func TestConditionStepBranches(t *testing.T) {
	exec := &fakeExecutor{}
	engine, _ := newTestEngine(t, exec)

	then := &domain.WorkflowStep{ID: "then", Command: "echo production"}
	otherwise := &domain.WorkflowStep{ID: "else", Command: "echo development"}
	require.NoError(t, engine.Define(domain.WorkflowDefinition{
		ID:        "branchy",
		Variables: map[string]interface{}{"env": "prod"},
		Steps: []domain.WorkflowStep{
			{ID: "pick", Type: domain.StepCondition, If: `env == "prod"`, Then: then, Else: otherwise},
		},
	}))

	run, err := engine.Run(context.Background(), "branchy", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo production"}, exec.executed())
	require.Len(t, run.Results, 1)
	assert.Equal(t, "pick", run.Results[0].StepID)
}

func TestLoopStepIteratesAndStopsOnFailure(t *testing.T) {
	exec := &fakeExecutor{fail: map[string]bool{"beta": true}}
	engine, _ := newTestEngine(t, exec)

	require.NoError(t, engine.Define(domain.WorkflowDefinition{
		ID:        "each",
		Variables: map[string]interface{}{"targets": []interface{}{"alpha", "beta", "gamma"}},
		Steps: []domain.WorkflowStep{
			{
				ID:    "visit",
				Type:  domain.StepLoop,
				Items: "targets",
				As:    "target",
				Body:  &domain.WorkflowStep{ID: "touch-one", Command: "build {{target}}"},
			},
		},
	}))

	run, err := engine.Run(context.Background(), "each", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"build alpha", "build beta"}, exec.executed(), "loop stops at first failure")
	require.Len(t, run.Results, 1)
	assert.False(t, run.Results[0].Success)
}

func TestLoopContinueOnError(t *testing.T) {
	exec := &fakeExecutor{fail: map[string]bool{"beta": true}}
	engine, _ := newTestEngine(t, exec)

	require.NoError(t, engine.Define(domain.WorkflowDefinition{
		ID:        "each-lenient",
		Variables: map[string]interface{}{"targets": []interface{}{"alpha", "beta", "gamma"}},
		Steps: []domain.WorkflowStep{
			{
				ID:              "visit",
				Type:            domain.StepLoop,
				Items:           "targets",
				As:              "target",
				ContinueOnError: true,
				Body:            &domain.WorkflowStep{ID: "touch-one", Command: "build {{target}}"},
			},
		},
	}))

	_, err := engine.Run(context.Background(), "each-lenient", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"build alpha", "build beta", "build gamma"}, exec.executed())
}

func TestParallelStepJoinsAllSettled(t *testing.T) {
	exec := &fakeExecutor{fail: map[string]bool{"lint": true}}
	engine, _ := newTestEngine(t, exec)

	require.NoError(t, engine.Define(domain.WorkflowDefinition{
		ID: "checks",
		Steps: []domain.WorkflowStep{
			{
				ID:   "fanout",
				Type: domain.StepParallel,
				Steps: []domain.WorkflowStep{
					{ID: "fmt", Command: "fmt ./..."},
					{ID: "lint", Command: "lint ./..."},
					{ID: "unit", Command: "unit ./..."},
				},
			},
		},
	}))

	run, err := engine.Run(context.Background(), "checks", nil)
	require.NoError(t, err)

	assert.Len(t, exec.executed(), 3, "every member runs regardless of sibling failure")
	require.Len(t, run.Results, 1)
	assert.False(t, run.Results[0].Success, "group succeeds only if every member succeeds")
}

func TestParallelOutputBindingsDoNotRaceWithReaders(t *testing.T) {
	// Half the group binds an output variable while the other half
	// substitutes it. Exercised under -race this catches unsynchronized
	// access to the shared run context.
	exec := &fakeExecutor{outputs: map[string]string{"emit": "bound"}}
	engine, _ := newTestEngine(t, exec)

	var members []domain.WorkflowStep
	for i := 0; i < 8; i++ {
		members = append(members,
			domain.WorkflowStep{ID: "writer", Command: "emit value", OutputVariable: "shared"},
			domain.WorkflowStep{ID: "reader", Command: "use {{shared|none}}"},
		)
	}
	require.NoError(t, engine.Define(domain.WorkflowDefinition{
		ID: "contended",
		Steps: []domain.WorkflowStep{
			{ID: "fanout", Type: domain.StepParallel, Steps: members},
		},
	}))

	run, err := engine.Run(context.Background(), "contended", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.WorkflowCompleted, run.Status)

	commands := exec.executed()
	require.Len(t, commands, 16)
	for _, command := range commands {
		if strings.HasPrefix(command, "use ") {
			assert.Contains(t, []string{"use none", "use bound"}, command,
				"readers see either the unset fallback or a completed binding, never a torn value")
		}
	}
}

func TestRunUnknownWorkflow(t *testing.T) {
	engine, _ := newTestEngine(t, &fakeExecutor{})
	_, err := engine.Run(context.Background(), "nope", nil)
	assert.Error(t, err)
}
