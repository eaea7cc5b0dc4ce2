package services

import (
	"context"
	"testing"

	"github.com/doeshing/aish/internal/domain"
	"github.com/doeshing/aish/internal/ports"
)

type stubConfig struct{ cfg domain.Config }

func (s *stubConfig) Load(context.Context) (domain.Config, error) { return s.cfg, nil }

type stubCollector struct{ snapshot domain.ContextSnapshot }

func (s *stubCollector) Collect(context.Context, domain.Config) (domain.ContextSnapshot, error) {
	return s.snapshot, nil
}

type stubRouter struct {
	plan      domain.ExecutionPlan
	committed []domain.CacheEntry
}

func (s *stubRouter) Route(context.Context, string, domain.ContextSnapshot) (domain.ExecutionPlan, error) {
	return s.plan, nil
}

func (s *stubRouter) Commit(_ domain.ExecutionPlan, entry domain.CacheEntry) {
	s.committed = append(s.committed, entry)
}

type stubValidator struct{ blockCommand string }

func (s *stubValidator) Validate(raw string, _ domain.ValidateOptions) domain.ValidationResult {
	if s.blockCommand != "" && raw == s.blockCommand {
		return domain.ValidationResult{Blocked: true, RiskLevel: domain.RiskCritical, Sanitized: raw, Errors: []string{"blocked"}}
	}
	return domain.ValidationResult{IsValid: true, RiskLevel: domain.RiskLow, Sanitized: raw}
}

type stubExecutor struct {
	sequences [][]string
}

func (s *stubExecutor) Execute(_ context.Context, command string, _ domain.ExecuteOptions) domain.ExecutionResult {
	s.sequences = append(s.sequences, []string{command})
	return domain.ExecutionResult{Success: true}
}

func (s *stubExecutor) ExecuteSequence(_ context.Context, commands []string, _ domain.ExecuteOptions) []domain.ExecutionResult {
	s.sequences = append(s.sequences, commands)
	results := make([]domain.ExecutionResult, len(commands))
	for i := range results {
		results[i] = domain.ExecutionResult{Success: true}
	}
	return results
}

func (s *stubExecutor) WorkingDir() string             { return "/tmp" }
func (s *stubExecutor) History() []domain.HistoryEntry { return nil }

type stubAssistant struct{ reply domain.AssistantReply }

func (s *stubAssistant) Name() string { return "stub" }

func (s *stubAssistant) Suggest(context.Context, string, domain.ContextSnapshot) (domain.AssistantReply, error) {
	return s.reply, nil
}

type stubHistory struct{ saved []domain.HistoryRecord }

func (s *stubHistory) Save(record domain.HistoryRecord) error {
	s.saved = append(s.saved, record)
	return nil
}
func (s *stubHistory) Records(int, string) ([]domain.HistoryRecord, error) { return nil, nil }
func (s *stubHistory) Clear() error                                       { return nil }
func (s *stubHistory) ExportJSON(string) error                            { return nil }
func (s *stubHistory) PruneOlderThan(int) error                           { return nil }
func (s *stubHistory) Path() string                                       { return "" }

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{})        {}
func (nopLogger) Info(string, map[string]interface{})         {}
func (nopLogger) Warn(string, map[string]interface{})         {}
func (nopLogger) Error(string, error, map[string]interface{}) {}

func newService(router *stubRouter, executor *stubExecutor, assistant *stubAssistant, history *stubHistory, validator *stubValidator) *RequestService {
	if assistant == nil {
		assistant = &stubAssistant{}
	}
	if validator == nil {
		validator = &stubValidator{}
	}
	if history == nil {
		history = &stubHistory{}
	}
	return &RequestService{
		ConfigProvider:   &stubConfig{},
		ContextCollector: &stubCollector{},
		Router:           router,
		Validator:        validator,
		Executor:         executor,
		Assistant:        assistant,
		History:          history,
		Logger:           nopLogger{},
	}
}

func TestRunDirectPlanExecutesAndCommits(t *testing.T) {
	router := &stubRouter{plan: domain.ExecutionPlan{
		Kind: domain.PlanDirect, Handler: "git", Command: "git status", CacheKey: "abc",
	}}
	executor := &stubExecutor{}
	history := &stubHistory{}
	svc := newService(router, executor, nil, history, nil)

	resp, err := svc.Run(domain.Request{Input: "git status", AutoExecute: true})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if !resp.Executed {
		t.Fatal("expected execution")
	}
	if len(executor.sequences) != 1 || executor.sequences[0][0] != "git status" {
		t.Fatalf("unexpected executed sequences %v", executor.sequences)
	}
	if len(router.committed) != 1 {
		t.Fatalf("expected one cache commit, got %d", len(router.committed))
	}
	if len(history.saved) != 1 || history.saved[0].Source != domain.SourceDirect {
		t.Fatalf("unexpected history %+v", history.saved)
	}
}

func TestRunPreviewOnlySkipsExecution(t *testing.T) {
	router := &stubRouter{plan: domain.ExecutionPlan{Kind: domain.PlanDirect, Command: "git status"}}
	executor := &stubExecutor{}
	svc := newService(router, executor, nil, nil, nil)

	resp, err := svc.Run(domain.Request{Input: "git status", AutoExecute: true, PreviewOnly: true})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if resp.Executed {
		t.Fatal("preview must not execute")
	}
	if len(executor.sequences) != 0 {
		t.Fatalf("expected no execution, got %v", executor.sequences)
	}
	if len(router.committed) != 0 {
		t.Fatal("preview must not populate the cache")
	}
}

func TestRunRejectedPlanReturnsValidation(t *testing.T) {
	validation := &domain.ValidationResult{Blocked: true, RiskLevel: domain.RiskCritical, Sanitized: "rm -rf /"}
	router := &stubRouter{plan: domain.ExecutionPlan{Kind: domain.PlanRejected, Validation: validation}}
	executor := &stubExecutor{}
	history := &stubHistory{}
	svc := newService(router, executor, nil, history, nil)

	resp, err := svc.Run(domain.Request{Input: "rm -rf /", AutoExecute: true})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if resp.Executed || len(executor.sequences) != 0 {
		t.Fatal("rejected input must never execute")
	}
	if resp.Validation == nil || !resp.Validation.Blocked {
		t.Fatal("expected validation details in the response")
	}
	if len(history.saved) != 1 || history.saved[0].Executed {
		t.Fatalf("expected one non-executed history record, got %+v", history.saved)
	}
}

func TestRunCachedPlanSkipsCommit(t *testing.T) {
	entry := &domain.CacheEntry{Commands: []string{"git status"}, Description: "cached", Source: domain.SourceDirect}
	router := &stubRouter{plan: domain.ExecutionPlan{Kind: domain.PlanCached, Cached: entry}}
	executor := &stubExecutor{}
	svc := newService(router, executor, nil, nil, nil)

	resp, err := svc.Run(domain.Request{Input: "git status", AutoExecute: true})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !resp.FromCache {
		t.Fatal("expected a cache-tagged response")
	}
	if len(router.committed) != 0 {
		t.Fatal("cache hits must not be re-committed")
	}
}

func TestRunEscalatedPicksBestRankAndValidates(t *testing.T) {
	router := &stubRouter{plan: domain.ExecutionPlan{Kind: domain.PlanExternal, CacheKey: "xyz"}}
	executor := &stubExecutor{}
	assistant := &stubAssistant{reply: domain.AssistantReply{
		Sequences: []domain.CommandSequence{
			{Rank: 2, Commands: []string{"docker ps -a"}, Description: "alternate"},
			{Rank: 1, Commands: []string{"docker ps"}, Description: "primary"},
		},
		Explanation: "keyword match",
	}}
	svc := newService(router, executor, assistant, nil, nil)

	resp, err := svc.Run(domain.Request{Input: "show containers", AutoExecute: true})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if resp.Description != "primary" {
		t.Fatalf("expected rank 1 sequence, got %q", resp.Description)
	}
	if len(executor.sequences) != 1 || executor.sequences[0][0] != "docker ps" {
		t.Fatalf("unexpected execution %v", executor.sequences)
	}
	if len(router.committed) != 1 {
		t.Fatal("successful escalated execution should populate the cache")
	}
}

func TestRunEscalatedWithoutAutoExecuteOnlyPreviews(t *testing.T) {
	router := &stubRouter{plan: domain.ExecutionPlan{Kind: domain.PlanExternal}}
	executor := &stubExecutor{}
	assistant := &stubAssistant{reply: domain.AssistantReply{
		Sequences: []domain.CommandSequence{{Rank: 1, Commands: []string{"docker ps"}}},
	}}
	svc := newService(router, executor, assistant, nil, nil)
	// auto_execute_direct must not cover assistant-derived commands
	svc.ConfigProvider = &stubConfig{cfg: domain.Config{
		Preferences: domain.Preferences{AutoExecuteDirect: true},
	}}

	resp, err := svc.Run(domain.Request{Input: "show containers"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if resp.Executed || len(executor.sequences) != 0 {
		t.Fatal("assistant suggestions must not auto-execute from preferences")
	}
	if len(resp.Commands) != 1 {
		t.Fatalf("expected the suggestion to be surfaced, got %+v", resp.Commands)
	}
}

func TestRunEscalatedBlocksUnsafeSuggestion(t *testing.T) {
	router := &stubRouter{plan: domain.ExecutionPlan{Kind: domain.PlanExternal}}
	executor := &stubExecutor{}
	assistant := &stubAssistant{reply: domain.AssistantReply{
		Sequences: []domain.CommandSequence{{Rank: 1, Commands: []string{"rm -rf /"}}},
	}}
	history := &stubHistory{}
	svc := newService(router, executor, assistant, history, &stubValidator{blockCommand: "rm -rf /"})

	resp, err := svc.Run(domain.Request{Input: "clean everything", AutoExecute: true})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if resp.Executed || len(executor.sequences) != 0 {
		t.Fatal("blocked assistant command must never execute")
	}
	if resp.Validation == nil || !resp.Validation.Blocked {
		t.Fatal("expected validation details")
	}
}

func TestRunRequiresDependencies(t *testing.T) {
	svc := &RequestService{}
	if _, err := svc.Run(domain.Request{Input: "ls"}); err == nil {
		t.Fatal("expected a dependency error")
	}
}

var _ ports.Router = (*stubRouter)(nil)
var _ ports.CommandExecutor = (*stubExecutor)(nil)
