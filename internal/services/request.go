// Package services wires the use-case layer: one request in, one routed,
// validated, possibly executed response out.
package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/doeshing/aish/internal/domain"
	"github.com/doeshing/aish/internal/ports"
)

// RequestService orchestrates the request lifecycle end-to-end.
type RequestService struct {
	ConfigProvider   ports.ConfigProvider
	ContextCollector ports.ContextCollector
	Router           ports.Router
	Validator        ports.Validator
	Executor         ports.CommandExecutor
	Assistant        ports.Assistant
	History          ports.HistoryRepository
	Logger           ports.Logger
}

// Run processes a single request: route, validate, maybe execute, record.
func (s *RequestService) Run(req domain.Request) (domain.Response, error) {
	if s.ConfigProvider == nil || s.ContextCollector == nil || s.Router == nil ||
		s.Validator == nil || s.Executor == nil || s.Assistant == nil || s.Logger == nil {
		return domain.Response{}, errors.New("services.RequestService dependencies not satisfied")
	}

	ctx := req.Context
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		return domain.Response{}, fmt.Errorf("load config: %w", err)
	}

	snapshot, err := s.ContextCollector.Collect(ctx, cfg)
	if err != nil {
		return domain.Response{}, fmt.Errorf("collect context: %w", err)
	}

	plan, err := s.Router.Route(ctx, req.Input, snapshot)
	if err != nil {
		return domain.Response{}, fmt.Errorf("route request: %w", err)
	}

	s.Logger.Debug("request routed", map[string]interface{}{
		"plan":    string(plan.Kind),
		"pattern": plan.Pattern,
	})

	switch plan.Kind {
	case domain.PlanRejected:
		resp := domain.Response{Plan: plan.Kind, Validation: plan.Validation}
		s.recordRejection(req.Input, plan.Validation)
		return resp, nil
	case domain.PlanCached:
		return s.runResolved(ctx, cfg, req, plan, resolvedPlan{
			commands:    plan.Cached.Commands,
			description: plan.Cached.Description,
			source:      domain.SourceCache,
			fromCache:   true,
		})
	case domain.PlanDirect:
		return s.runResolved(ctx, cfg, req, plan, resolvedPlan{
			commands:    []string{plan.Command},
			description: fmt.Sprintf("Matched %s intent", plan.Handler),
			source:      domain.SourceDirect,
		})
	case domain.PlanExternal:
		return s.runEscalated(ctx, cfg, req, plan, snapshot)
	default:
		return domain.Response{}, fmt.Errorf("unknown plan kind %q", plan.Kind)
	}
}

// resolvedPlan carries a plan already bound to concrete commands.
type resolvedPlan struct {
	commands    []string
	description string
	explanation string
	fileContent string
	source      string
	fromCache   bool
}

func (s *RequestService) runResolved(ctx context.Context, cfg domain.Config, req domain.Request, plan domain.ExecutionPlan, resolved resolvedPlan) (domain.Response, error) {
	resp := domain.Response{
		Plan:        plan.Kind,
		Commands:    resolved.commands,
		Description: resolved.description,
		Explanation: resolved.explanation,
		FromCache:   resolved.fromCache,
		Validation:  plan.Validation,
	}

	if !s.shouldExecute(cfg, req, resolved.source) {
		return resp, nil
	}

	timeout := time.Duration(cfg.Execution.TimeoutSeconds) * time.Second
	results := s.Executor.ExecuteSequence(ctx, resolved.commands, domain.ExecuteOptions{
		Timeout: timeout,
		Strict:  cfg.Security.Strict,
	})
	resp.Results = results
	resp.Executed = true

	allOK := len(results) == len(resolved.commands)
	for _, result := range results {
		if !result.Success {
			allOK = false
		}
	}

	if allOK && resolved.fileContent != "" {
		if err := s.writeFileContent(resolved.commands[0], resolved.fileContent); err != nil {
			s.Logger.Warn("write suggested file content failed", map[string]interface{}{"error": err.Error()})
		}
	}

	if allOK && !resolved.fromCache {
		s.Router.Commit(plan, domain.CacheEntry{
			Commands:    resolved.commands,
			Description: resolved.description,
			Source:      resolved.source,
		})
	}

	s.recordResults(req.Input, resolved, plan, results)
	return resp, nil
}

func (s *RequestService) runEscalated(ctx context.Context, cfg domain.Config, req domain.Request, plan domain.ExecutionPlan, snapshot domain.ContextSnapshot) (domain.Response, error) {
	reply, err := s.Assistant.Suggest(ctx, req.Input, snapshot)
	if err != nil {
		return domain.Response{}, fmt.Errorf("assistant suggest: %w", err)
	}
	if len(reply.Sequences) == 0 {
		return domain.Response{Plan: plan.Kind, Explanation: reply.Explanation}, nil
	}

	sequences := append([]domain.CommandSequence(nil), reply.Sequences...)
	sort.SliceStable(sequences, func(i, j int) bool { return sequences[i].Rank < sequences[j].Rank })
	best := sequences[0]

	// The collaborator is trusted for nothing: every returned command is
	// screened before it can execute.
	for _, command := range best.Commands {
		screen := s.Validator.Validate(command, domain.ValidateOptions{
			Strict:      cfg.Security.Strict,
			AllowHidden: cfg.Security.AllowHidden,
		})
		if screen.Blocked || !screen.IsValid {
			resp := domain.Response{
				Plan:        plan.Kind,
				Commands:    best.Commands,
				Description: best.Description,
				Explanation: reply.Explanation,
				Validation:  &screen,
			}
			s.recordRejection(req.Input, &screen)
			return resp, nil
		}
	}

	return s.runResolved(ctx, cfg, req, plan, resolvedPlan{
		commands:    best.Commands,
		description: best.Description,
		explanation: reply.Explanation,
		fileContent: best.FileContent,
		source:      domain.SourceAssistant,
	})
}

// shouldExecute applies the preview/auto-execute policy. Assistant-derived
// commands never auto-execute from preferences alone.
func (s *RequestService) shouldExecute(cfg domain.Config, req domain.Request, source string) bool {
	if req.PreviewOnly {
		return false
	}
	if req.AutoExecute {
		return true
	}
	if source == domain.SourceAssistant {
		return false
	}
	return cfg.Preferences.AutoExecuteDirect
}

// writeFileContent fills the file named by the command's final argument,
// mirroring how assistant suggestions pair a creation command with content.
func (s *RequestService) writeFileContent(command, content string) error {
	fields := strings.Fields(command)
	if len(fields) < 2 {
		return fmt.Errorf("cannot determine target file from %q", command)
	}
	target := strings.Trim(fields[len(fields)-1], `"'`)
	if !filepath.IsAbs(target) {
		target = filepath.Join(s.Executor.WorkingDir(), target)
	}
	return os.WriteFile(target, []byte(content), 0o644)
}

func (s *RequestService) recordResults(prompt string, resolved resolvedPlan, plan domain.ExecutionPlan, results []domain.ExecutionResult) {
	if s.History == nil {
		return
	}
	risk := domain.RiskLow
	if plan.Validation != nil {
		risk = plan.Validation.RiskLevel
	}
	for i, result := range results {
		record := domain.HistoryRecord{
			Timestamp:       time.Now(),
			Prompt:          prompt,
			Command:         resolved.commands[i],
			Source:          resolved.source,
			Executed:        true,
			Success:         result.Success,
			ExitCode:        result.ExitCode,
			RiskLevel:       risk,
			ExecutionTimeMS: result.DurationMS,
		}
		if err := s.History.Save(record); err != nil {
			s.Logger.Warn("save history record failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (s *RequestService) recordRejection(prompt string, validation *domain.ValidationResult) {
	if s.History == nil {
		return
	}
	record := domain.HistoryRecord{
		Timestamp: time.Now(),
		Prompt:    prompt,
		Source:    domain.SourceDirect,
		Executed:  false,
		RiskLevel: domain.RiskLow,
	}
	if validation != nil {
		record.Command = validation.Sanitized
		record.RiskLevel = validation.RiskLevel
	}
	if err := s.History.Save(record); err != nil {
		s.Logger.Warn("save history record failed", map[string]interface{}{"error": err.Error()})
	}
}

var _ domain.RequestService = (*RequestService)(nil)
