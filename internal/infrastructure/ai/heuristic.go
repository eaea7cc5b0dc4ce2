// Package ai implements the collaborator boundary. Only the offline
// heuristic assistant ships; it keeps the escalation path exercised without
// network access or credentials.
package ai

import (
	"context"
	"strings"

	"github.com/doeshing/aish/internal/domain"
	"github.com/doeshing/aish/internal/ports"
)

// HeuristicAssistant maps natural-language queries to ranked command
// sequences with keyword rules.
type HeuristicAssistant struct{}

// NewHeuristicAssistant builds the offline assistant.
func NewHeuristicAssistant() *HeuristicAssistant {
	return &HeuristicAssistant{}
}

// Name implements ports.Assistant.
func (a *HeuristicAssistant) Name() string {
	return "heuristic"
}

// Suggest implements ports.Assistant. Every returned command re-enters the
// validator before execution; this boundary is trusted for nothing.
func (a *HeuristicAssistant) Suggest(_ context.Context, query string, snapshot domain.ContextSnapshot) (domain.AssistantReply, error) {
	lowered := strings.ToLower(query)

	var sequences []domain.CommandSequence
	switch {
	case strings.Contains(lowered, "docker"):
		sequences = []domain.CommandSequence{
			{Rank: 1, Commands: []string{"docker ps"}, Description: "List running containers"},
			{Rank: 2, Commands: []string{"docker ps -a"}, Description: "List all containers, stopped included"},
		}
	case strings.Contains(lowered, "kubernetes") || strings.Contains(lowered, "pod"):
		sequences = []domain.CommandSequence{
			{Rank: 1, Commands: []string{"kubectl get pods"}, Description: "List pods in the current namespace"},
		}
	case strings.Contains(lowered, "branch"):
		sequences = []domain.CommandSequence{
			{Rank: 1, Commands: []string{"git branch --show-current"}, Description: "Show the current branch"},
		}
	case strings.Contains(lowered, "commit") || strings.Contains(lowered, "git"):
		sequences = []domain.CommandSequence{
			{Rank: 1, Commands: []string{"git status"}, Description: "Show repository state"},
			{Rank: 2, Commands: []string{"git log --oneline -10"}, Description: "Show recent commits"},
		}
	case strings.Contains(lowered, "disk") || strings.Contains(lowered, "space"):
		sequences = []domain.CommandSequence{
			{Rank: 1, Commands: []string{"df -h"}, Description: "Show filesystem usage"},
			{Rank: 2, Commands: []string{"du -sh ."}, Description: "Show size of the current directory"},
		}
	case strings.Contains(lowered, "list") && strings.Contains(lowered, "file"):
		sequences = []domain.CommandSequence{
			{Rank: 1, Commands: []string{"ls -la"}, Description: "List files with details"},
		}
	case strings.Contains(lowered, "readme"):
		sequences = []domain.CommandSequence{
			{
				Rank:        1,
				Commands:    []string{"touch README.md"},
				Description: "Create a README skeleton",
				FileContent: "# " + strings.TrimSpace(snapshot.WorkingDir) + "\n",
			},
		}
	default:
		sequences = []domain.CommandSequence{
			{Rank: 1, Commands: []string{"echo 'no suggestion available offline'"}, Description: "No matching rule"},
		}
	}

	return domain.AssistantReply{
		Sequences:   sequences,
		Explanation: "Suggested offline from keyword rules; no network call was made.",
	}, nil
}

var _ ports.Assistant = (*HeuristicAssistant)(nil)
