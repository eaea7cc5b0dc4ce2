package ai

import (
	"context"
	"testing"

	"github.com/doeshing/aish/internal/domain"
)

func TestSuggestRanksDockerSequences(t *testing.T) {
	assistant := NewHeuristicAssistant()

	reply, err := assistant.Suggest(context.Background(), "show me docker containers", domain.ContextSnapshot{})
	if err != nil {
		t.Fatalf("Suggest error: %v", err)
	}
	if len(reply.Sequences) < 2 {
		t.Fatalf("expected ranked alternatives, got %d", len(reply.Sequences))
	}
	if reply.Sequences[0].Rank != 1 || reply.Sequences[0].Commands[0] != "docker ps" {
		t.Fatalf("unexpected primary sequence %+v", reply.Sequences[0])
	}
	if reply.Explanation == "" {
		t.Fatal("expected an explanation")
	}
}

func TestSuggestFallsBackOnUnknownQuery(t *testing.T) {
	assistant := NewHeuristicAssistant()

	reply, err := assistant.Suggest(context.Background(), "xyzzy", domain.ContextSnapshot{})
	if err != nil {
		t.Fatalf("Suggest error: %v", err)
	}
	if len(reply.Sequences) != 1 {
		t.Fatalf("expected a single fallback sequence, got %d", len(reply.Sequences))
	}
}
