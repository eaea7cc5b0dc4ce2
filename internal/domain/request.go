package domain

import "context"

// Request captures user intent originating from the CLI.
type Request struct {
	Context     context.Context
	Input       string
	AutoExecute bool
	PreviewOnly bool
	Debug       bool
}

// Response is the canonical response propagated back to the CLI.
type Response struct {
	Plan        PlanKind
	Commands    []string
	Description string
	Explanation string
	FromCache   bool
	Validation  *ValidationResult
	Results     []ExecutionResult
	Executed    bool
}

// CommandSequence is one ranked suggestion returned across the AI
// collaborator boundary.
type CommandSequence struct {
	Rank        int      `json:"rank"`
	Commands    []string `json:"commands"`
	Description string   `json:"description"`
	FileContent string   `json:"file_content,omitempty"`
}

// AssistantReply is the structured result expected from the AI collaborator.
// The core never validates its content quality, only the safety of every
// returned command.
type AssistantReply struct {
	Sequences   []CommandSequence `json:"command_sequences"`
	Explanation string            `json:"explanation"`
}

// RequestService exposes the use-case boundary for handling a request.
type RequestService interface {
	Run(Request) (Response, error)
}
