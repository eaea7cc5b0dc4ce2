package domain

// StepType enumerates the tagged step variants of a workflow definition.
type StepType string

const (
	StepCommand   StepType = "command"
	StepCondition StepType = "condition"
	StepLoop      StepType = "loop"
	StepParallel  StepType = "parallel"
)

// WorkflowStep is one step of a workflow definition. Fields beyond ID,
// Type and Condition are type-specific.
type WorkflowStep struct {
	ID   string   `yaml:"id"`
	Type StepType `yaml:"type"`
	// Condition is a predicate evaluated before the step runs:
	// "" or "always", "tool:<name>", "file:<path>", "previous_success".
	// A false predicate skips the step without recording a result.
	Condition string `yaml:"condition,omitempty"`
	// Critical marks a step whose failure aborts the run and triggers
	// rollback of previously completed reversible steps.
	Critical bool `yaml:"critical,omitempty"`

	// command step
	Command        string `yaml:"command,omitempty"`
	FileContent    string `yaml:"file_content,omitempty"`
	OutputVariable string `yaml:"output_variable,omitempty"`

	// condition step
	If   string        `yaml:"if,omitempty"`
	Then *WorkflowStep `yaml:"then,omitempty"`
	Else *WorkflowStep `yaml:"else,omitempty"`

	// loop step
	Items           string        `yaml:"items,omitempty"`
	As              string        `yaml:"as,omitempty"`
	Body            *WorkflowStep `yaml:"body,omitempty"`
	ContinueOnError bool          `yaml:"continue_on_error,omitempty"`

	// parallel step
	Steps []WorkflowStep `yaml:"steps,omitempty"`
}

// WorkflowDefinition is an immutable, named, ordered sequence of steps.
// Created from built-in definitions or user-authored YAML on disk.
type WorkflowDefinition struct {
	ID         string                 `yaml:"id"`
	Name       string                 `yaml:"name"`
	Steps      []WorkflowStep         `yaml:"steps"`
	Parameters []string               `yaml:"parameters"`
	Variables  map[string]interface{} `yaml:"variables"`
}

// WorkflowStatus is the terminal (or in-flight) state of one run.
type WorkflowStatus string

const (
	WorkflowRunning   WorkflowStatus = "running"
	WorkflowCompleted WorkflowStatus = "completed"
	WorkflowFailed    WorkflowStatus = "failed"
)

// StepResult records the outcome of one evaluated step.
type StepResult struct {
	StepID   string
	Success  bool
	Output   string
	Error    string
	Rollback bool
}

// WorkflowExecution is the per-invocation run state. Discarded after
// completion; results are persisted to history by the caller, not by the
// engine itself.
type WorkflowExecution struct {
	ID          string
	Definition  WorkflowDefinition
	Context     map[string]interface{}
	CurrentStep int
	Status      WorkflowStatus
	Results     []StepResult
	// RollbackStack holds inverse commands for steps whose forward action
	// is known to be reversible. Executed in reverse order on failure of a
	// critical step.
	RollbackStack []string
	// RollbackRan lists inverse commands actually executed, in execution
	// order, when the run failed.
	RollbackRan []string
}
