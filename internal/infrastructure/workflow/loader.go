package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/aish/internal/domain"
)

// LoadDir parses every *.yaml/*.yml file in dir into a workflow definition.
// A missing directory is not an error; an invalid definition is, at load
// time rather than at run time.
func LoadDir(dir string) ([]domain.WorkflowDefinition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read workflow directory %s: %w", dir, err)
	}

	var defs []domain.WorkflowDefinition
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read workflow %s: %w", entry.Name(), err)
		}
		def, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("workflow %s: %w", entry.Name(), err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Parse decodes and validates a single YAML workflow definition.
func Parse(data []byte) (domain.WorkflowDefinition, error) {
	var def domain.WorkflowDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return domain.WorkflowDefinition{}, fmt.Errorf("parse definition: %w", err)
	}
	if err := ValidateDefinition(def); err != nil {
		return domain.WorkflowDefinition{}, err
	}
	return def, nil
}

// ValidateDefinition enforces structural invariants of a definition. These
// are hard failures: a definition that cannot run must be rejected before it
// is ever offered to a user.
func ValidateDefinition(def domain.WorkflowDefinition) error {
	if strings.TrimSpace(def.ID) == "" {
		return fmt.Errorf("workflow definition is missing an id")
	}
	if len(def.Steps) == 0 {
		return fmt.Errorf("workflow %q has no steps", def.ID)
	}
	for i := range def.Steps {
		if err := validateStep(&def.Steps[i]); err != nil {
			return fmt.Errorf("workflow %q: %w", def.ID, err)
		}
	}
	return nil
}

func validateStep(step *domain.WorkflowStep) error {
	if strings.TrimSpace(step.ID) == "" {
		return fmt.Errorf("step is missing an id")
	}
	switch stepType(step) {
	case domain.StepCommand:
		if strings.TrimSpace(step.Command) == "" {
			return fmt.Errorf("step %q is missing a command", step.ID)
		}
	case domain.StepCondition:
		if strings.TrimSpace(step.If) == "" {
			return fmt.Errorf("condition step %q is missing an if expression", step.ID)
		}
		if step.Then == nil && step.Else == nil {
			return fmt.Errorf("condition step %q has neither then nor else", step.ID)
		}
		for _, branch := range []*domain.WorkflowStep{step.Then, step.Else} {
			if branch == nil {
				continue
			}
			if err := validateStep(branch); err != nil {
				return err
			}
		}
	case domain.StepLoop:
		if strings.TrimSpace(step.Items) == "" {
			return fmt.Errorf("loop step %q is missing items", step.ID)
		}
		if step.Body == nil {
			return fmt.Errorf("loop step %q is missing a body", step.ID)
		}
		return validateStep(step.Body)
	case domain.StepParallel:
		if len(step.Steps) == 0 {
			return fmt.Errorf("parallel step %q has no sub-steps", step.ID)
		}
		for i := range step.Steps {
			if err := validateStep(&step.Steps[i]); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("step %q has unknown type %q", step.ID, step.Type)
	}
	return nil
}

// stepType defaults untyped steps to command, matching the compact on-disk
// format where most steps only carry id and command.
func stepType(step *domain.WorkflowStep) domain.StepType {
	if step.Type == "" {
		return domain.StepCommand
	}
	return step.Type
}
