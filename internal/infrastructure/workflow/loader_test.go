package workflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/aish/internal/domain"
)

const goodWorkflowYAML = `
id: project-init
name: Initialize a project
parameters:
  - name
steps:
  - id: workdir
    command: mkdir {{name}}
  - id: repo
    command: git init {{name}}
    condition: tool:git
    critical: true
`

func TestParseValidDefinition(t *testing.T) {
	def, err := Parse([]byte(goodWorkflowYAML))
	require.NoError(t, err)

	assert.Equal(t, "project-init", def.ID)
	assert.Equal(t, []string{"name"}, def.Parameters)
	require.Len(t, def.Steps, 2)
	assert.Equal(t, "tool:git", def.Steps[1].Condition)
	assert.True(t, def.Steps[1].Critical)
}

func TestParseRejectsMissingID(t *testing.T) {
	_, err := Parse([]byte("name: anonymous\nsteps:\n  - id: a\n    command: ls\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing an id")
}

func TestParseRejectsStepWithoutCommand(t *testing.T) {
	_, err := Parse([]byte("id: bad\nsteps:\n  - id: a\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing a command")
}

func TestValidateDefinitionRejectsStepWithoutID(t *testing.T) {
	err := ValidateDefinition(domain.WorkflowDefinition{
		ID:    "bad",
		Steps: []domain.WorkflowStep{{Command: "ls"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing an id")
}

func TestValidateDefinitionRecursesIntoNestedSteps(t *testing.T) {
	err := ValidateDefinition(domain.WorkflowDefinition{
		ID: "nested",
		Steps: []domain.WorkflowStep{
			{
				ID:   "branch",
				Type: domain.StepCondition,
				If:   "env == prod",
				Then: &domain.WorkflowStep{ID: "inner"},
			},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing a command")
}

func TestValidateDefinitionRejectsEmptyParallel(t *testing.T) {
	err := ValidateDefinition(domain.WorkflowDefinition{
		ID:    "empty-group",
		Steps: []domain.WorkflowStep{{ID: "group", Type: domain.StepParallel}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sub-steps")
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "init.yaml"), []byte(goodWorkflowYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a workflow"), 0o644))

	defs, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "project-init", defs[0].ID)
}

func TestLoadDirMissingDirectory(t *testing.T) {
	defs, err := LoadDir(filepath.Join(t.TempDir(), "absent"))
	assert.NoError(t, err)
	assert.Empty(t, defs)
}

func TestLoadDirRejectsInvalidDefinition(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("id: bad\nsteps: []\n"), 0o644))

	_, err := LoadDir(dir)
	assert.Error(t, err)
}
