// Package contextcollector gathers the environmental snapshot attached to
// requests: working directory, shell, detected tools and recent commands.
package contextcollector

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/doeshing/aish/internal/domain"
	"github.com/doeshing/aish/internal/ports"
)

// recentHistoryLimit bounds how many commands cross the collaborator
// boundary.
const recentHistoryLimit = 10

// BasicCollector implements ports.ContextCollector with tool detection and
// injected suppliers for the executor-owned mutable state.
type BasicCollector struct {
	toolsToCheck []string
	workDir      func() string
	history      func() []domain.HistoryEntry
}

// NewBasicCollector builds a collector. workDir and history supply the
// executor's current directory and ring; either may be nil.
func NewBasicCollector(workDir func() string, history func() []domain.HistoryEntry) *BasicCollector {
	return &BasicCollector{
		toolsToCheck: []string{"docker", "kubectl", "git", "npm", "yarn", "pnpm", "python", "python3", "go", "node", "cargo", "make"},
		workDir:      workDir,
		history:      history,
	}
}

// Collect gathers context data.
func (c *BasicCollector) Collect(_ context.Context, _ domain.Config) (domain.ContextSnapshot, error) {
	wd := ""
	if c.workDir != nil {
		wd = c.workDir()
	}
	if wd == "" {
		wd, _ = os.Getwd()
	}

	return domain.ContextSnapshot{
		WorkingDir:     wd,
		Shell:          detectShell(),
		OS:             runtime.GOOS,
		User:           os.Getenv("USER"),
		RecentHistory:  c.recentCommands(),
		AvailableTools: c.detectTools(),
	}, nil
}

func (c *BasicCollector) recentCommands() []string {
	if c.history == nil {
		return nil
	}
	entries := c.history()
	if len(entries) > recentHistoryLimit {
		entries = entries[len(entries)-recentHistoryLimit:]
	}
	var commands []string
	for _, entry := range entries {
		commands = append(commands, entry.Command)
	}
	return commands
}

func (c *BasicCollector) detectTools() []string {
	var available []string
	for _, tool := range c.toolsToCheck {
		if _, err := exec.LookPath(tool); err == nil {
			available = append(available, tool)
		}
	}
	sort.Strings(available)
	return available
}

func detectShell() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		return filepath.Base(shell)
	}
	return "unknown"
}

var _ ports.ContextCollector = (*BasicCollector)(nil)
