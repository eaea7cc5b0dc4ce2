package security

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/aish/assets"
	"github.com/doeshing/aish/internal/domain"
	"github.com/doeshing/aish/internal/pkg/filesystem"
)

// DangerPattern is one row of the declarative danger table. The matchers are
// pure functions over this table, which makes the table itself a unit-test
// fixture.
type DangerPattern struct {
	Pattern    string `yaml:"pattern"`
	Level      string `yaml:"level"`
	Message    string `yaml:"message"`
	Suggestion string `yaml:"suggestion,omitempty"`
}

// PolicyDocument is the YAML schema root for ~/.aish/policy.yaml.
type PolicyDocument struct {
	Rules struct {
		DangerPatterns    []DangerPattern `yaml:"danger_patterns"`
		TraversalPatterns []string        `yaml:"traversal_patterns"`
		AllowedCommands   []string        `yaml:"allowed_commands"`
		DeniedPaths       []string        `yaml:"denied_paths"`
		MaxCommandLength  int             `yaml:"max_command_length"`
	} `yaml:"rules"`
}

func loadPolicy(path string) (PolicyDocument, error) {
	var doc PolicyDocument
	path = expandPolicyPath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		// fall back to embedded defaults
		data = assets.DefaultPolicyYAML
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return PolicyDocument{}, err
	}
	hydratePolicy(&doc)
	return doc, nil
}

func hydratePolicy(doc *PolicyDocument) {
	if len(doc.Rules.DangerPatterns) == 0 {
		doc.Rules.DangerPatterns = defaultDangerPatterns()
	}
	if len(doc.Rules.TraversalPatterns) == 0 {
		doc.Rules.TraversalPatterns = defaultTraversalPatterns()
	}
	if len(doc.Rules.AllowedCommands) == 0 {
		doc.Rules.AllowedCommands = defaultAllowedCommands()
	}
	if len(doc.Rules.DeniedPaths) == 0 {
		doc.Rules.DeniedPaths = defaultDeniedPaths()
	}
	if doc.Rules.MaxCommandLength <= 0 {
		doc.Rules.MaxCommandLength = domain.MaxCommandLength
	}
}

// LoadPolicyDocument returns the raw YAML structure.
func LoadPolicyDocument(path string) (PolicyDocument, error) {
	return loadPolicy(path)
}

// SavePolicyDocument writes the YAML structure to disk.
func SavePolicyDocument(path string, doc PolicyDocument) error {
	path = expandPolicyPath(path)
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ResolvePolicyPath expands the policy path to an absolute location.
func ResolvePolicyPath(path string) string {
	return expandPolicyPath(path)
}

func expandPolicyPath(path string) string {
	if path == "" {
		return filepath.Join(filesystem.UserHomeDir(), ".aish", "policy.yaml")
	}
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(filesystem.UserHomeDir(), path[2:])
	}
	return filepath.Join(filesystem.UserHomeDir(), path)
}

func defaultDangerPatterns() []DangerPattern {
	return []DangerPattern{
		{
			Pattern:    `rm\s+(-\w+\s+)*-(rf|fr|r|R)\w*\s+(/(\s|$|\*)|~(/)?(\s|$)|\$HOME)`,
			Level:      "critical",
			Message:    "Recursive delete of the root or home directory",
			Suggestion: "Move the target to trash instead: mv <path> ~/.local/share/Trash/files/",
		},
		{
			Pattern:    `dd\s+[^|]*of=/dev/`,
			Level:      "critical",
			Message:    "Raw write to a block device",
			Suggestion: "Double-check the device name and use a dedicated imaging tool",
		},
		{
			Pattern: `>\s*/dev/(sd[a-z]|nvme\d+|hd[a-z])`,
			Level:   "critical",
			Message: "Redirecting output onto a block device",
		},
		{
			Pattern: `mkfs\.`,
			Level:   "critical",
			Message: "Formatting a filesystem",
		},
		{
			Pattern:    `chmod\s+(-R\s+)?777`,
			Level:      "critical",
			Message:    "World-writable permission grant",
			Suggestion: "Use a narrower mode such as chmod 755",
		},
		{
			Pattern:    `(curl|wget)\b[^|]*\|\s*(sudo\s+)?(sh|bash|zsh|python3?|perl|ruby|node)\b`,
			Level:      "critical",
			Message:    "Piping a downloaded script straight into an interpreter",
			Suggestion: "Download to a file, inspect it, then run it explicitly",
		},
		{
			Pattern:    `\$\([^)]*\)`,
			Level:      "critical",
			Message:    "Command substitution via subshell",
			Suggestion: "Run the inner command separately and pass its output explicitly",
		},
		{
			Pattern:    "`[^`]*`",
			Level:      "critical",
			Message:    "Command substitution via backticks",
			Suggestion: "Run the inner command separately and pass its output explicitly",
		},
		{
			Pattern: `/etc/(passwd|shadow|sudoers)`,
			Level:   "critical",
			Message: "Access to a sensitive system file",
		},
		{
			Pattern: `(~|\$HOME)?/\.ssh/|id_rsa|\.aws/credentials`,
			Level:   "critical",
			Message: "Access to credential material",
		},
		{
			Pattern: `:\(\)\s*\{\s*:\|:&\s*\}\s*;\s*:`,
			Level:   "critical",
			Message: "Fork bomb",
		},
	}
}

func defaultTraversalPatterns() []string {
	return []string{
		`\.\./`,
		`\.\.\\`,
		`(?i)%2e%2e(%2f|%5c|/|\\)`,
		`(?i)\.\.(%2f|%5c)`,
	}
}

func defaultAllowedCommands() []string {
	return []string{
		"ls", "pwd", "echo", "cat", "grep", "find", "head", "tail", "less",
		"cd", "mkdir", "touch", "cp", "mv", "rm", "ln", "stat", "file",
		"git", "make", "go", "npm", "yarn", "pnpm", "node", "python", "python3",
		"pip", "pip3", "cargo", "docker", "kubectl",
		"ps", "top", "df", "du", "free", "uname", "uptime", "whoami", "date",
		"env", "which", "man", "tar", "zip", "unzip", "gzip", "gunzip",
		"curl", "wget", "ssh", "scp", "rsync",
		"sed", "awk", "sort", "uniq", "wc", "cut", "tr", "diff", "xargs",
		"vim", "nano", "code", "chmod", "chown", "kill", "history", "clear",
	}
}

func defaultDeniedPaths() []string {
	return []string{"/etc", "/sys", "/proc", "/boot", "/dev", "/root", "/sbin", "/usr/sbin"}
}
