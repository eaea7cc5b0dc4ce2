// Package security implements the command validation pipeline: danger
// pattern matching, path traversal detection, allow-list screening and the
// path/file/url/argument helpers exposed to the rest of the core.
package security

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/doeshing/aish/internal/domain"
	"github.com/doeshing/aish/internal/ports"
)

// Validator implements the ports.Validator port over a declarative policy
// table loaded once at construction.
type Validator struct {
	patterns  []compiledPattern
	traversal []*regexp.Regexp
	allowlist []string
	denyDirs  []string
	maxLength int
}

type compiledPattern struct {
	re   *regexp.Regexp
	rule DangerPattern
}

// NewValidator loads the policy from disk (or embedded defaults when the
// file is missing) and compiles the pattern tables.
func NewValidator(policyPath string) (*Validator, error) {
	doc, err := loadPolicy(policyPath)
	if err != nil {
		return nil, err
	}

	var compiled []compiledPattern
	for _, rule := range doc.Rules.DangerPatterns {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile danger pattern %q: %w", rule.Pattern, err)
		}
		compiled = append(compiled, compiledPattern{re: re, rule: rule})
	}

	var traversal []*regexp.Regexp
	for _, raw := range doc.Rules.TraversalPatterns {
		re, err := regexp.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("compile traversal pattern %q: %w", raw, err)
		}
		traversal = append(traversal, re)
	}

	return &Validator{
		patterns:  compiled,
		traversal: traversal,
		allowlist: doc.Rules.AllowedCommands,
		denyDirs:  doc.Rules.DeniedPaths,
		maxLength: doc.Rules.MaxCommandLength,
	}, nil
}

// Validate implements ports.Validator.
func (v *Validator) Validate(raw string, opts domain.ValidateOptions) domain.ValidationResult {
	result := domain.ValidationResult{RiskLevel: domain.RiskLow}

	if strings.TrimSpace(raw) == "" {
		result.Errors = append(result.Errors, "command is empty")
		return result
	}

	sanitized := sanitizeCommand(raw)
	result.Sanitized = sanitized

	if len(sanitized) > v.maxLength {
		result.Errors = append(result.Errors,
			fmt.Sprintf("command exceeds maximum length of %d characters", v.maxLength))
	}

	v.matchDangerPatterns(sanitized, &result)
	v.matchTraversal(sanitized, &result)
	v.checkBaseCommand(sanitized, opts, &result)
	v.checkPaths(sanitized, opts, &result)

	result.IsValid = len(result.Errors) == 0
	return result
}

// matchDangerPatterns runs the ordered danger table. Any match blocks the
// command outright.
func (v *Validator) matchDangerPatterns(command string, result *domain.ValidationResult) {
	for _, p := range v.patterns {
		if !p.re.MatchString(command) {
			continue
		}
		result.Blocked = true
		result.RiskLevel = domain.RiskCritical
		result.Errors = append(result.Errors, p.rule.Message)
		if p.rule.Suggestion != "" {
			result.Suggestions = append(result.Suggestions, p.rule.Suggestion)
		}
	}
}

// matchTraversal runs independently of the danger table; a hit is a hard
// error at high risk but does not block-tag the result.
func (v *Validator) matchTraversal(command string, result *domain.ValidationResult) {
	for _, re := range v.traversal {
		if re.MatchString(command) {
			if domain.MoreSevere(domain.RiskHigh, result.RiskLevel) {
				result.RiskLevel = domain.RiskHigh
			}
			result.Errors = append(result.Errors, "path traversal sequence detected")
			return
		}
	}
}

func (v *Validator) checkBaseCommand(command string, opts domain.ValidateOptions, result *domain.ValidationResult) {
	base := baseCommand(command)
	if base == "" {
		return
	}
	for _, allowed := range v.allowlist {
		if base == allowed {
			return
		}
	}

	suggestions := v.nearestCommands(base)
	for _, s := range suggestions {
		result.Suggestions = append(result.Suggestions, fmt.Sprintf("did you mean %q?", s))
	}

	msg := fmt.Sprintf("command %q is not on the allow-list", base)
	if opts.Strict {
		if domain.MoreSevere(domain.RiskMedium, result.RiskLevel) {
			result.RiskLevel = domain.RiskMedium
		}
		result.Errors = append(result.Errors, msg)
		return
	}
	result.Warnings = append(result.Warnings, msg)
}

// nearestCommands returns up to 3 allow-listed commands within edit
// distance 2 of base, closest first. Ties keep allow-list order so output
// is deterministic.
func (v *Validator) nearestCommands(base string) []string {
	type scored struct {
		name string
		dist int
		pos  int
	}
	var candidates []scored
	for i, allowed := range v.allowlist {
		d := levenshtein.ComputeDistance(base, allowed)
		if d <= 2 {
			candidates = append(candidates, scored{name: allowed, dist: d, pos: i})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].pos < candidates[j].pos
	})
	var names []string
	for _, c := range candidates {
		if len(names) >= domain.MaxSuggestions {
			break
		}
		names = append(names, c.name)
	}
	return names
}

func (v *Validator) checkPaths(command string, opts domain.ValidateOptions, result *domain.ValidationResult) {
	for _, path := range extractPaths(command) {
		if dir := v.deniedDir(path); dir != "" {
			if domain.MoreSevere(domain.RiskHigh, result.RiskLevel) {
				result.RiskLevel = domain.RiskHigh
			}
			result.Errors = append(result.Errors,
				fmt.Sprintf("path %q resolves under protected system directory %s", path, dir))
			continue
		}
		if hiddenPath(path) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("path %q targets a hidden file or directory", path))
			if !opts.AllowHidden {
				if domain.MoreSevere(domain.RiskMedium, result.RiskLevel) {
					result.RiskLevel = domain.RiskMedium
				}
				result.Errors = append(result.Errors, fmt.Sprintf("hidden path %q is not permitted", path))
			}
		}
	}
}

func (v *Validator) deniedDir(path string) string {
	if !strings.HasPrefix(path, "/") {
		return ""
	}
	clean := filepath.Clean(path)
	for _, dir := range v.denyDirs {
		if clean == dir || strings.HasPrefix(clean, dir+"/") {
			return dir
		}
	}
	return ""
}

var driveLetterRe = regexp.MustCompile(`^[a-zA-Z]:[/\\]`)

// extractPaths pulls filesystem-looking tokens out of a command string.
func extractPaths(command string) []string {
	var paths []string
	for _, token := range strings.Fields(command) {
		token = strings.Trim(token, `"'`)
		switch {
		case strings.HasPrefix(token, "/"),
			strings.HasPrefix(token, "./"),
			strings.HasPrefix(token, "~/"),
			driveLetterRe.MatchString(token):
			paths = append(paths, token)
		}
	}
	return paths
}

// hiddenPath reports whether any component of path is a dotfile or
// dot-directory. "." and ".." components do not count.
func hiddenPath(path string) bool {
	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == "." || part == ".." || part == "~" {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// baseCommand extracts the leading token, skipping env assignments and
// stripping any directory prefix.
func baseCommand(command string) string {
	for _, token := range strings.Fields(command) {
		if strings.Contains(token, "=") && !strings.HasPrefix(token, "=") {
			continue
		}
		if i := strings.LastIndexByte(token, '/'); i >= 0 {
			token = token[i+1:]
		}
		return token
	}
	return ""
}

// sanitizeCommand strips control characters and null bytes and normalizes
// line endings. This is the "sanitized" form carried by the result.
func sanitizeCommand(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r == 0 {
			continue
		}
		if r < 0x20 && r != '\n' && r != '\t' {
			continue
		}
		if r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

var _ ports.Validator = (*Validator)(nil)
