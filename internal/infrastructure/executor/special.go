package executor

import (
	"regexp"
	"strings"
)

// SpecialKind tags commands that are better modeled as file operations than
// as interactive subprocesses.
type SpecialKind int

const (
	// KindShell is the default: spawn as a subprocess.
	KindShell SpecialKind = iota
	// KindEditor is a text-editor invocation on a single file.
	KindEditor
	// KindRedirect is an echo/printf redirect-based file write.
	KindRedirect
	// KindTouch is file creation without content.
	KindTouch
)

// SpecialCommand is the closed tagged variant produced by Classify and
// matched exhaustively by the executor.
type SpecialCommand struct {
	Kind    SpecialKind
	Editor  string
	Path    string
	Content string
	Append  bool
}

var editorNames = map[string]struct{}{
	"vi": {}, "vim": {}, "nvim": {}, "nano": {}, "emacs": {}, "code": {}, "subl": {},
}

var (
	redirectRe = regexp.MustCompile(`^(echo|printf)\s+(.+?)\s*(>>|>)\s*(\S+)$`)
	touchRe    = regexp.MustCompile(`^touch\s+("[^"]+"|'[^']+'|\S+)$`)
	editorRe   = regexp.MustCompile(`^(\S+)\s+("[^"]+"|'[^']+'|\S+)$`)
)

// Classify decides how a sanitized command should be handled. It is a single
// classification point so the dispatch in the executor stays exhaustive.
func Classify(command string) SpecialCommand {
	if m := redirectRe.FindStringSubmatch(command); m != nil {
		return SpecialCommand{
			Kind:    KindRedirect,
			Content: unquote(m[2]),
			Append:  m[3] == ">>",
			Path:    unquote(m[4]),
		}
	}
	if m := touchRe.FindStringSubmatch(command); m != nil {
		return SpecialCommand{Kind: KindTouch, Path: unquote(m[1])}
	}
	if m := editorRe.FindStringSubmatch(command); m != nil {
		if _, ok := editorNames[m[1]]; ok {
			return SpecialCommand{Kind: KindEditor, Editor: m[1], Path: unquote(m[2])}
		}
	}
	return SpecialCommand{Kind: KindShell}
}

// unquote strips one level of matching single or double quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// containsShellOperator reports whether the command relies on shell syntax
// the executor deliberately does not interpret.
func containsShellOperator(command string) bool {
	for _, op := range []string{"|", ">", "<", "&&", "||", ";", "&"} {
		if strings.Contains(command, op) {
			return true
		}
	}
	return false
}
