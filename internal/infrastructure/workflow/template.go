package workflow

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// Substitute replaces {{variable}} placeholders with values from the run
// context. Variables are dotted paths into nested maps; a `|fallback` suffix
// supplies a literal used when the path resolves to nothing:
//
//	{{project.name|unnamed}}
func Substitute(text string, ctx map[string]interface{}) string {
	return placeholderRe.ReplaceAllStringFunc(text, func(match string) string {
		inner := strings.TrimSpace(match[2 : len(match)-2])
		expr, fallback := inner, ""
		hasFallback := false
		if i := strings.Index(inner, "|"); i >= 0 {
			expr = strings.TrimSpace(inner[:i])
			fallback = strings.TrimSpace(inner[i+1:])
			hasFallback = true
		}
		if value, ok := Lookup(ctx, expr); ok {
			return fmt.Sprintf("%v", value)
		}
		if hasFallback {
			return fallback
		}
		return match
	})
}

// Lookup resolves a dotted path against the context, descending through
// nested string-keyed maps.
func Lookup(ctx map[string]interface{}, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	var current interface{} = ctx
	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// EvalCondition evaluates a boolean expression over the context. Supported
// forms are equality (`a.b == value`), inequality (`a.b != value`) and bare
// existence/truthiness of a path.
func EvalCondition(expr string, ctx map[string]interface{}) bool {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return false
	}
	for _, op := range []string{"==", "!="} {
		if i := strings.Index(expr, op); i >= 0 {
			left := resolveOperand(strings.TrimSpace(expr[:i]), ctx)
			right := resolveOperand(strings.TrimSpace(expr[i+len(op):]), ctx)
			if op == "==" {
				return left == right
			}
			return left != right
		}
	}
	value, ok := Lookup(ctx, expr)
	if !ok {
		return false
	}
	return truthy(value)
}

// resolveOperand treats quoted tokens as literals and everything else as a
// context path, falling back to the raw token for unresolvable paths so
// comparisons against plain literals still work.
func resolveOperand(token string, ctx map[string]interface{}) string {
	if len(token) >= 2 {
		if (token[0] == '"' && token[len(token)-1] == '"') ||
			(token[0] == '\'' && token[len(token)-1] == '\'') {
			return token[1 : len(token)-1]
		}
	}
	if value, ok := Lookup(ctx, token); ok {
		return fmt.Sprintf("%v", value)
	}
	return token
}

func truthy(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != "" && v != "false" && v != "0"
	case int:
		return v != 0
	case float64:
		return v != 0
	default:
		return true
	}
}
