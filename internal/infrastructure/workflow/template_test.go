package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstitute(t *testing.T) {
	ctx := map[string]interface{}{
		"name": "svc",
		"project": map[string]interface{}{
			"owner": "platform",
			"port":  8080,
		},
	}

	cases := []struct {
		in   string
		want string
	}{
		{"mkdir {{name}}", "mkdir svc"},
		{"chown {{project.owner}} {{name}}", "chown platform svc"},
		{"listen on {{project.port}}", "listen on 8080"},
		{"mkdir {{missing|fallback}}", "mkdir fallback"},
		{"echo {{ name }}", "echo svc"},
		{"echo {{unknown}}", "echo {{unknown}}"},
		{"no placeholders", "no placeholders"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Substitute(tc.in, ctx), tc.in)
	}
}

func TestEvalCondition(t *testing.T) {
	ctx := map[string]interface{}{
		"env":     "prod",
		"debug":   false,
		"retries": 0,
		"nested":  map[string]interface{}{"flag": "on"},
	}

	cases := []struct {
		expr string
		want bool
	}{
		{`env == "prod"`, true},
		{`env == "dev"`, false},
		{`env != "dev"`, true},
		{`nested.flag == on`, true},
		{"env", true},
		{"debug", false},
		{"retries", false},
		{"unset", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, EvalCondition(tc.expr, ctx), tc.expr)
	}
}
