package assets

import (
	"embed"
	_ "embed"
)

// DefaultConfigYAML contains the embedded default configuration, written to
// ~/.aish/config.yaml on first run.
//
//go:embed defaults/config.yaml
var DefaultConfigYAML []byte

// DefaultPolicyYAML contains the embedded default validation policy.
//
//go:embed defaults/policy.yaml
var DefaultPolicyYAML []byte

//go:embed workflows/*.yaml
var builtinWorkflows embed.FS

// BuiltinWorkflows returns the embedded workflow definitions as raw YAML
// documents.
func BuiltinWorkflows() ([][]byte, error) {
	entries, err := builtinWorkflows.ReadDir("workflows")
	if err != nil {
		return nil, err
	}
	var docs [][]byte
	for _, entry := range entries {
		data, err := builtinWorkflows.ReadFile("workflows/" + entry.Name())
		if err != nil {
			return nil, err
		}
		docs = append(docs, data)
	}
	return docs, nil
}
