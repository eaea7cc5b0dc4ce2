package executor

import (
	"os"
	"strings"
)

// propagatedEnvVars is the full set of environment variables a child process
// receives. Everything else, dynamic-linker injection variables included, is
// dropped.
var propagatedEnvVars = []string{"PATH", "HOME", "USER", "LANG", "TERM"}

// restrictedEnv builds the child environment from the allow-list only.
func restrictedEnv() []string {
	var env []string
	for _, name := range propagatedEnvVars {
		if value := os.Getenv(name); value != "" {
			env = append(env, name+"="+value)
		}
	}
	return env
}

// injectionEnvVar reports whether a variable name belongs to the
// linker-injection family. Used by tests to assert the restriction holds.
func injectionEnvVar(name string) bool {
	return strings.HasPrefix(name, "LD_") || strings.HasPrefix(name, "DYLD_")
}
