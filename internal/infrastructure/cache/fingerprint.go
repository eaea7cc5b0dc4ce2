package cache

import (
	"fmt"
	"strings"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/doeshing/aish/internal/domain"
)

// fingerprintScope keeps only the context fields that make a cached answer
// reusable. Recent history is deliberately excluded: it changes with every
// command and would defeat the cache.
type fingerprintScope struct {
	Input      string
	WorkingDir string
	OS         string
	Shell      string
}

// Fingerprint returns a deterministic cache key for (input, context).
func Fingerprint(input string, snapshot domain.ContextSnapshot) string {
	scope := fingerprintScope{
		Input:      normalizeInput(input),
		WorkingDir: snapshot.WorkingDir,
		OS:         snapshot.OS,
		Shell:      snapshot.Shell,
	}
	sum, err := hashstructure.Hash(scope, hashstructure.FormatV2, nil)
	if err != nil {
		// Hash only fails on unhashable types; scope is all strings.
		return normalizeInput(input)
	}
	return fmt.Sprintf("%016x", sum)
}

// normalizeInput collapses whitespace and case so trivial variations of the
// same request share a key.
func normalizeInput(input string) string {
	return strings.Join(strings.Fields(strings.ToLower(input)), " ")
}
