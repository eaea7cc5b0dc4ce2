// Package domain defines core business entities and value objects for aish.
//
// The domain layer is independent of infrastructure concerns and represents
// pure business logic and data structures.
package domain

// RiskLevel is the ordinal classification of how dangerous a command is.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Severity maps a risk level onto an ordinal scale for comparisons.
func (r RiskLevel) Severity() int {
	switch r {
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	default:
		return 1
	}
}

// MoreSevere reports whether next outranks current.
func MoreSevere(next, current RiskLevel) bool {
	return next.Severity() > current.Severity()
}

// ValidateOptions tunes a single validation call.
type ValidateOptions struct {
	// Strict turns unknown base commands into hard errors instead of warnings.
	Strict bool
	// AllowHidden permits dotfile/dot-directory paths without an error.
	AllowHidden bool
}

// ValidationResult aggregates the outcome of screening one raw command.
// Never mutated after creation.
type ValidationResult struct {
	IsValid     bool
	Sanitized   string
	RiskLevel   RiskLevel
	Warnings    []string
	Errors      []string
	Suggestions []string
	// Blocked is true iff a critical danger pattern matched.
	Blocked bool
}
