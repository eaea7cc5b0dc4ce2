package domain

// PlanKind tags how a request will be resolved.
type PlanKind string

const (
	// PlanDirect executes via pattern match, no AI involvement.
	PlanDirect PlanKind = "direct"
	// PlanCached replays a previously resolved command sequence.
	PlanCached PlanKind = "cached"
	// PlanExternal escalates to the AI collaborator. This is the only
	// path that leaves the core.
	PlanExternal PlanKind = "needs_external_processing"
	// PlanRejected means the safety screen blocked the input before any
	// routing decision was made.
	PlanRejected PlanKind = "rejected"
)

// IntentPattern is one row of the router's declarative intent table.
// Order of declaration is priority order: the tie-break on equal scores.
type IntentPattern struct {
	Name       string  `yaml:"name"`
	Handler    string  `yaml:"handler"`
	Pattern    string  `yaml:"pattern"`
	Confidence float64 `yaml:"confidence"`
	// Template is the command to run for a direct plan; $1..$n refer to
	// the pattern's capture groups.
	Template string `yaml:"template"`
}

// ExecutionPlan is the router's verdict for one request.
type ExecutionPlan struct {
	Kind       PlanKind
	Handler    string
	Command    string
	Args       []string
	Confidence float64
	Pattern    string
	// CacheKey is the fingerprint under which a direct result should be
	// stored, and under which a cached entry was found.
	CacheKey string
	Cached   *CacheEntry
	// Validation carries the screen result for rejected plans.
	Validation *ValidationResult
}
