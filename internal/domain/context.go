package domain

// ContextSnapshot is the environmental context attached to a request. It is
// both the cache fingerprint context and the payload sent across the AI
// collaborator boundary.
type ContextSnapshot struct {
	WorkingDir     string   `json:"working_dir"`
	Shell          string   `json:"shell"`
	OS             string   `json:"os"`
	User           string   `json:"user"`
	RecentHistory  []string `json:"recent_history"`
	AvailableTools []string `json:"available_tools"`
}
