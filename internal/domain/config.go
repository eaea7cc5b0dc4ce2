package domain

// Config mirrors ~/.aish/config.yaml.
type Config struct {
	ConfigFormatVersion string            `yaml:"config_format_version"`
	Preferences         Preferences       `yaml:"preferences"`
	Security            SecuritySettings  `yaml:"security"`
	Execution           ExecutionSettings `yaml:"execution"`
	Cache               CacheSettings     `yaml:"cache"`
	History             HistorySettings   `yaml:"history"`
	Workflows           WorkflowSettings  `yaml:"workflows"`
}

// Preferences captures user level toggles.
type Preferences struct {
	AutoExecuteDirect bool `yaml:"auto_execute_direct"`
	Verbose           bool `yaml:"verbose"`
}

// SecuritySettings defines validator behavior.
type SecuritySettings struct {
	Enabled     bool   `yaml:"enabled"`
	PolicyFile  string `yaml:"policy_file"`
	Strict      bool   `yaml:"strict"`
	AllowHidden bool   `yaml:"allow_hidden"`
}

// ExecutionSettings controls how commands run.
type ExecutionSettings struct {
	TimeoutSeconds int `yaml:"timeout"`
	HistorySize    int `yaml:"history_size"`
}

// HistorySettings controls persistent history retention.
type HistorySettings struct {
	RetentionDays int `yaml:"retention_days"`
}

// WorkflowSettings locates user-authored workflow definitions.
type WorkflowSettings struct {
	Dir string `yaml:"dir"`
}
