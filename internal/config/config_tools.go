package config

import "time"

// ToolsConfig configures tool-dispatch behavior shared by cloud_exec,
// iac_tool, and every connector tool: default policy, execution
// limits, and result redaction.
type ToolsConfig struct {
	Policies  ToolPoliciesConfig  `yaml:"policies"`
	Execution ToolExecutionConfig `yaml:"execution"`
}

// ToolPoliciesConfig defines default allow/deny policy for tools, the
// config-layer counterpart to the runtime policy gate that classifies
// read vs. write vs. destructive verbs.
type ToolPoliciesConfig struct {
	// Default policy behavior when no rule matches: "allow" or "deny".
	Default string           `yaml:"default"`
	Rules   []ToolPolicyRule `yaml:"rules"`
}

// ToolPolicyRule overrides the default policy for one tool or verb.
type ToolPolicyRule struct {
	Tool   string `yaml:"tool"`
	Verb   string `yaml:"verb"`   // e.g. "destroy", "delete" — optional, empty matches all verbs
	Action string `yaml:"action"` // "allow" | "deny" | "confirm"
}

// ToolExecutionConfig bounds one tool-execution round.
type ToolExecutionConfig struct {
	MaxIterations int                   `yaml:"max_iterations"`
	Parallelism   int                   `yaml:"parallelism"`
	Timeout       time.Duration         `yaml:"timeout"`
	MaxAttempts   int                   `yaml:"max_attempts"`
	RetryBackoff  time.Duration         `yaml:"retry_backoff"`
	Approval      ApprovalConfig        `yaml:"approval"`
	ResultGuard   ToolResultGuardConfig `yaml:"result_guard"`
}

// ApprovalConfig controls which destructive verbs require an explicit
// confirm step before cloud_exec/iac_tool executes them.
type ApprovalConfig struct {
	// RequireApproval lists verb patterns that always need confirmation
	// regardless of the policy gate's own classification.
	RequireApproval []string `yaml:"require_approval"`

	// DefaultDecision when no rule matches: "allowed", "denied", or "pending".
	DefaultDecision string `yaml:"default_decision"`

	// RequestTTL is how long a pending confirmation remains valid.
	RequestTTL time.Duration `yaml:"request_ttl"`
}

// ToolResultGuardConfig controls truncation and secret redaction of
// tool output before it is persisted or handed back to the model.
type ToolResultGuardConfig struct {
	Enabled         bool     `yaml:"enabled"`
	MaxChars        int      `yaml:"max_chars"`
	RedactPatterns  []string `yaml:"redact_patterns"`
	RedactionText   string   `yaml:"redaction_text"`
	TruncateSuffix  string   `yaml:"truncate_suffix"`
	SanitizeSecrets bool     `yaml:"sanitize_secrets"`
}
