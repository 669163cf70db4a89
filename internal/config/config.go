package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config is the orchestrator's top-level configuration structure.
type Config struct {
	Version int `yaml:"version"`

	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Auth          AuthConfig          `yaml:"auth"`
	Agent         AgentConfig         `yaml:"agent"`
	LLM           LLMConfig           `yaml:"llm"`
	Tools         ToolsConfig         `yaml:"tools"`
	Cloud         CloudConfig         `yaml:"cloud"`
	RCA           RCAConfig           `yaml:"rca"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
	Security      SecurityConfig      `yaml:"security"`

	// ContextPruning controls in-memory tool-result pruning for the
	// per-session event loop.
	ContextPruning ContextPruningConfig `yaml:"context_pruning"`
}

// AgentConfig controls the agentic loop's own run-time ceilings,
// overridable by environment variable per-deployment without editing
// the YAML file.
type AgentConfig struct {
	// RecursionLimit caps how many tool-call rounds a single turn may
	// take before the loop force-stops. Overridden by
	// AGENT_RECURSION_LIMIT.
	RecursionLimit int `yaml:"recursion_limit"`

	// PodIsolation runs each cloud_exec/iac_tool invocation in its own
	// pod/sandbox rather than a shared process. Overridden by
	// ENABLE_POD_ISOLATION.
	PodIsolation bool `yaml:"pod_isolation"`
}

const (
	defaultRecursionLimit = 25
	envRecursionLimit     = "AGENT_RECURSION_LIMIT"
	envPodIsolation       = "ENABLE_POD_ISOLATION"
	envOpenRouterAPIKey   = "OPENROUTER_API_KEY"
)

// Load reads path (YAML, with $include support), decodes it into a
// Config, applies defaults, then applies environment overrides —
// matching the teacher's convention that env beats file beats default.
func Load(path string) (*Config, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg, err := decodeRawConfig(raw)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	if err := ValidateVersion(cfg.Version); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Agent.RecursionLimit <= 0 {
		c.Agent.RecursionLimit = defaultRecursionLimit
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.RCA.SweepSchedule == "" {
		c.RCA.SweepSchedule = "*/5 * * * *"
	}
	if c.Cloud.TerraformWorkdir == "" {
		c.Cloud.TerraformWorkdir = "/var/lib/aurora/terraform_workdir"
	}
}

// applyEnvOverrides applies the three documented environment knobs on
// top of whatever the file or defaults set.
func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv(envRecursionLimit)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Agent.RecursionLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(envPodIsolation)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Agent.PodIsolation = b
		}
	}
	if v := os.Getenv(envOpenRouterAPIKey); v != "" {
		if c.LLM.Providers == nil {
			c.LLM.Providers = map[string]LLMProviderConfig{}
		}
		provider := c.LLM.Providers["openrouter"]
		provider.APIKey = v
		c.LLM.Providers["openrouter"] = provider
	}
}
