package config

import "time"

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ObservabilityConfig configures OpenTelemetry tracing for
// cloud_exec/iac_tool spans.
type ObservabilityConfig struct {
	Tracing TracingConfig `yaml:"tracing"`
}

type TracingConfig struct {
	Enabled        bool              `yaml:"enabled"`
	Endpoint       string            `yaml:"endpoint"`
	ServiceName    string            `yaml:"service_name"`
	ServiceVersion string            `yaml:"service_version"`
	Environment    string            `yaml:"environment"`
	SamplingRate   float64           `yaml:"sampling_rate"`
	Insecure       bool              `yaml:"insecure"`
	Attributes     map[string]string `yaml:"attributes"`
}

// SecurityConfig configures continuous security posture auditing of
// the orchestrator's own deployment (filesystem permissions,
// configuration hygiene) — distinct from cloud-provider IAM policy,
// which the credential broker owns.
type SecurityConfig struct {
	Posture SecurityPostureConfig `yaml:"posture"`
}

type SecurityPostureConfig struct {
	Enabled           bool                   `yaml:"enabled"`
	Interval          time.Duration          `yaml:"interval"`
	IncludeFilesystem *bool                  `yaml:"include_filesystem"`
	IncludeConfig     *bool                  `yaml:"include_config"`
	CheckSymlinks     *bool                  `yaml:"check_symlinks"`
	AutoRemediation   SecurityRemediationCfg `yaml:"auto_remediation"`
}

type SecurityRemediationCfg struct {
	Enabled bool   `yaml:"enabled"`
	Mode    string `yaml:"mode"` // lockdown | warn_only
}
