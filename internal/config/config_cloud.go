package config

// CloudConfig declares the project/region/subscription defaults
// injected into cloud_exec commands that omit them explicitly, and
// the credentials the Tailscale admin REST translator authenticates
// with.
type CloudConfig struct {
	// Defaults maps a provider name (gcp, aws, azure, ovh, scaleway) to
	// the project/region/subscription convenience flags cloud_exec
	// injects when the model's command omits them.
	Defaults map[string]CloudProviderDefaults `yaml:"defaults"`

	// Tailscale configures the admin REST API translator used for the
	// tailscale cloud_exec verbs (device, auth-key, acl, dns, routes,
	// status, settings).
	Tailscale TailscaleConfig `yaml:"tailscale"`

	// TerraformWorkdir roots the per-session Terraform workspaces that
	// back iac_tool.
	TerraformWorkdir string `yaml:"terraform_workdir"`
}

// CloudProviderDefaults is one provider's convenience-flag defaults.
type CloudProviderDefaults struct {
	Project      string `yaml:"project"`
	Region       string `yaml:"region"`
	Subscription string `yaml:"subscription"`
}

// TailscaleConfig authenticates the admin REST API translator.
type TailscaleConfig struct {
	APIKey  string `yaml:"api_key"`
	Tailnet string `yaml:"tailnet"`
}
