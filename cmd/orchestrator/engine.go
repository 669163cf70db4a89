package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Arvo-AI/aurora/internal/agent"
	"github.com/Arvo-AI/aurora/internal/agent/providers"
	"github.com/Arvo-AI/aurora/internal/cloudexec"
	"github.com/Arvo-AI/aurora/internal/config"
	"github.com/Arvo-AI/aurora/internal/credbroker"
	"github.com/Arvo-AI/aurora/internal/iac"
	"github.com/Arvo-AI/aurora/internal/notify"
	"github.com/Arvo-AI/aurora/internal/policy"
	"github.com/Arvo-AI/aurora/internal/promptbuild"
	"github.com/Arvo-AI/aurora/internal/sessions"
	"github.com/Arvo-AI/aurora/internal/tailscale"
	cloudexectool "github.com/Arvo-AI/aurora/internal/tools/cloudexec"
	iactool "github.com/Arvo-AI/aurora/internal/tools/iac"
)

// engine bundles the assembled Tool Execution Engine: an agent.Runtime
// with cloud_exec/iac_tool registered and the segmented prompt builder
// enabled, backed by the full credbroker/cloudexec/iac/notify/tailscale
// cluster. Both the `rca run` CLI surface and (when a transport embeds
// this binary as a library) the interactive path construct it the same
// way, so background investigations run through the identical engine
// §4.9 requires.
type engine struct {
	runtime  *agent.Runtime
	provider agent.LLMProvider
	model    string
	sessions sessions.Store
	logger   *slog.Logger
}

// fileOutputSink persists cloud_exec output_file writes under a fixed
// root directory, analogous to the Terraform workspace root: this
// binary has no object storage wired in, so kubeconfig/helm-values
// style artifacts land on local disk for the operator to retrieve.
type fileOutputSink struct {
	root string
}

func (s fileOutputSink) Write(ctx context.Context, path string, content []byte) error {
	full := filepath.Join(s.root, filepath.Clean("/"+path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("output sink: mkdir: %w", err)
	}
	return os.WriteFile(full, content, 0o644)
}

// configProjectResolver reads the project/region/subscription
// convenience defaults from orchestrator.yaml's cloud.defaults block.
type configProjectResolver struct {
	defaults map[string]config.CloudProviderDefaults
}

func (r configProjectResolver) Defaults(ctx context.Context, principal, provider string) (project, region, subscription string) {
	d, ok := r.defaults[provider]
	if !ok {
		return "", "", ""
	}
	return d.Project, d.Region, d.Subscription
}

// buildEngine wires the domain cluster described in spec §4.1.1:
// credential broker -> cloud_exec/iac_tool dispatchers -> agent tool
// wrappers -> tool registry -> Runtime, with the segmented system
// prompt enabled for the background (RCA) mode. A deployment running
// the interactive transport constructs the same graph and switches
// promptbuild.ModeInteractive/ModeAsk instead.
func buildEngine(cfg *config.Config, logger *slog.Logger) (*engine, error) {
	anthropicCfg := cfg.LLM.Providers["anthropic"]
	if anthropicCfg.APIKey == "" {
		anthropicCfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	provider, err := providers.NewAnthropicProvider(providers.AnthropicConfig{
		APIKey:       anthropicCfg.APIKey,
		BaseURL:      anthropicCfg.BaseURL,
		DefaultModel: anthropicCfg.DefaultModel,
	})
	if err != nil {
		return nil, fmt.Errorf("build llm provider: %w", err)
	}

	store := sessions.NewMemoryStore()

	broker := credbroker.New(credbroker.NewMemoryConnectionStore(), nil, nil, nil)
	workspace := iac.NewWorkspace(cfg.Cloud.TerraformWorkdir)
	registry := notify.NewProcessRegistry()

	// No live operator socket exists for a background/CLI-driven turn,
	// so destructive actions time out to denied rather than hanging —
	// the background-mode auto-decision path from spec §4.3 step 7.
	confirmer := notify.TimeBoundConfirmer{Inner: notify.NopConfirmer{Decision: notify.DecisionDenied}}

	var tsClient cloudexec.TailscaleClient
	if cfg.Cloud.Tailscale.APIKey != "" {
		tsClient = tailscale.NewAdminClient(cfg.Cloud.Tailscale.APIKey)
	}

	cloudDispatcher := &cloudexec.Dispatcher{
		Broker:    broker,
		Resolver:  &policy.Resolver{},
		Policy:    policy.NewPolicy(policy.ProfileStandard),
		Confirmer: confirmer,
		Registry:  registry,
		Projects:  configProjectResolver{defaults: cfg.Cloud.Defaults},
		Sink:      fileOutputSink{root: cfg.Cloud.TerraformWorkdir},
		Tailscale: tsClient,
	}

	iacDispatcher := &iac.Dispatcher{
		Workspace: workspace,
		Broker:    broker,
		Confirmer: confirmer,
	}

	rt := agent.NewRuntime(provider, store)
	rt.RegisterTool(cloudexectool.New(cloudDispatcher, store))
	rt.RegisterTool(iactool.New(iacDispatcher))
	rt.EnableSegmentedPrompts(enabledProviders(cfg), regionDefaults(cfg), promptbuild.ModeBackground)

	return &engine{
		runtime:  rt,
		provider: provider,
		model:    anthropicCfg.DefaultModel,
		sessions: store,
		logger:   logger,
	}, nil
}

func enabledProviders(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Cloud.Defaults))
	for name := range cfg.Cloud.Defaults {
		names = append(names, name)
	}
	return names
}

func regionDefaults(cfg *config.Config) map[string]string {
	regions := make(map[string]string, len(cfg.Cloud.Defaults))
	for name, d := range cfg.Cloud.Defaults {
		if d.Region != "" {
			regions[name] = d.Region
		}
	}
	return regions
}
