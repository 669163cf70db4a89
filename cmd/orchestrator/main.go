// Package main provides the CLI entry point for the Aurora agentic
// cloud-ops orchestrator.
//
// Aurora mediates between an LLM-driven conversational agent and a
// heterogeneous pool of cloud control planes (GCP, AWS, Azure, OVH,
// Scaleway, Tailscale), Terraform, observability back-ends (Splunk,
// Dynatrace, Coroot, Confluence), and source control (GitHub,
// Bitbucket). This binary exposes the background-task surface and a
// doctor/status command; the interactive turn loop itself is a library
// consumed by the (externally owned) transport layer.
//
// # Basic Usage
//
// Run a background investigation directly (normally enqueued by a
// webhook handler owned by the transport):
//
//	orchestrator rca run --session s-123 --incident i-456
//
// Regenerate an incident summary after the fact:
//
//	orchestrator rca summarize --incident i-456
//
// Sweep stale background sessions:
//
//	orchestrator rca sweep
//
// # Environment Variables
//
//   - AGENT_RECURSION_LIMIT: model max reasoning iterations (required)
//   - ENABLE_POD_ISOLATION: selects K8s vs direct-subprocess execution for Tailscale SSH
//   - OPENROUTER_API_KEY / vendor keys: consumed by the model factory
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Arvo-AI/aurora/internal/config"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	root := buildRootCmd(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd(logger *slog.Logger) *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:     "orchestrator",
		Short:   "Agentic cloud-ops orchestrator",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to orchestrator.yaml (falls back to env)")

	root.AddCommand(newServeCmd(logger, &cfgPath))
	root.AddCommand(newRCACmd(logger, &cfgPath))
	root.AddCommand(newDoctorCmd(logger, &cfgPath))

	return root
}

func loadConfig(path string) (*config.Config, error) {
	return config.Load(path)
}
