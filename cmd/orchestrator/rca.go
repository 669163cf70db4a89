package main

import (
	"fmt"
	"log/slog"

	"github.com/Arvo-AI/aurora/internal/rca"
	"github.com/spf13/cobra"
)

func newRCACmd(logger *slog.Logger, cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rca",
		Short: "Root-cause investigation pipeline maintenance",
	}
	cmd.AddCommand(
		newRCARunCmd(logger, cfgPath),
		newRCASummarizeCmd(logger, cfgPath),
		newRCASweepCmd(logger, cfgPath),
	)
	return cmd
}

// buildPipeline assembles the same rca.Pipeline shape `rca run` and
// `rca summarize` both need: an in-memory incident store and rate
// limiter, a TaskRunner bound to the engine's Runtime so a background
// turn runs the identical cloud_exec/iac_tool-equipped loop an
// interactive turn would (spec §4.9), and a SummaryModel reusing the
// same LLM provider.
func buildPipeline(cfgPath *string, logger *slog.Logger) (*rca.Pipeline, *engine, error) {
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	eng, err := buildEngine(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("build engine: %w", err)
	}

	incidents := rca.NewMemoryIncidentStore()
	pipeline := &rca.Pipeline{
		RateLimiter: rca.NewInMemoryRateLimiter(),
		Incidents:   incidents,
		Summaries:   newAgentSummaryModel(eng),
		Transcripts: sessionTranscriptSource{sessions: eng.sessions},
		Runner:      newAgentTaskRunner(eng),
		Logger:      logger,
	}
	return pipeline, eng, nil
}

func newRCARunCmd(logger *slog.Logger, cfgPath *string) *cobra.Command {
	var sessionID, incidentID string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Kick off a background investigation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" || incidentID == "" {
				return fmt.Errorf("--session and --incident are required")
			}
			pipeline, _, err := buildPipeline(cfgPath, logger)
			if err != nil {
				return err
			}
			req := rca.InvestigationRequest{
				SessionID:      sessionID,
				IncidentID:     incidentID,
				InitialMessage: fmt.Sprintf("Investigate incident %s.", incidentID),
			}
			return pipeline.RunBackgroundInvestigation(cmd.Context(), req)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session ID the investigation runs under")
	cmd.Flags().StringVar(&incidentID, "incident", "", "incident ID to investigate")
	return cmd
}

func newRCASummarizeCmd(logger *slog.Logger, cfgPath *string) *cobra.Command {
	var incidentID, sessionID string
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Regenerate an incident summary from its transcript",
		RunE: func(cmd *cobra.Command, args []string) error {
			if incidentID == "" {
				return fmt.Errorf("--incident is required")
			}
			pipeline, _, err := buildPipeline(cfgPath, logger)
			if err != nil {
				return err
			}
			return pipeline.CompleteInvestigation(cmd.Context(), incidentID, sessionID)
		},
	}
	cmd.Flags().StringVar(&incidentID, "incident", "", "incident ID to summarize")
	cmd.Flags().StringVar(&sessionID, "session", "", "chat session ID backing the transcript")
	return cmd
}

func newRCASweepCmd(logger *slog.Logger, cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Mark abandoned background investigations as failed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			incidents := rca.NewMemoryIncidentStore()
			sweeper := rca.NewSweeper(noopSessionStore{}, incidents, logger)

			result, err := sweeper.Sweep(cmd.Context())
			if err != nil {
				return fmt.Errorf("sweep: %w", err)
			}

			logger.Info("sweep complete",
				"cleaned", result.Cleaned,
				"sweep_schedule", cfg.RCA.SweepSchedule,
			)
			return nil
		},
	}
	return cmd
}
