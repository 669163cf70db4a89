package main

import (
	"fmt"
	"log/slog"

	"github.com/Arvo-AI/aurora/internal/security"
	"github.com/spf13/cobra"
)

// newDoctorCmd validates configuration and runs the security posture
// audit, optionally applying automatic permission fixes.
func newDoctorCmd(logger *slog.Logger, cfgPath *string) *cobra.Command {
	var repair bool
	var stateDir string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration and audit security posture",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return fmt.Errorf("config invalid: %w", err)
			}
			logger.Info("config loaded", "version", cfg.Version)

			if stateDir == "" {
				stateDir = security.DefaultStateDir()
			}

			report, err := security.RunAudit(security.AuditOptions{
				StateDir:          stateDir,
				ConfigPath:        *cfgPath,
				Config:            cfg,
				IncludeFilesystem: true,
				IncludeConfig:     true,
				CheckSymlinks:     true,
			})
			if err != nil {
				return fmt.Errorf("audit: %w", err)
			}

			for _, f := range report.Findings {
				logger.Warn("security finding", "check_id", f.CheckID, "severity", f.Severity, "title", f.Title)
			}
			logger.Info("audit complete",
				"critical", report.Summary.Critical,
				"warn", report.Summary.Warn,
				"info", report.Summary.Info,
			)

			if repair {
				result := security.Fix(security.FixOptions{
					StateDir:   stateDir,
					ConfigPath: *cfgPath,
					DryRun:     false,
				})
				logger.Info("repair complete",
					"fixed", result.FixedCount,
					"skipped", result.SkippedCount,
					"errors", result.ErrorCount,
				)
			}

			if report.HasCritical() {
				return fmt.Errorf("audit found %d critical finding(s)", report.Summary.Critical)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", false, "apply automatic permission fixes after the audit")
	cmd.Flags().StringVar(&stateDir, "state-dir", "", "state directory to audit (defaults to ~/.aurora)")
	return cmd
}
