package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Arvo-AI/aurora/internal/config"
	"github.com/Arvo-AI/aurora/internal/rca"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// newServeCmd starts the background surface: the health/metrics HTTP
// server and the RCA stale-session sweeper. The interactive turn loop
// is a library the transport process embeds directly; it is not
// started here.
func newServeCmd(logger *slog.Logger, cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the background RCA sweeper and health/metrics endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return runServe(cmd.Context(), logger, cfg)
		},
	}
	return cmd
}

// noopSessionStore is a placeholder rca.SessionStore: chat session
// persistence is owned by the transport process (spec Non-goal), so
// this binary's sweeper finds nothing to clean up until the transport
// wires its own store in.
type noopSessionStore struct{}

func (noopSessionStore) FindStaleInProgress(ctx context.Context, olderThan time.Duration) ([]rca.StaleSession, error) {
	return nil, nil
}

func (noopSessionStore) MarkFailed(ctx context.Context, sessionID string) error {
	return nil
}

func runServe(ctx context.Context, logger *slog.Logger, cfg *config.Config) error {
	incidents := rca.NewMemoryIncidentStore()

	sweeper := rca.NewSweeper(noopSessionStore{}, incidents, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.MetricsPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("health/metrics server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	if cfg.RCA.SweepSchedule != "" {
		if err := sweeper.Start(cfg.RCA.SweepSchedule); err != nil {
			return fmt.Errorf("start sweeper: %w", err)
		}
		defer sweeper.Stop()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}
