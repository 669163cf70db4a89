package rca

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// staleSessionThreshold matches the original cleanup job: a session
// stuck "in_progress" for more than 20 minutes is considered
// abandoned.
const staleSessionThreshold = 20 * time.Minute

// StaleSession is one session the sweep found stuck in_progress past
// staleSessionThreshold.
type StaleSession struct {
	SessionID  string
	Principal  string
	IncidentID string // empty when the session isn't linked to an incident
}

// SessionStore is the narrow sweep port: find sessions stuck
// in_progress, and mark one failed. The chat persistence schema
// itself is an external collaborator (spec Non-goal).
type SessionStore interface {
	FindStaleInProgress(ctx context.Context, olderThan time.Duration) ([]StaleSession, error)
	MarkFailed(ctx context.Context, sessionID string) error
}

// SweepResult summarises one sweep pass.
type SweepResult struct {
	Cleaned    int
	SessionIDs []string
}

// Sweeper periodically finds background chat sessions abandoned
// mid-investigation, marks them failed, and flips their linked
// incident to aurora_status=error so it never gets stuck "running"
// forever.
type Sweeper struct {
	sessions  SessionStore
	incidents IncidentStore
	logger    *slog.Logger

	cron *cron.Cron

	mu      sync.Mutex
	started bool
}

// NewSweeper constructs a Sweeper. logger may be nil, in which case
// slog.Default() is used.
func NewSweeper(sessions SessionStore, incidents IncidentStore, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{sessions: sessions, incidents: incidents, logger: logger}
}

// Start registers the sweep as a recurring cron job (standard 5-field
// cron expression, e.g. "*/5 * * * *" to run every five minutes) and
// starts the scheduler goroutine. Calling Start twice is a no-op.
func (s *Sweeper) Start(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			s.logger.Error("rca: stale session sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("rca: invalid sweep schedule %q: %w", schedule, err)
	}

	c.Start()
	s.cron = c
	s.started = true
	return nil
}

// Stop halts the scheduler, waiting for any in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	<-s.cron.Stop().Done()
	s.started = false
}

// Sweep runs one sweep pass directly, independent of the cron
// schedule — used by the CLI's `rca sweep` subcommand and by tests.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	stale, err := s.sessions.FindStaleInProgress(ctx, staleSessionThreshold)
	if err != nil {
		return SweepResult{}, fmt.Errorf("rca: find stale sessions: %w", err)
	}
	if len(stale) == 0 {
		return SweepResult{}, nil
	}

	result := SweepResult{SessionIDs: make([]string, 0, len(stale))}
	for _, session := range stale {
		if err := s.sessions.MarkFailed(ctx, session.SessionID); err != nil {
			s.logger.Error("rca: failed to mark session failed", "session_id", session.SessionID, "error", err)
			continue
		}
		if session.IncidentID != "" {
			if incident, getErr := s.incidents.Get(ctx, session.IncidentID); getErr == nil && incident != nil {
				incident.AuroraStatus = AuroraError
				incident.Status = StatusAnalyzed
				incident.UpdatedAt = time.Now()
				if updErr := s.incidents.Update(ctx, incident); updErr != nil {
					s.logger.Error("rca: failed to update incident after stale sweep", "incident_id", session.IncidentID, "error", updErr)
				}
			}
		}
		result.Cleaned++
		result.SessionIDs = append(result.SessionIDs, session.SessionID)
	}
	s.logger.Info("rca: stale session sweep complete", "cleaned", result.Cleaned)
	return result, nil
}
