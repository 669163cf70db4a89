package rca

import (
	"context"
	"testing"
	"time"
)

type fakeSessionStore struct {
	stale       []StaleSession
	failed      []string
	findErr     error
	markFailErr error
}

func (f *fakeSessionStore) FindStaleInProgress(ctx context.Context, olderThan time.Duration) ([]StaleSession, error) {
	return f.stale, f.findErr
}

func (f *fakeSessionStore) MarkFailed(ctx context.Context, sessionID string) error {
	if f.markFailErr != nil {
		return f.markFailErr
	}
	f.failed = append(f.failed, sessionID)
	return nil
}

func TestSweepMarksStaleSessionsFailed(t *testing.T) {
	sessions := &fakeSessionStore{stale: []StaleSession{
		{SessionID: "sess-1", Principal: "user-1"},
		{SessionID: "sess-2", Principal: "user-2"},
	}}
	incidents := NewMemoryIncidentStore()
	sweeper := NewSweeper(sessions, incidents, nil)

	result, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Cleaned != 2 {
		t.Fatalf("got cleaned=%d, want 2", result.Cleaned)
	}
	if len(sessions.failed) != 2 {
		t.Fatalf("got %d marked-failed sessions, want 2", len(sessions.failed))
	}
}

func TestSweepUpdatesLinkedIncidentToError(t *testing.T) {
	incidents := NewMemoryIncidentStore()
	incidents.Create(context.Background(), &Incident{ID: "inc-1", AuroraStatus: AuroraRunning, Status: StatusInvestigating})

	sessions := &fakeSessionStore{stale: []StaleSession{
		{SessionID: "sess-1", Principal: "user-1", IncidentID: "inc-1"},
	}}
	sweeper := NewSweeper(sessions, incidents, nil)

	if _, err := sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	incident, _ := incidents.Get(context.Background(), "inc-1")
	if incident.AuroraStatus != AuroraError {
		t.Fatalf("got aurora_status=%q, want error", incident.AuroraStatus)
	}
	if incident.Status != StatusAnalyzed {
		t.Fatalf("got status=%q, want analyzed", incident.Status)
	}
}

func TestSweepNoStaleSessionsIsNoop(t *testing.T) {
	sessions := &fakeSessionStore{}
	incidents := NewMemoryIncidentStore()
	sweeper := NewSweeper(sessions, incidents, nil)

	result, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Cleaned != 0 {
		t.Fatalf("got cleaned=%d, want 0", result.Cleaned)
	}
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	sweeper := NewSweeper(&fakeSessionStore{}, NewMemoryIncidentStore(), nil)
	if err := sweeper.Start("not a cron expression"); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestStartTwiceIsNoop(t *testing.T) {
	sweeper := NewSweeper(&fakeSessionStore{}, NewMemoryIncidentStore(), nil)
	if err := sweeper.Start("*/5 * * * *"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sweeper.Start("*/5 * * * *"); err != nil {
		t.Fatalf("unexpected error on second start: %v", err)
	}
	sweeper.Stop()
}
