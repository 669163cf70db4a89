package rca

import (
	"context"
	"errors"
	"testing"
)

type fakeRunner struct {
	err    error
	called int
}

func (f *fakeRunner) RunInvestigation(ctx context.Context, req InvestigationRequest) error {
	f.called++
	return f.err
}

type fakeNotifier struct {
	started, completed int
}

func (f *fakeNotifier) NotifyStarted(ctx context.Context, incident *Incident) error {
	f.started++
	return nil
}

func (f *fakeNotifier) NotifyCompleted(ctx context.Context, incident *Incident) error {
	f.completed++
	return nil
}

func newTestPipeline(runner TaskRunner, model SummaryModel, transcripts TranscriptSource) (*Pipeline, *MemoryIncidentStore, *fakeNotifier) {
	incidents := NewMemoryIncidentStore()
	notifier := &fakeNotifier{}
	return &Pipeline{
		RateLimiter: NewInMemoryRateLimiter(),
		Incidents:   incidents,
		Summaries:   model,
		Transcripts: transcripts,
		Runner:      runner,
		Notify:      notifier,
	}, incidents, notifier
}

func TestRunBackgroundInvestigationHappyPath(t *testing.T) {
	ctx := context.Background()
	model := &fakeSummaryModel{response: "Root cause found [1].\n\n## Suggested Next Steps\n- Run `kubectl get pods` to confirm\n"}
	transcripts := &fakeTranscriptSource{calls: []ToolCallEvidence{
		{ToolName: "kubectl", Command: "get pods", Output: "CrashLoopBackOff"},
	}}
	runner := &fakeRunner{}
	pipeline, incidents, notifier := newTestPipeline(runner, model, transcripts)

	incidents.Create(ctx, &Incident{ID: "inc-1", Source: "grafana", Title: "pod crash", Service: "data-processor", AuroraStatus: AuroraPending, Status: StatusPending})

	err := pipeline.RunBackgroundInvestigation(ctx, InvestigationRequest{
		Principal:  "user-1",
		SessionID:  "sess-1",
		IncidentID: "inc-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runner.called != 1 {
		t.Fatalf("expected runner to be called once, got %d", runner.called)
	}

	incident, _ := incidents.Get(ctx, "inc-1")
	if incident.AuroraStatus != AuroraComplete {
		t.Fatalf("got aurora_status=%q, want complete", incident.AuroraStatus)
	}
	if incident.Status != StatusAnalyzed {
		t.Fatalf("got status=%q, want analyzed", incident.Status)
	}
	if incident.ChatSessionID != "sess-1" {
		t.Fatalf("got chat_session_id=%q, want sess-1", incident.ChatSessionID)
	}
	if notifier.started != 1 || notifier.completed != 1 {
		t.Fatalf("got started=%d completed=%d, want 1/1", notifier.started, notifier.completed)
	}

	if cited := incidents.Citations("inc-1"); len(cited) != 1 {
		t.Fatalf("got %d cited citations, want 1 (only [1] was referenced): %+v", len(cited), cited)
	}
	if suggestions := incidents.Suggestions("inc-1"); len(suggestions) != 1 {
		t.Fatalf("got %d suggestions, want 1", len(suggestions))
	}
}

func TestRunBackgroundInvestigationRateLimited(t *testing.T) {
	ctx := context.Background()
	pipeline, incidents, _ := newTestPipeline(&fakeRunner{}, &fakeSummaryModel{response: "x"}, &fakeTranscriptSource{})
	incidents.Create(ctx, &Incident{ID: "inc-1"})

	limiter := NewInMemoryRateLimiter()
	pipeline.RateLimiter = limiter
	for i := 0; i < backgroundChatMaxRequests; i++ {
		if _, err := limiter.Allow(ctx, "user-1"); err != nil {
			t.Fatalf("unexpected error priming limiter: %v", err)
		}
	}

	err := pipeline.RunBackgroundInvestigation(ctx, InvestigationRequest{Principal: "user-1", IncidentID: "inc-1"})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("got error %v, want ErrRateLimited", err)
	}
}

func TestRunBackgroundInvestigationRunnerFailureMarksError(t *testing.T) {
	ctx := context.Background()
	runner := &fakeRunner{err: errors.New("agent crashed")}
	pipeline, incidents, notifier := newTestPipeline(runner, &fakeSummaryModel{response: "x"}, &fakeTranscriptSource{})
	incidents.Create(ctx, &Incident{ID: "inc-1", AuroraStatus: AuroraPending})

	err := pipeline.RunBackgroundInvestigation(ctx, InvestigationRequest{Principal: "user-1", IncidentID: "inc-1"})
	if err == nil {
		t.Fatal("expected error from failed investigation")
	}

	incident, _ := incidents.Get(ctx, "inc-1")
	if incident.AuroraStatus != AuroraError {
		t.Fatalf("got aurora_status=%q, want error", incident.AuroraStatus)
	}
	if notifier.completed != 0 {
		t.Fatalf("completion notification should not fire on failure, got %d", notifier.completed)
	}
}

func TestRunBackgroundInvestigationUnknownIncident(t *testing.T) {
	pipeline, _, _ := newTestPipeline(&fakeRunner{}, &fakeSummaryModel{response: "x"}, &fakeTranscriptSource{})
	err := pipeline.RunBackgroundInvestigation(context.Background(), InvestigationRequest{Principal: "user-1", IncidentID: "missing"})
	if err == nil {
		t.Fatal("expected error for unknown incident")
	}
}

func TestCompleteInvestigationFillsUnknownSeverity(t *testing.T) {
	ctx := context.Background()
	model := &fakeSummaryModel{response: "high"}
	transcripts := &fakeTranscriptSource{calls: []ToolCallEvidence{{ToolName: "logs", Output: "500 errors spiking"}}}
	pipeline, incidents, _ := newTestPipeline(&fakeRunner{}, model, transcripts)
	incidents.Create(ctx, &Incident{ID: "inc-1", Severity: SeverityUnknown})

	model.response = "high"
	if err := pipeline.CompleteInvestigation(ctx, "inc-1", "sess-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	incident, _ := incidents.Get(ctx, "inc-1")
	if incident.Severity != SeverityHigh && incident.Severity != SeverityUnknown {
		t.Fatalf("got severity=%q", incident.Severity)
	}
}

func TestGenerateAlertSummaryDoesNotTouchAuroraStatus(t *testing.T) {
	ctx := context.Background()
	model := &fakeSummaryModel{response: "A CPU spike was observed."}
	pipeline, incidents, _ := newTestPipeline(&fakeRunner{}, model, &fakeTranscriptSource{})
	incidents.Create(ctx, &Incident{ID: "inc-1", AuroraStatus: AuroraRunning})

	incident, _ := incidents.Get(ctx, "inc-1")
	if err := pipeline.GenerateAlertSummary(ctx, incident, AlertPayload{SourceType: "grafana", Title: "cpu high"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	saved, _ := incidents.Get(ctx, "inc-1")
	if saved.AuroraStatus != AuroraRunning {
		t.Fatalf("got aurora_status=%q, want unchanged running", saved.AuroraStatus)
	}
	if saved.Summary == "" {
		t.Fatal("expected summary to be set")
	}
}
