package rca

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrRateLimited is returned when a principal has exceeded their
// background-investigation budget for the current window.
var ErrRateLimited = errors.New("rca: rate limited")

// InvestigationRequest is handed to the TaskRunner to execute the
// actual background agent turn — the same tool-execution engine used
// for interactive chats, minus the live socket.
type InvestigationRequest struct {
	Principal          string
	SessionID          string
	IncidentID         string
	InitialMessage     string
	TriggerMetadata    map[string]string
	ProviderPreference []string
}

// TaskRunner executes a background investigation turn. This is the
// external port into the interactive tool-execution engine
// (internal/agent): rca only owns incident lifecycle, summarisation,
// and notification, not tool dispatch itself.
type TaskRunner interface {
	RunInvestigation(ctx context.Context, req InvestigationRequest) error
}

// Notifier dispatches investigation-started/completed notifications.
// Concrete email/Slack clients are external collaborators; rca only
// decides when to call this port.
type Notifier interface {
	NotifyStarted(ctx context.Context, incident *Incident) error
	NotifyCompleted(ctx context.Context, incident *Incident) error
}

// Pipeline wires together everything the Background RCA Pipeline
// needs: rate limiting, incident persistence, session bookkeeping,
// summarisation, citation extraction, severity classification, the
// actual agent run, and completion notifications.
type Pipeline struct {
	RateLimiter RateLimiter
	Incidents   IncidentStore
	Summaries   SummaryModel
	Transcripts TranscriptSource
	Runner      TaskRunner
	Notify      Notifier
	Logger      *slog.Logger
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// GenerateAlertSummary runs the pre-RCA, one-shot alert summary and
// attaches it to the incident without touching aurora_status — this
// mirrors the original's "preserve current aurora_status" rule so a
// quick alert summary never races ahead of a running investigation.
func (p *Pipeline) GenerateAlertSummary(ctx context.Context, incident *Incident, alert AlertPayload) error {
	summary, err := GenerateAlertSummary(ctx, p.Summaries, alert)
	if err != nil {
		return err
	}
	incident.Summary = summary
	incident.UpdatedAt = time.Now()
	return p.Incidents.Update(ctx, incident)
}

// RunBackgroundInvestigation links sessionID to incidentID, flips the
// incident to running, invokes the TaskRunner to execute the actual
// agent turn, and on success proceeds straight to completion
// (severity classification, post-RCA summary, suggestions,
// notification). The rate limiter is consulted first so an alert
// flood cannot spawn unbounded investigations for one principal.
func (p *Pipeline) RunBackgroundInvestigation(ctx context.Context, req InvestigationRequest) error {
	if p.RateLimiter != nil {
		allowed, err := p.RateLimiter.Allow(ctx, req.Principal)
		if err != nil {
			return fmt.Errorf("rca: rate limit check: %w", err)
		}
		if !allowed {
			return ErrRateLimited
		}
	}

	incident, err := p.Incidents.Get(ctx, req.IncidentID)
	if err != nil {
		return fmt.Errorf("rca: load incident: %w", err)
	}
	if incident == nil {
		return fmt.Errorf("rca: incident %q not found", req.IncidentID)
	}

	incident.ChatSessionID = req.SessionID
	incident.AuroraStatus = AuroraRunning
	incident.UpdatedAt = time.Now()
	if err := p.Incidents.Update(ctx, incident); err != nil {
		return fmt.Errorf("rca: mark incident running: %w", err)
	}

	if p.Notify != nil {
		if err := p.Notify.NotifyStarted(ctx, incident); err != nil {
			p.logger().Error("rca: failed to send investigation-started notification", "incident_id", incident.ID, "error", err)
		}
	}

	if err := p.Runner.RunInvestigation(ctx, req); err != nil {
		incident.AuroraStatus = AuroraError
		incident.UpdatedAt = time.Now()
		if updErr := p.Incidents.Update(ctx, incident); updErr != nil {
			p.logger().Error("rca: failed to mark incident errored", "incident_id", incident.ID, "error", updErr)
		}
		return fmt.Errorf("rca: background investigation: %w", err)
	}

	incident.Status = StatusAnalyzed
	incident.UpdatedAt = time.Now()
	if err := p.Incidents.Update(ctx, incident); err != nil {
		return fmt.Errorf("rca: mark incident analyzed: %w", err)
	}

	return p.CompleteInvestigation(ctx, incident.ID, req.SessionID)
}

// CompleteInvestigation runs everything that happens once the agent
// turn itself has finished: severity classification (only if still
// unknown), post-RCA summary regeneration with citations, suggestion
// extraction, and the completion notification. It sets
// aurora_status=complete on success, error on failure.
func (p *Pipeline) CompleteInvestigation(ctx context.Context, incidentID, sessionID string) error {
	incident, err := p.Incidents.Get(ctx, incidentID)
	if err != nil {
		return fmt.Errorf("rca: load incident: %w", err)
	}
	if incident == nil {
		return fmt.Errorf("rca: incident %q not found", incidentID)
	}

	if incident.Severity == "" || incident.Severity == SeverityUnknown {
		if severity, sevErr := p.determineSeverity(ctx, sessionID); sevErr == nil && severity != SeverityUnknown {
			incident.Severity = severity
		} else if sevErr != nil {
			p.logger().Error("rca: severity determination failed", "incident_id", incidentID, "error", sevErr)
		}
	}

	citations, citeErr := ExtractCitations(ctx, p.Transcripts, sessionID)
	if citeErr != nil {
		p.logger().Error("rca: citation extraction failed", "incident_id", incidentID, "error", citeErr)
	}

	result, err := GeneratePostRCASummary(ctx, p.Summaries, ChatSummaryRequest{
		SourceType: incident.Source,
		Title:      incident.Title,
		Severity:   string(incident.Severity),
		Service:    incident.Service,
		Citations:  citations,
	})
	if err != nil {
		incident.AuroraStatus = AuroraError
		incident.UpdatedAt = time.Now()
		p.Incidents.Update(ctx, incident)
		return fmt.Errorf("rca: post-rca summary: %w", err)
	}

	incident.Summary = result.Summary
	incident.AuroraStatus = AuroraComplete
	if incident.AnalyzedAt.IsZero() {
		incident.AnalyzedAt = time.Now()
	}
	incident.UpdatedAt = time.Now()
	if err := p.Incidents.Update(ctx, incident); err != nil {
		return fmt.Errorf("rca: save completed incident: %w", err)
	}

	if len(result.CitedCitations) > 0 {
		if err := p.Incidents.SaveCitations(ctx, incidentID, result.CitedCitations); err != nil {
			p.logger().Error("rca: failed to save citations", "incident_id", incidentID, "error", err)
		}
	}

	if suggestions := ExtractSuggestions(incidentID, result.Summary, incident.Service); len(suggestions) > 0 {
		if err := p.Incidents.SaveSuggestions(ctx, incidentID, suggestions); err != nil {
			p.logger().Error("rca: failed to save suggestions", "incident_id", incidentID, "error", err)
		}
	}

	if p.Notify != nil {
		if err := p.Notify.NotifyCompleted(ctx, incident); err != nil {
			p.logger().Error("rca: failed to send investigation-completed notification", "incident_id", incidentID, "error", err)
		}
	}

	return nil
}

func (p *Pipeline) determineSeverity(ctx context.Context, sessionID string) (Severity, error) {
	calls, err := p.Transcripts.ToolCalls(ctx, sessionID)
	if err != nil {
		return SeverityUnknown, err
	}
	entries := make([]TranscriptEntry, 0, len(calls))
	for _, c := range calls {
		entries = append(entries, TranscriptEntry{Sender: c.ToolName, Text: c.Output})
	}
	return DetermineSeverity(ctx, p.Summaries, entries)
}
