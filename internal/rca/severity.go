package rca

import (
	"context"
	"fmt"
	"strings"
)

// Severity is the closed set of incident severities the classifier
// must resolve to.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityUnknown  Severity = "unknown"
)

const severityTranscriptEntryLimit = 10
const severityTranscriptCharLimit = 200

// TranscriptEntry is one rendered line ("sender: text") consumed by
// severity classification.
type TranscriptEntry struct {
	Sender string
	Text   string
}

func buildSeverityPrompt(entries []TranscriptEntry) string {
	if len(entries) > severityTranscriptEntryLimit {
		entries = entries[:severityTranscriptEntryLimit]
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		text := e.Text
		if len(text) > severityTranscriptCharLimit {
			text = text[:severityTranscriptCharLimit]
		}
		sender := e.Sender
		if sender == "" {
			sender = "unknown"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", sender, text))
	}
	transcript := strings.Join(lines, "\n")

	return fmt.Sprintf(`You are assessing the operational severity of an incident based on its investigation.

Severity levels:
- critical: Production outage, service unavailable, data loss, or security breach affecting customers
- high: Degraded service performance, partial outage, or significant impact to user experience
- medium: Performance issues, minor degradation, or non-customer-facing problems
- low: Informational alerts, monitoring tests, or no actual operational impact detected

Assess based ONLY on actual operational impact found during investigation, not alert keywords or titles.

Investigation transcript:
%s

Respond with ONLY ONE WORD: critical, high, medium, or low`, transcript)
}

// DetermineSeverity makes a single deterministic LLM call over the
// first N transcript entries and maps the response into the closed
// severity set, returning SeverityUnknown if the model's answer
// cannot be parsed into one of the four levels.
func DetermineSeverity(ctx context.Context, model SummaryModel, entries []TranscriptEntry) (Severity, error) {
	prompt := buildSeverityPrompt(entries)
	response, err := model.Complete(ctx, prompt)
	if err != nil {
		return SeverityUnknown, fmt.Errorf("rca: severity classification: %w", err)
	}
	return parseSeverity(response), nil
}

func parseSeverity(response string) Severity {
	lower := strings.ToLower(strings.TrimSpace(response))
	for _, level := range []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow} {
		if strings.Contains(lower, string(level)) {
			return level
		}
	}
	return SeverityUnknown
}
