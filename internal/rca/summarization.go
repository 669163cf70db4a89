package rca

import (
	"context"
	"fmt"
	"strings"
)

// SummaryModel is the narrow LLM port summarisation calls through —
// one deterministic-ish completion per prompt, no tool use. The actual
// provider client is an external collaborator (Non-goal: LLM provider
// APIs).
type SummaryModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// AlertPayload carries the fields the pre-RCA, alert-only summary is
// built from.
type AlertPayload struct {
	SourceType string // "grafana", "netdata", "datadog", "pagerduty"
	Title      string
	Severity   string
	Service    string
	Metadata   map[string]string
}

// BuildAlertSummaryPrompt renders the one-shot, pre-RCA prompt: a
// neutral 2-3 paragraph rewrite of the raw alert, no advice, no
// audience address.
func BuildAlertSummaryPrompt(alert AlertPayload) string {
	var details []string
	for _, key := range alertMetadataOrder(alert.SourceType) {
		if v, ok := alert.Metadata[key]; ok && v != "" {
			details = append(details, fmt.Sprintf("%s: %s", capitalize(key), v))
		}
	}
	detailsText := "No additional details"
	if len(details) > 0 {
		lines := make([]string, len(details))
		for i, d := range details {
			lines[i] = "- " + d
		}
		detailsText = strings.Join(lines, "\n")
	}

	return fmt.Sprintf(`You are rewriting an alert into a neutral incident summary.

ALERT INFORMATION:
- Source: %s
- Title: %s
- Severity: %s
- Service: %s

KEY DETAILS:
%s

Write a concise 2-3 paragraph summary that:
- Describes what triggered the alert
- States the severity and observed impact (if explicitly present)
- Identifies the affected service or component
- States when the alert was triggered
- Includes only factual context present in the alert

STRICT RULES:
- Do NOT address any audience (do not mention SREs, engineers, teams)
- Do NOT give advice, recommendations, or next steps
- Do NOT explain what someone should do or be aware of
- Do NOT add conclusions such as "no action is required"
- Do NOT speculate beyond the alert content

Tone: neutral, factual, incident-record style
Style: descriptive, not advisory
`, alert.SourceType, alert.Title, alert.Severity, alert.Service, detailsText)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// alertMetadataOrder mirrors the per-source field ordering the
// original summary builder used, so the same alert always renders
// the same prompt.
func alertMetadataOrder(sourceType string) []string {
	switch sourceType {
	case "grafana":
		return []string{"summary", "description", "labels"}
	case "netdata":
		return []string{"chart", "value", "hostname"}
	case "datadog":
		return []string{"message", "hostname", "metric"}
	case "pagerduty":
		return []string{"incidentId", "urgency", "priority", "description", "incidentUrl"}
	default:
		return nil
	}
}

// ChatSummaryRequest carries the fields the post-RCA incident report
// is built from, in addition to either citations or a raw transcript
// fallback.
type ChatSummaryRequest struct {
	SourceType  string
	Title       string
	Severity    string
	Service     string
	TriggeredAt string // empty when unknown

	Citations  []Citation // preferred: evidence-indexed prompt with [n] markers
	Transcript string     // fallback when Citations is empty
}

// BuildChatSummaryPrompt renders the post-RCA prompt. When citations
// are present it asks for a citation-anchored incident report;
// otherwise it falls back to summarising the raw chat transcript.
func BuildChatSummaryPrompt(req ChatSummaryRequest) string {
	triggeredLine := ""
	if req.TriggeredAt != "" {
		triggeredLine = "- Triggered at: " + req.TriggeredAt
	}

	if len(req.Citations) > 0 {
		evidence := BuildEvidenceText(req.Citations)
		return fmt.Sprintf(`You are writing an incident report based on alert data and forensic evidence.

ALERT INFORMATION:
- Source: %s
- Title: %s
- Severity: %s
- Service: %s
%s

INVESTIGATION EVIDENCE (cite using [n] markers):
%s

Write a 2-3 paragraph incident report:

PARAGRAPH 1 - What Happened:
State what occurred, when it occurred, and what was affected. Write as if you're reporting a known fact, not describing an investigation.

PARAGRAPH 2 - Root Cause:
Directly state the root cause and explain the causal chain. Use evidence to support claims.

PARAGRAPH 3 (if significant) - Impact & Timeline:
Describe the scope of impact and any relevant timeline details.

CITATION RULES:
- Cite specific evidence that supports factual claims
- Group related citations together [3, 5, 7]
- Don't cite every detail - only key supporting evidence
- Never describe the investigation process or tools used
- Never say "Investigation revealed..." or "Attempts to..." - just state what happened

CRITICAL - DO NOT:
- Describe investigation steps or what tools were run
- Focus on tool failures or unavailable data
- Write about the RCA process itself

CRITICAL - DO:
- Write as if reporting a completed incident with known facts
- State the root cause directly in the first or second paragraph
- Focus on WHAT HAPPENED to the system, not HOW YOU FOUND OUT

TONE: Professional, factual, incident-record style

After the summary, add a separate paragraph titled "## Suggested Next Steps" that:
- Lists 2-4 specific areas to investigate further based on the findings
- References specific metrics, logs, or infrastructure components mentioned in the investigation
`, req.SourceType, req.Title, req.Severity, req.Service, triggeredLine, evidence)
	}

	transcript := req.Transcript
	if transcript == "" {
		transcript = "[No transcript available]"
	}
	return fmt.Sprintf(`You are rewriting an alert plus the subsequent investigation transcript into a neutral incident summary.

ALERT INFORMATION:
- Source: %s
- Title: %s
- Severity: %s
- Service: %s
%s

INVESTIGATION TRANSCRIPT (chat log):
%s

Write a concise 2-3 paragraph summary that:
- Describes what triggered the alert
- States the severity and observed impact (if explicitly present)
- Identifies the affected service or component
- Summarizes investigation findings and best-known root cause (only if explicitly stated)
- If root cause is not explicit, state what is known and what is still uncertain

SUMMARY RULES:
- Do NOT address any audience in the summary paragraphs
- Tone: neutral, factual, incident-record style
- Style: descriptive, not advisory

After the summary, add a separate paragraph titled "## Suggested Next Steps" that:
- Lists 2-4 specific areas to investigate further based on the findings
- References specific metrics, logs, or infrastructure components mentioned in the investigation
`, req.SourceType, req.Title, req.Severity, req.Service, triggeredLine, transcript)
}

// GenerateAlertSummary runs the pre-RCA, alert-only summarisation: one
// LLM call over the raw trigger payload, no tool evidence involved.
func GenerateAlertSummary(ctx context.Context, model SummaryModel, alert AlertPayload) (string, error) {
	prompt := BuildAlertSummaryPrompt(alert)
	summary, err := model.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("rca: alert summary: %w", err)
	}
	if strings.TrimSpace(summary) == "" {
		return "No summary generated", nil
	}
	return summary, nil
}

// PostRCAResult is the outcome of GeneratePostRCASummary: the summary
// text plus the citation subset that P9 permits persisting.
type PostRCAResult struct {
	Summary        string
	CitedCitations []Citation
}

// GeneratePostRCASummary runs the post-RCA flavour: build an
// evidence-indexed prompt from citations (falling back to a raw
// transcript when there are none), invoke the model, then re-parse
// the `[n]` markers out of the result and keep only the cited subset
// (P9) before the caller persists anything.
func GeneratePostRCASummary(ctx context.Context, model SummaryModel, req ChatSummaryRequest) (PostRCAResult, error) {
	prompt := BuildChatSummaryPrompt(req)
	summary, err := model.Complete(ctx, prompt)
	if err != nil {
		return PostRCAResult{}, fmt.Errorf("rca: post-rca summary: %w", err)
	}
	if strings.TrimSpace(summary) == "" {
		summary = "No summary generated"
	}

	var cited []Citation
	if len(req.Citations) > 0 {
		cited = FilterCited(req.Citations, summary)
	}
	return PostRCAResult{Summary: summary, CitedCitations: cited}, nil
}
