package rca

import (
	"context"
	"strings"
	"testing"
)

type fakeSummaryModel struct {
	response string
	err      error
	lastCall string
}

func (f *fakeSummaryModel) Complete(ctx context.Context, prompt string) (string, error) {
	f.lastCall = prompt
	return f.response, f.err
}

func TestBuildAlertSummaryPromptIncludesKeyDetails(t *testing.T) {
	alert := AlertPayload{
		SourceType: "grafana",
		Title:      "High memory usage",
		Severity:   "warning",
		Service:    "data-processor",
		Metadata:   map[string]string{"summary": "Memory at 95%", "description": "OOMKilled risk"},
	}
	prompt := BuildAlertSummaryPrompt(alert)
	if !strings.Contains(prompt, "Memory at 95%") || !strings.Contains(prompt, "OOMKilled risk") {
		t.Fatalf("expected prompt to include alert metadata: %s", prompt)
	}
	if !strings.Contains(prompt, "Do NOT give advice") {
		t.Fatal("expected strict no-advice rule to be present")
	}
}

func TestBuildAlertSummaryPromptNoDetailsFallsBack(t *testing.T) {
	alert := AlertPayload{SourceType: "netdata", Title: "CPU spike", Severity: "critical", Service: "api"}
	prompt := BuildAlertSummaryPrompt(alert)
	if !strings.Contains(prompt, "No additional details") {
		t.Fatalf("expected fallback details text: %s", prompt)
	}
}

func TestBuildChatSummaryPromptUsesCitationsWhenPresent(t *testing.T) {
	req := ChatSummaryRequest{
		SourceType: "grafana",
		Title:      "OOMKilled",
		Severity:   "high",
		Service:    "data-processor",
		Citations:  []Citation{{Index: 1, ToolName: "cloud_exec", Command: "kubectl logs", Output: "OOMKilled"}},
	}
	prompt := BuildChatSummaryPrompt(req)
	if !strings.Contains(prompt, "INVESTIGATION EVIDENCE") {
		t.Fatalf("expected citation-based prompt: %s", prompt)
	}
	if !strings.Contains(prompt, "[1] cloud_exec") {
		t.Fatalf("expected evidence block to include citation 1: %s", prompt)
	}
}

func TestBuildChatSummaryPromptFallsBackToTranscript(t *testing.T) {
	req := ChatSummaryRequest{
		SourceType: "grafana",
		Title:      "OOMKilled",
		Severity:   "high",
		Service:    "data-processor",
		Transcript: "User: investigate\nAurora: found the cause",
	}
	prompt := BuildChatSummaryPrompt(req)
	if !strings.Contains(prompt, "INVESTIGATION TRANSCRIPT") {
		t.Fatalf("expected transcript-based prompt: %s", prompt)
	}
	if strings.Contains(prompt, "INVESTIGATION EVIDENCE") {
		t.Fatal("did not expect citation block when no citations supplied")
	}
}

func TestGenerateAlertSummaryReturnsFallbackOnEmptyResponse(t *testing.T) {
	model := &fakeSummaryModel{response: "   "}
	summary, err := GenerateAlertSummary(context.Background(), model, AlertPayload{SourceType: "grafana", Title: "t"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary != "No summary generated" {
		t.Fatalf("got %q", summary)
	}
}

func TestGeneratePostRCASummaryFiltersToCitedOnly(t *testing.T) {
	model := &fakeSummaryModel{response: "Root cause found [1]."}
	req := ChatSummaryRequest{
		SourceType: "grafana",
		Citations: []Citation{
			{Index: 1, ToolName: "cloud_exec"},
			{Index: 2, ToolName: "splunk_search"},
		},
	}
	result, err := GeneratePostRCASummary(context.Background(), model, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.CitedCitations) != 1 || result.CitedCitations[0].Index != 1 {
		t.Fatalf("got %+v", result.CitedCitations)
	}
}

func TestGeneratePostRCASummaryPropagatesModelError(t *testing.T) {
	model := &fakeSummaryModel{err: errTestModel}
	_, err := GeneratePostRCASummary(context.Background(), model, ChatSummaryRequest{})
	if err == nil {
		t.Fatal("expected error to propagate")
	}
}

var errTestModel = &modelError{"model unavailable"}

type modelError struct{ msg string }

func (e *modelError) Error() string { return e.msg }
