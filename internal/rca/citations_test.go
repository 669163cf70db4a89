package rca

import (
	"context"
	"strings"
	"testing"
)

type fakeTranscriptSource struct {
	calls []ToolCallEvidence
	err   error
}

func (f *fakeTranscriptSource) ToolCalls(ctx context.Context, sessionID string) ([]ToolCallEvidence, error) {
	return f.calls, f.err
}

func TestExtractCitationsIndexesInOrder(t *testing.T) {
	src := &fakeTranscriptSource{calls: []ToolCallEvidence{
		{ToolName: "cloud_exec", Command: "gcloud compute instances list", Output: "ok"},
		{ToolName: "splunk_search", Command: "index=prod error", Output: "5 hits"},
	}}
	citations, err := ExtractCitations(context.Background(), src, "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(citations) != 2 || citations[0].Index != 1 || citations[1].Index != 2 {
		t.Fatalf("got %+v", citations)
	}
}

func TestBuildEvidenceTextTruncatesLongOutput(t *testing.T) {
	longOutput := strings.Repeat("x", 600)
	citations := []Citation{{Index: 1, ToolName: "cloud_exec", Command: "cmd", Output: longOutput}}
	text := BuildEvidenceText(citations)
	if !strings.Contains(text, "...") {
		t.Fatalf("expected truncated output to contain ellipsis: %q", text)
	}
	if strings.Contains(text, strings.Repeat("x", 600)) {
		t.Fatal("expected output to be truncated, found full string")
	}
}

func TestBuildEvidenceTextKeepsOnlyLastNCitations(t *testing.T) {
	citations := make([]Citation, 0, 40)
	for i := 1; i <= 40; i++ {
		citations = append(citations, Citation{Index: i, ToolName: "t", Command: "c", Output: "o"})
	}
	text := BuildEvidenceText(citations)
	if strings.Contains(text, "[1] ") {
		t.Fatal("expected earliest citations to be dropped from the evidence block")
	}
	if !strings.Contains(text, "[40] ") {
		t.Fatal("expected the most recent citation to be present")
	}
}

func TestParseCitedIndicesHandlesSingleAndGrouped(t *testing.T) {
	summary := "Root cause was a config change [3, 5] leading to OOM [9]."
	used := ParseCitedIndices(summary)
	for _, n := range []int{3, 5, 9} {
		if !used[n] {
			t.Fatalf("expected index %d to be parsed from %q", n, summary)
		}
	}
	if len(used) != 3 {
		t.Fatalf("got %d indices, want 3: %v", len(used), used)
	}
}

func TestFilterCitedKeepsOnlyReferencedCitations(t *testing.T) {
	citations := []Citation{
		{Index: 1, ToolName: "a"},
		{Index: 2, ToolName: "b"},
		{Index: 3, ToolName: "c"},
	}
	summary := "The cause was X [1, 3]."
	kept := FilterCited(citations, summary)
	if len(kept) != 2 {
		t.Fatalf("got %d citations, want 2: %+v", len(kept), kept)
	}
	for _, c := range kept {
		if c.Index == 2 {
			t.Fatal("citation 2 was not cited and must not be persisted")
		}
	}
}

func TestFilterCitedReturnsNilWhenNoMarkersPresent(t *testing.T) {
	citations := []Citation{{Index: 1, ToolName: "a"}}
	if got := FilterCited(citations, "No citations here."); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}
