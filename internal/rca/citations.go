package rca

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// Citation is (index, tool-name, command, output-excerpt) extracted
// from an RCA transcript; indices are referenced by `[n]` markers in
// the final summary.
type Citation struct {
	Index    int
	ToolName string
	Command  string
	Output   string
}

// ToolCallEvidence is one completed tool invocation as recorded by the
// owning session's Tool Capture. rca never reads the capture directly
// — the session exclusively owns it — it only consumes this narrow
// projection through TranscriptSource.
type ToolCallEvidence struct {
	ToolName string
	Command  string
	Output   string
}

// TranscriptSource is the external port rca uses to read a finished
// session's tool-call evidence for citation extraction.
type TranscriptSource interface {
	ToolCalls(ctx context.Context, sessionID string) ([]ToolCallEvidence, error)
}

const maxCitationEvidence = 30 // only the most recent citations go in the prompt
const citationOutputPreviewLen = 500

// ExtractCitations turns a session's tool-call evidence into an
// indexed citation list, 1-indexed in call order, ready for embedding
// into an evidence-anchored summary prompt.
func ExtractCitations(ctx context.Context, src TranscriptSource, sessionID string) ([]Citation, error) {
	calls, err := src.ToolCalls(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	citations := make([]Citation, 0, len(calls))
	for i, call := range calls {
		citations = append(citations, Citation{
			Index:    i + 1,
			ToolName: call.ToolName,
			Command:  call.Command,
			Output:   call.Output,
		})
	}
	return citations, nil
}

// BuildEvidenceText renders the last maxCitationEvidence citations as
// the "[n] tool - command\n    Output: ..." block the summary prompt
// asks the model to cite against.
func BuildEvidenceText(citations []Citation) string {
	recent := citations
	if len(recent) > maxCitationEvidence {
		recent = recent[len(recent)-maxCitationEvidence:]
	}

	lines := make([]string, 0, len(recent))
	for _, c := range recent {
		toolName := c.ToolName
		if toolName == "" {
			toolName = "Unknown"
		}
		command := c.Command
		if command == "" {
			command = "N/A"
		}
		preview := c.Output
		if len(preview) > citationOutputPreviewLen {
			preview = preview[:citationOutputPreviewLen] + "..."
		}
		preview = strings.TrimSpace(strings.ReplaceAll(preview, "\n", " "))
		lines = append(lines, "["+strconv.Itoa(c.Index)+"] "+toolName+" - "+command+"\n    Output: "+preview)
	}
	return strings.Join(lines, "\n\n")
}

var citationBlockPattern = regexp.MustCompile(`\[(\d+(?:,\s*\d+)*)\]`)
var citationDigitsPattern = regexp.MustCompile(`\d+`)

// ParseCitedIndices extracts every index referenced by a `[n]` or
// `[n, m, ...]` marker in summary, deduplicated.
func ParseCitedIndices(summary string) map[int]bool {
	used := make(map[int]bool)
	for _, block := range citationBlockPattern.FindAllStringSubmatch(summary, -1) {
		for _, digits := range citationDigitsPattern.FindAllString(block[1], -1) {
			n, err := strconv.Atoi(digits)
			if err == nil {
				used[n] = true
			}
		}
	}
	return used
}

// FilterCited keeps only the citations whose index is actually
// referenced in summary — invariant P9: only cited citations are ever
// persisted.
func FilterCited(citations []Citation, summary string) []Citation {
	used := ParseCitedIndices(summary)
	if len(used) == 0 {
		return nil
	}
	kept := make([]Citation, 0, len(used))
	for _, c := range citations {
		if used[c.Index] {
			kept = append(kept, c)
		}
	}
	return kept
}
