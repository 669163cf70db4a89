package rca

import (
	"regexp"
	"strings"
)

// nextStepsHeading marks the start of the "## Suggested Next Steps"
// section a post-RCA summary prompt always asks the model to append.
var nextStepsHeading = regexp.MustCompile(`(?i)^#+\s*suggested next steps\s*$`)

// bulletLine matches one markdown list item ("- ..." or "* ...").
var bulletLine = regexp.MustCompile(`^[-*]\s+(.*)$`)

// commandBacktick pulls an inline code span out of a bullet, used to
// decide whether a suggestion is a runnable command or a narrative
// fix.
var commandBacktick = regexp.MustCompile("`([^`]+)`")

// ExtractSuggestions parses the "## Suggested Next Steps" section a
// post-RCA summary produces into structured Suggestion records: one
// per bullet, classified as a command suggestion when the bullet
// contains a backtick-quoted command, otherwise as a fix suggestion.
func ExtractSuggestions(incidentID, summary, service string) []Suggestion {
	lines := strings.Split(summary, "\n")
	start := -1
	for i, line := range lines {
		if nextStepsHeading.MatchString(strings.TrimSpace(line)) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil
	}

	var suggestions []Suggestion
	for _, line := range lines[start:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		match := bulletLine.FindStringSubmatch(trimmed)
		if match == nil {
			continue
		}
		text := strings.TrimSpace(match[1])
		if text == "" {
			continue
		}

		suggestion := Suggestion{
			IncidentID:  incidentID,
			Description: text,
			Risk:        "unknown",
		}
		if cmd := commandBacktick.FindStringSubmatch(text); cmd != nil {
			suggestion.Type = SuggestionCommand
			suggestion.Command = cmd[1]
			suggestion.Title = firstSentence(text)
		} else {
			suggestion.Type = SuggestionFix
			suggestion.Title = firstSentence(text)
		}
		suggestions = append(suggestions, suggestion)
	}
	return suggestions
}

func firstSentence(s string) string {
	if idx := strings.IndexAny(s, ".:"); idx > 0 {
		return strings.TrimSpace(s[:idx])
	}
	if len(s) > 80 {
		return strings.TrimSpace(s[:80])
	}
	return s
}
