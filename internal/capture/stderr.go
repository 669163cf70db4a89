package capture

import (
	"regexp"
	"strings"
)

// errorPatterns are tried in order against stderr text that contains
// OVH's debug-JSON preamble, to extract the real error message past
// the "final parameters:" block.
var errorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)failed to [^:]+: (.+)`),
	regexp.MustCompile(`(?is)error[:\s]+(.+)`),
	regexp.MustCompile(`(?im)^([A-Z][^{}\n]*(?:not found|denied|failed|invalid|missing)[^{}\n]*)`),
}

// extractOVHError finds the real error message after OVH CLI's
// debug-JSON preamble, or returns "" if none of the known patterns
// match.
func extractOVHError(stderrText string) string {
	for _, pattern := range errorPatterns {
		if match := pattern.FindStringSubmatch(stderrText); match != nil {
			return strings.TrimSpace(match[0])
		}
	}
	return ""
}

// DetectErrorInStderr decides whether stderr output represents a real
// error even when the command's exit code was 0, per spec's
// stderr-soft-error classification. It only flags an error on
// explicit "error:"/"fatal:" tokens, with a special case for OVH
// CLI's debug-JSON preamble: the preamble alone (no error token after
// it) is benign, since the exit code is authoritative in that case.
func DetectErrorInStderr(stderrText string) (hasError bool, message string) {
	if strings.TrimSpace(stderrText) == "" {
		return false, ""
	}

	lower := strings.ToLower(stderrText)

	if strings.Contains(lower, "final parameters:") {
		if ovhError := extractOVHError(stderrText); ovhError != "" {
			return true, ovhError
		}
		return false, ""
	}

	if strings.Contains(lower, "error:") || strings.Contains(lower, "fatal:") {
		return true, strings.TrimSpace(stderrText)
	}

	return false, ""
}
