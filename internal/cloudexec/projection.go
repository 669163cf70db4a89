package cloudexec

import "strings"

// tokenCompressionThreshold is the approximate token count above which
// an envelope lacking its own filter/query/limit is automatically
// re-run with a generic projection. There is no tiktoken-equivalent
// dependency in this module's stack, so token count is approximated
// from a whitespace/word-count heuristic scaled by an average
// bytes-per-token constant rather than adding an ungrounded tokenizer
// dependency purely for this threshold check.
const tokenCompressionThreshold = 30000

const avgBytesPerToken = 4

// EstimateTokens approximates a token count for s well enough to
// decide whether the compression threshold is crossed; it is not
// meant to match any specific tokenizer's output.
func EstimateTokens(s string) int {
	return len(s) / avgBytesPerToken
}

// hasOwnFilter reports whether argv already specifies its own
// filter/query/limit, in which case automatic projection is skipped
// to avoid fighting the caller's own narrowing.
func hasOwnFilter(argv []string) bool {
	for _, a := range argv {
		lower := strings.ToLower(a)
		if strings.HasPrefix(lower, "--filter") || strings.HasPrefix(lower, "--query") ||
			strings.HasPrefix(lower, "--limit") || strings.HasPrefix(lower, "--format=value") {
			return true
		}
	}
	return false
}

// NeedsProjection reports whether rendered is large enough, and argv
// unfiltered enough, that cloud_exec should automatically re-run with
// a generic projection.
func NeedsProjection(provider string, argv []string, rendered string) bool {
	if hasOwnFilter(argv) {
		return false
	}
	if provider == "aws" {
		// AWS projections are deliberately not attempted: JMESPath on
		// nested outputs is error-prone. The caller is warned and
		// expected to retry with its own --query instead.
		return false
	}
	return EstimateTokens(rendered) > tokenCompressionThreshold
}

// ProjectionArgs returns the extra argv to append for a generic
// projection re-run, or nil if the provider has no generic projection.
func ProjectionArgs(provider string) []string {
	switch provider {
	case "gcp":
		return []string{"--format=value(name,status)"}
	case "azure":
		return []string{"--query", "[].{name:name,id:id,location:location}"}
	default:
		return nil
	}
}
