// Package capture sanitizes tool and command output before it crosses
// the WebSocket boundary: truncating oversized string fields,
// stripping terminal control sequences, and guaranteeing the result
// round-trips through JSON cleanly.
package capture

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxFieldLength is the per-field truncation ceiling applied by
// TruncateJSONFields when the caller does not specify one.
const DefaultMaxFieldLength = 10000

// terraformCeiling is the whole-text ceiling for the Terraform/cloud
// CLI streamed-chunk path, distinct from the general tool-output
// ceiling (see SanitizeCommandOutput).
const terraformCeiling = 10000

const maxKeyLength = 200

// TruncateJSONFields recursively truncates individual string leaves of
// data to maxFieldLength bytes, preserving map/slice structure. Map
// keys longer than 200 characters are also shortened, and a nil key
// becomes "null_key" — matching the field-level (not whole-payload)
// truncation strategy of the reference sanitizer.
func TruncateJSONFields(data any, maxFieldLength int) any {
	if maxFieldLength <= 0 {
		maxFieldLength = DefaultMaxFieldLength
	}
	return truncateFields(data, maxFieldLength)
}

func truncateFields(data any, maxFieldLength int) any {
	switch v := data.(type) {
	case string:
		return truncateString(v, maxFieldLength)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			out[safeKey(key)] = truncateFields(value, maxFieldLength)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = truncateFields(item, maxFieldLength)
		}
		return out
	default:
		return data
	}
}

func truncateString(s string, maxFieldLength int) string {
	if len(s) <= maxFieldLength {
		return s
	}
	return s[:maxFieldLength] + "... [field truncated]"
}

func safeKey(key string) string {
	if key == "" {
		return "null_key"
	}
	if len(key) > maxKeyLength {
		return key[:maxKeyLength] + "..."
	}
	return key
}

// ansiEscape matches terminal CSI/OSC control sequences, the same
// VT100 escape pattern the reference sanitizer strips.
var ansiEscape = regexp.MustCompile("\x1b(?:[@-Z\\\\-_]|\\[[0-?]*[ -/]*[@-~])")

func stripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

func stripControlBytes(s string) string {
	return strings.NewReplacer("\x00", "", "\x08", "", "\x0c", "", "\x0b", "").Replace(s)
}

func ensureValidUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range s {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(s[i:])
			if size == 1 {
				b.WriteRune(utf8.RuneError)
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SanitizeTerraformOutput cleans terraform/cloud-CLI output bound for
// the WebSocket path: ANSI stripped, control bytes removed, UTF-8
// repaired, and truncated to the 10KB socket-path ceiling (distinct
// from the 50KB general tool-output ceiling SanitizeCommandOutput
// applies).
func SanitizeTerraformOutput(output string) string {
	if output == "" {
		return output
	}
	cleaned := stripANSI(output)
	cleaned = stripControlBytes(cleaned)
	cleaned = ensureValidUTF8(cleaned)
	if len(cleaned) > terraformCeiling {
		cleaned = cleaned[:terraformCeiling] + "\n... [output truncated for WebSocket transmission]"
	}
	return cleaned
}

// DefaultCommandOutputCeiling is the general tool-output ceiling
// (configurable per spec.md §4.5, default 50KB).
const DefaultCommandOutputCeiling = 50000

// SanitizeCommandOutput cleans general command output (not the
// narrower Terraform/cloud-CLI socket path) to a configurable ceiling.
func SanitizeCommandOutput(output string, maxLength int) string {
	if output == "" {
		return output
	}
	if maxLength <= 0 {
		maxLength = DefaultCommandOutputCeiling
	}
	cleaned := stripANSI(output)
	cleaned = stripControlBytes(cleaned)
	cleaned = ensureValidUTF8(cleaned)
	if len(cleaned) > maxLength {
		cleaned = cleaned[:maxLength] + "\n\n... [output truncated for WebSocket transmission]"
	}
	return cleaned
}

const sanitizedFallback = "[content sanitized for WebSocket transmission]"

// SanitizeForSocket truncates data's string fields, then round-trips
// the result through encoding/json to guarantee it is safe to marshal
// onto the socket; failure falls back to a fixed sentinel string,
// matching the reference sanitize_data's final fallback.
func SanitizeForSocket(data any) any {
	truncated := TruncateJSONFields(data, DefaultMaxFieldLength)
	raw, err := json.Marshal(truncated)
	if err != nil {
		return sanitizedFallback
	}
	var roundTripped any
	if err := json.Unmarshal(raw, &roundTripped); err != nil {
		return sanitizedFallback
	}
	return roundTripped
}

// ovhDebugJSONFields are the field names the reference detector
// recognizes as OVH flavor/image/network debug JSON, used to
// recognize a debug-JSON body line even without the preceding
// timestamp or "final parameters:" marker.
var ovhDebugJSONFields = []string{
	"billingperiod", "bootfrom", "imageid", "flavor", "network",
	"public", "private", "name", "id",
}

var ovhTimestampLine = regexp.MustCompile(`^\d{4}/\d{2}/\d{2}\s+\d{2}:\d{2}:\d{2}`)

// IsOVHDebugLine reports whether line is part of OVH CLI's
// "final parameters:" debug-JSON preamble (a timestamped header line,
// a bare brace, or a recognized JSON field line), so callers can skip
// past it before looking for the real error message.
func IsOVHDebugLine(line string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(line))
	if ovhTimestampLine.MatchString(line) {
		return true
	}
	switch trimmed {
	case "{", "}", "},":
		return true
	}
	if strings.HasPrefix(trimmed, `"`) && strings.Contains(trimmed, ":") {
		for _, field := range ovhDebugJSONFields {
			if strings.Contains(trimmed, `"`+field+`"`) {
				return true
			}
		}
	}
	if strings.Contains(trimmed, "final parameters:") {
		return true
	}
	return false
}
