// Package promptbuild assembles the per-turn system prompt from ordered,
// cacheable segments.
//
// The prompt is built from five segments, in order: tools manifest,
// system invariant, provider constraints, regional rules, and an
// ephemeral tail that varies per turn (mode warnings, RCA context).
// Segments are pure functions of their inputs so that a vendor-level
// prompt cache can reuse everything up to the first changed segment.
package promptbuild

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// SegmentKind identifies one of the five ordered prompt segments.
type SegmentKind int

const (
	SegmentToolsManifest SegmentKind = iota
	SegmentSystemInvariant
	SegmentProviderConstraints
	SegmentRegionalRules
	SegmentEphemeral
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentToolsManifest:
		return "tools_manifest"
	case SegmentSystemInvariant:
		return "system_invariant"
	case SegmentProviderConstraints:
		return "provider_constraints"
	case SegmentRegionalRules:
		return "regional_rules"
	case SegmentEphemeral:
		return "ephemeral"
	default:
		return "unknown"
	}
}

// Segment is one ordered, content-addressed piece of the system prompt.
type Segment struct {
	Kind    SegmentKind
	Content string
	// Hash identifies this segment's content for cache-breakpoint
	// registration; two calls with identical content produce the same
	// hash regardless of when they run.
	Hash string
}

// Inputs are the per-turn facts the segments are computed from.
type Inputs struct {
	ToolNames         []string
	Mode              Mode
	ProvidersEnabled  []string // e.g. "gcp", "aws", "tailscale"
	RegionDefaults    map[string]string
	HasZipReference   bool
	RCAContext        *RCAContext
	ReadOnlyModeNotes bool
}

// Mode mirrors the session mode invariant from the data model.
type Mode string

const (
	ModeInteractive Mode = "interactive-agent"
	ModeAsk         Mode = "ask"
	ModeBackground  Mode = "background"
)

// RCAContext carries background-investigation metadata injected into the
// ephemeral segment instead of live command execution guidance.
type RCAContext struct {
	Source       string
	Integrations []string
	Trigger      string
}

// Set is the ordered, concatenated result for one turn plus its
// per-segment cache breakpoints.
type Set struct {
	Segments []Segment
}

// Render concatenates the segments in order, in the exact sequence the
// invariant requires (tools manifest, system invariant, provider
// constraints, regional rules, ephemeral tail).
func (s Set) Render() string {
	parts := make([]string, 0, len(s.Segments))
	for _, seg := range s.Segments {
		if strings.TrimSpace(seg.Content) == "" {
			continue
		}
		parts = append(parts, seg.Content)
	}
	return strings.Join(parts, "\n\n")
}

// Breakpoints returns the segment hashes in order, suitable for handing
// to a provider-cache manager keyed by (provider, tenant) so only the
// tail after the first mismatch needs to be resent.
func (s Set) Breakpoints() []string {
	out := make([]string, len(s.Segments))
	for i, seg := range s.Segments {
		out[i] = seg.Hash
	}
	return out
}

// Builder assembles Sets and memoizes individual segments by content
// hash so repeated turns with an unchanged tools manifest or provider
// set never recompute (or re-cache-miss) the stable prefix.
type Builder struct {
	mu    sync.Mutex
	cache map[string]string // hash -> content, for memoization/debugging
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{cache: make(map[string]string)}
}

// Build computes the five ordered segments for one turn.
func (b *Builder) Build(in Inputs) Set {
	segments := []Segment{
		b.segment(SegmentToolsManifest, toolsManifest(in.ToolNames)),
		b.segment(SegmentSystemInvariant, systemInvariant()),
		b.segment(SegmentProviderConstraints, providerConstraints(in.ProvidersEnabled)),
		b.segment(SegmentRegionalRules, regionalRules(in.RegionDefaults)),
		b.segment(SegmentEphemeral, ephemeralRules(in)),
	}
	return Set{Segments: segments}
}

func (b *Builder) segment(kind SegmentKind, content string) Segment {
	content = strings.TrimSpace(content)
	sum := sha256.Sum256([]byte(kind.String() + "\x00" + content))
	hash := hex.EncodeToString(sum[:])

	b.mu.Lock()
	b.cache[hash] = content
	b.mu.Unlock()

	return Segment{Kind: kind, Content: content, Hash: hash}
}

func toolsManifest(names []string) string {
	if len(names) == 0 {
		return ""
	}
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	return fmt.Sprintf("Available tools:\n- %s", strings.Join(sorted, "\n- "))
}

func systemInvariant() string {
	return strings.Join([]string{
		"You are the Aurora cloud-operations agent.",
		"Never fabricate cloud resource identifiers or command output.",
		"Never write credentials to logs, chat output, or files outside the isolated environment you were given.",
		"Prefer the narrowest cloud command that answers the user's question.",
	}, "\n")
}

func providerConstraints(enabled []string) string {
	if len(enabled) == 0 {
		return ""
	}
	var lines []string
	for _, p := range enabled {
		switch p {
		case "gcp":
			lines = append(lines, "GCP: always pass --project explicitly unless the command inherits an impersonated project.")
		case "aws":
			lines = append(lines, "AWS: assume account ambiguity is possible; ask before targeting an account unless one is clearly implied.")
		case "azure":
			lines = append(lines, "Azure: the dispatcher performs an az login hand-off before your command; do not attempt to log in yourself.")
		case "ovh":
			lines = append(lines, "OVH: ids returned from flavor/image listings are UUIDs, not names; use the id field for follow-up commands.")
		case "scaleway":
			lines = append(lines, "Scaleway: region and zone defaults come from the connection; only override when the user names a location.")
		case "tailscale":
			lines = append(lines, "Tailscale: commands are translated to REST calls, not a CLI; stick to the supported verb forms.")
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "Provider notes:\n" + strings.Join(lines, "\n")
}

func regionalRules(defaults map[string]string) string {
	if len(defaults) == 0 {
		return ""
	}
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var lines []string
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s default: %s", k, defaults[k]))
	}
	return "Regional defaults:\n" + strings.Join(lines, "\n")
}

func ephemeralRules(in Inputs) string {
	var lines []string

	switch in.Mode {
	case ModeAsk:
		lines = append(lines, "Read-only mode: destructive cloud verbs and IaC writes/applies/destroys will be refused. Answer using list/describe/get-style commands only.")
	case ModeBackground:
		lines = append(lines, "Background investigation mode: confirmation prompts auto-resolve per policy; focus on investigating, not changing state.")
	}

	if in.HasZipReference {
		lines = append(lines, "An archive was referenced or deployment intent was detected; the archive-inspection tool is available for this turn.")
	}

	if in.RCAContext != nil {
		rc := in.RCAContext
		lines = append(lines, fmt.Sprintf(
			"Root-cause investigation context: source=%s trigger=%s integrations=%s. Investigate and summarize; do not ask the user questions.",
			rc.Source, rc.Trigger, strings.Join(rc.Integrations, ","),
		))
	}

	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}
