// Package policy resolves whether a cloud command or IaC operation is
// permitted for a session, generalizing a deny-then-allow-then-profile
// precedence chain from tool-name patterns to cloud-verb/resource
// patterns: command strings like "gcp:compute.instances.delete" or
// "mcp:github.merge_pull_request".
package policy

import "strings"

// Profile is a pre-configured access level. ProfileFull allows every
// verb/resource not explicitly denied; the other profiles restrict to
// their named allow lists.
type Profile string

const (
	ProfileReadOnly Profile = "read_only"
	ProfileStandard Profile = "standard"
	ProfileFull     Profile = "full"
)

// Policy combines a profile with explicit allow/deny overrides. Deny
// always wins over allow, matching the resolver this package
// generalizes from.
type Policy struct {
	Profile Profile
	Allow   []string
	Deny    []string

	// ByProvider scopes additional rules to one provider key ("aws",
	// "gcp", "azure", "ovh", "scaleway", "tailscale", "mcp:<server>",
	// "terraform"). A provider override is merged over the base policy
	// the same way spec's per-tool-provider overrides work.
	ByProvider map[string]*Policy
}

// NewPolicy starts a policy at the given profile.
func NewPolicy(profile Profile) *Policy {
	return &Policy{Profile: profile}
}

// WithAllow adds patterns to the allow list and returns the policy for chaining.
func (p *Policy) WithAllow(patterns ...string) *Policy {
	p.Allow = append(p.Allow, patterns...)
	return p
}

// WithDeny adds patterns to the deny list and returns the policy for chaining.
func (p *Policy) WithDeny(patterns ...string) *Policy {
	p.Deny = append(p.Deny, patterns...)
	return p
}

// ReadOnlyVerbs classifies command verbs that never mutate state,
// carried over verbatim from the reference cloud-exec tool's
// _READ_ONLY_VERBS set.
var ReadOnlyVerbs = map[string]bool{
	"list": true, "describe": true, "get": true, "show": true,
	"config": true, "version": true, "info": true, "view": true,
	"read": true, "status": true,
}

// DestructiveVerbs classifies command verbs that mutate or remove
// state and therefore require confirmation, carried over verbatim
// from the reference cloud-exec tool's _ACTION_VERBS set.
var DestructiveVerbs = map[string]bool{
	"create": true, "delete": true, "update": true, "apply": true,
	"destroy": true, "terminate": true, "start": true, "stop": true,
	"restart": true, "attach": true, "detach": true, "enable": true,
	"disable": true, "put": true, "remove": true,
}

// destructiveMCPPrefixes and destructiveMCPNames classify MCP tool
// names as destructive for the same confirmation gate, per the
// GitHub/Bitbucket connector naming convention.
var destructiveMCPPrefixes = []string{"create_", "delete_", "push_", "merge_"}
var destructiveMCPNames = map[string]bool{"merge_pull_request": true}

// IsReadOnlyVerb reports whether verb (already lower-cased) is in the
// read-only set.
func IsReadOnlyVerb(verb string) bool {
	return ReadOnlyVerbs[strings.ToLower(verb)]
}

// IsDestructiveVerb reports whether verb (already lower-cased) is in
// the destructive set.
func IsDestructiveVerb(verb string) bool {
	return DestructiveVerbs[strings.ToLower(verb)]
}

// IsDestructiveMCPTool reports whether an MCP tool name requires
// confirmation before execution.
func IsDestructiveMCPTool(name string) bool {
	lower := strings.ToLower(name)
	if destructiveMCPNames[lower] {
		return true
	}
	for _, prefix := range destructiveMCPPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// Decision explains why a command was allowed or denied.
type Decision struct {
	Allowed bool
	Pattern string
	Reason  string
}

// Resolver evaluates Policy values against command patterns. It holds
// no mutable state of its own; a single Resolver is safe to share and
// reuse across sessions.
type Resolver struct{}

// NewResolver creates a Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Decide evaluates pattern (e.g. "aws:ec2.describe-instances",
// "terraform:apply", "mcp:github.merge_pull_request") against policy
// using the deny-then-allow-then-profile-full chain: explicit deny
// always wins, a full profile allows everything not denied, otherwise
// an explicit allow match is required, and the default is deny.
func (r *Resolver) Decide(policy *Policy, pattern string) Decision {
	decision := Decision{Pattern: pattern, Reason: "no matching allow rule"}

	if policy == nil {
		decision.Reason = "no policy configured"
		return decision
	}

	effective := r.effectiveForProvider(policy, pattern)

	for _, d := range effective.Deny {
		if matchPattern(d, pattern) {
			decision.Reason = "denied by rule: " + d
			return decision
		}
	}

	if effective.Profile == ProfileFull {
		decision.Allowed = true
		decision.Reason = "allowed by profile full"
		return decision
	}

	for _, a := range effective.Allow {
		if matchPattern(a, pattern) {
			decision.Allowed = true
			decision.Reason = "allowed by rule: " + a
			return decision
		}
	}

	return decision
}

// IsAllowed is a convenience wrapper around Decide.
func (r *Resolver) IsAllowed(policy *Policy, pattern string) bool {
	return r.Decide(policy, pattern).Allowed
}

// effectiveForProvider merges a provider-scoped override (if one
// exists for pattern's provider prefix) over the base policy, mirroring
// the resolver this package generalizes from.
func (r *Resolver) effectiveForProvider(policy *Policy, pattern string) *Policy {
	if len(policy.ByProvider) == 0 {
		return policy
	}
	key := providerKey(pattern)
	override, ok := policy.ByProvider[key]
	if !ok || override == nil {
		return policy
	}
	return merge(policy, override)
}

func providerKey(pattern string) string {
	idx := strings.Index(pattern, ":")
	if idx < 0 {
		return ""
	}
	return pattern[:idx]
}

func merge(base, override *Policy) *Policy {
	result := &Policy{Profile: base.Profile}
	if override.Profile != "" {
		result.Profile = override.Profile
	}
	result.Allow = append(append([]string{}, base.Allow...), override.Allow...)
	result.Deny = append(append([]string{}, base.Deny...), override.Deny...)
	return result
}

// matchPattern supports a universal wildcard ("*"), a provider
// wildcard ("aws:*"), a dotted-namespace wildcard
// ("mcp:github.*"), and exact matches — the same shapes the original
// tool-pattern matcher supported, reinterpreted over verb/resource
// strings instead of tool names.
func matchPattern(pattern, candidate string) bool {
	if pattern == "*" {
		return true
	}
	if pattern == candidate {
		return true
	}
	if strings.HasSuffix(pattern, ":*") {
		prefix := strings.TrimSuffix(pattern, "*")
		return strings.HasPrefix(candidate, prefix)
	}
	if strings.HasSuffix(pattern, ".*") {
		prefix := strings.TrimSuffix(pattern, "*")
		return strings.HasPrefix(candidate, prefix)
	}
	return false
}
