package policy

import "strings"

// ReadOnlyPolicyCaveat records that a session's effective AWS identity
// could not be proven read-only through a dedicated role or a
// restrictive session policy, so the read-only gate is enforced only
// at this package's layer rather than also at the cloud provider's. It
// is surfaced to the caller at connection time, per the precedence
// recorded for the credential broker: a dedicated read-only role ARN
// is tried first, a restrictive session policy is the fallback, and
// continuing anyway with this caveat flagged is the last resort.
type ReadOnlyPolicyCaveat struct {
	Provider string
	Reason   string
}

// GateDecision is the combined read-only/destructive/allow-deny
// verdict for one command pattern.
type GateDecision struct {
	Allowed         bool
	RequiresConfirm bool
	Reason          string
	ReadOnlyCaveat  *ReadOnlyPolicyCaveat
}

// Gate evaluates a command (verb plus the resolver pattern built from
// provider/resource) under policy and the session's read-only mode. A
// read-only session rejects any destructive verb outright; in a
// non-read-only session a destructive verb is allowed but flagged for
// confirmation rather than executed silently.
func (r *Resolver) Gate(policy *Policy, pattern, verb string, readOnlyMode bool, caveat *ReadOnlyPolicyCaveat) GateDecision {
	decision := r.Decide(policy, pattern)
	if !decision.Allowed {
		return GateDecision{Reason: decision.Reason}
	}

	verb = strings.ToLower(verb)
	destructive := IsDestructiveVerb(verb)

	if readOnlyMode && destructive {
		return GateDecision{
			Reason:         "refused: read-only mode forbids destructive verb " + verb,
			ReadOnlyCaveat: caveat,
		}
	}

	return GateDecision{
		Allowed:         true,
		RequiresConfirm: destructive,
		Reason:          decision.Reason,
		ReadOnlyCaveat:  caveat,
	}
}

// GateMCPTool evaluates an MCP tool call the same way Gate does,
// using IsDestructiveMCPTool instead of the verb classifier since MCP
// tools are named operations, not verb/resource pairs.
func (r *Resolver) GateMCPTool(policy *Policy, pattern, toolName string, readOnlyMode bool) GateDecision {
	decision := r.Decide(policy, pattern)
	if !decision.Allowed {
		return GateDecision{Reason: decision.Reason}
	}

	destructive := IsDestructiveMCPTool(toolName)

	if readOnlyMode && destructive {
		return GateDecision{Reason: "refused: read-only mode forbids destructive tool " + toolName}
	}

	return GateDecision{
		Allowed:         true,
		RequiresConfirm: destructive,
		Reason:          decision.Reason,
	}
}
