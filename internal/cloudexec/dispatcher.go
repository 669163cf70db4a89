package cloudexec

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Arvo-AI/aurora/internal/capture"
	"github.com/Arvo-AI/aurora/internal/credbroker"
	"github.com/Arvo-AI/aurora/internal/notify"
	"github.com/Arvo-AI/aurora/internal/policy"
)

// ErrRequiresConnection is returned when no provider could be
// resolved with confidence and the caller has not named one either.
var ErrRequiresConnection = errors.New("cloudexec: requires-connection")

// ErrReadOnlyMode is returned by the read-only gate for a destructive
// command while the session is in read-only mode.
var ErrReadOnlyMode = errors.New("cloudexec: READ_ONLY_MODE")

// Request is one cloud_exec invocation.
type Request struct {
	Principal      string
	SessionID      string
	Provider       string // optional; resolved from RecentMessages if empty
	Command        string
	Account        string // explicit AWS account override
	Timeout        time.Duration
	OutputFile     string
	ReadOnly       bool
	RecentMessages []string
}

// ProjectResolver resolves the project/region/subscription defaults
// to inject for a principal's provider connection; a thin port over
// whatever configuration store backs connections.
type ProjectResolver interface {
	Defaults(ctx context.Context, principal, provider string) (project, region, subscription string)
}

// OutputFileSink persists raw stdout to a caller-chosen path (used for
// kubeconfig, helm values, etc.) on success.
type OutputFileSink interface {
	Write(ctx context.Context, path string, content []byte) error
}

// Dispatcher executes cloud_exec requests end to end.
type Dispatcher struct {
	Broker    *credbroker.Broker
	Resolver  *policy.Resolver
	Policy    *policy.Policy
	Confirmer notify.Confirmer
	Registry  *notify.ProcessRegistry
	Projects  ProjectResolver
	Sink      OutputFileSink
	Tailscale TailscaleClient
}

// TailscaleClient translates a parsed Tailscale command verb into a
// REST call. Implementations live outside this package.
type TailscaleClient interface {
	Dispatch(ctx context.Context, tailnet, verb string, args []string) (Envelope, error)
}

var tailscaleVerbs = map[string]bool{
	"device": true, "auth-key": true, "acl": true, "dns": true,
	"routes": true, "status": true, "settings": true,
}

// Dispatch runs the full cloud_exec pipeline described in spec §4.3.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Envelope, error) {
	provider := req.Provider
	if provider == "" {
		resolved, ok := ResolveProvider(req.RecentMessages)
		if !ok {
			return Envelope{}, ErrRequiresConnection
		}
		provider = resolved
	}

	bundle, err := d.Broker.Issue(ctx, req.Principal, credbroker.Provider(provider), req.ReadOnly)
	if err != nil {
		return Envelope{}, fmt.Errorf("cloudexec: credential setup: %w", err)
	}

	if provider == "tailscale" {
		return d.dispatchTailscale(ctx, bundle, req)
	}

	argv := Tokenize(req.Command)
	argv = PrefixDefaultCLI(provider, argv)

	if InterceptEffectiveProject(argv) {
		return Envelope{
			Provider:     provider,
			Command:      req.Command,
			Stdout:       bundle.ResourceID,
			ResourceID:   bundle.ResourceID,
			ResourceName: bundle.ResourceName,
			AuthMethod:   bundle.AuthMethod,
		}, nil
	}

	verb := CommandVerb(argv)
	readOnlyNow := req.ReadOnly || policy.IsReadOnlyVerb(verb)

	var project, region, subscription string
	if d.Projects != nil {
		project, region, subscription = d.Projects.Defaults(ctx, req.Principal, provider)
	}
	if project == "" {
		project = bundle.ResourceID
	}
	argv = InjectConvenienceFlags(provider, argv, verb, project, region, subscription)

	pattern := provider + ":" + strings.Join(argv[1:], ".")
	var caveat *policy.ReadOnlyPolicyCaveat
	if bundle.ReadOnlyCaveat != nil {
		caveat = &policy.ReadOnlyPolicyCaveat{Provider: string(bundle.ReadOnlyCaveat.Provider), Reason: bundle.ReadOnlyCaveat.Reason}
	}
	gate := d.Resolver.Gate(d.Policy, pattern, verb, readOnlyNow, caveat)
	if !gate.Allowed {
		if strings.Contains(gate.Reason, "read-only mode") {
			return Envelope{}, ErrReadOnlyMode
		}
		return Envelope{}, fmt.Errorf("cloudexec: denied: %s", gate.Reason)
	}

	if gate.RequiresConfirm && d.Confirmer != nil {
		decision, err := d.Confirmer.Confirm(ctx, req.SessionID, "cloud_exec", confirmationSummary(provider, verb, argv))
		if err != nil {
			return Envelope{}, fmt.Errorf("cloudexec: confirmation: %w", err)
		}
		if decision != notify.DecisionApproved {
			return Envelope{
				Provider:  provider,
				Command:   req.Command,
				Cancelled: true,
				IsError:   true,
			}, nil
		}
	}

	timeout := ResolveTimeout(argv, req.Timeout)

	if len(bundle.AuthCommand) > 0 {
		if _, err := Run(ctx, bundle.AuthCommand, bundle.Env, timeout); err != nil {
			return Envelope{}, fmt.Errorf("cloudexec: auth command: %w", err)
		}
	}

	result, err := Run(ctx, argv, bundle.Env, timeout)
	if err != nil {
		return Envelope{}, fmt.Errorf("cloudexec: exec: %w", err)
	}

	env := Envelope{
		Provider:     provider,
		Command:      req.Command,
		Stdout:       capture.SanitizeCommandOutput(result.Stdout, 0),
		Stderr:       capture.SanitizeTerraformOutput(result.Stderr),
		ReturnCode:   result.ReturnCode,
		Duration:     result.Duration,
		ResourceID:   bundle.ResourceID,
		ResourceName: bundle.ResourceName,
		AuthMethod:   bundle.AuthMethod,
	}
	if bundle.ReadOnlyCaveat != nil {
		env.ReadOnlyCaveat = bundle.ReadOnlyCaveat.Reason
	}

	if result.ReturnCode != 0 {
		env.IsError = true
		env.ErrorMessage = result.Stderr
	} else if hasErr, msg := capture.DetectErrorInStderr(result.Stderr); hasErr {
		env.IsError = true
		env.ErrorMessage = msg
	}

	if NeedsProjection(provider, argv, env.Stdout) {
		projArgs := ProjectionArgs(provider)
		if projArgs != nil {
			projArgv := append(append([]string{}, argv...), projArgs...)
			if projResult, err := Run(ctx, projArgv, bundle.Env, timeout); err == nil {
				env.Original = env.Stdout
				env.Stdout = capture.SanitizeCommandOutput(projResult.Stdout, 0)
				env.FilterApplied = true
			}
		}
	}

	if req.OutputFile != "" && !env.IsError && d.Sink != nil {
		_ = d.Sink.Write(ctx, req.OutputFile, []byte(result.Stdout))
	}

	return env, nil
}

func (d *Dispatcher) dispatchTailscale(ctx context.Context, bundle credbroker.Bundle, req Request) (Envelope, error) {
	argv := Tokenize(req.Command)
	if len(argv) == 0 {
		return Envelope{}, fmt.Errorf("cloudexec: tailscale: empty command")
	}
	verb := strings.ToLower(argv[0])
	if !tailscaleVerbs[verb] {
		supported := make([]string, 0, len(tailscaleVerbs))
		for v := range tailscaleVerbs {
			supported = append(supported, v)
		}
		return Envelope{}, fmt.Errorf("cloudexec: tailscale: unsupported verb %q, supported: %s", verb, strings.Join(supported, ", "))
	}
	if d.Tailscale == nil {
		return Envelope{}, fmt.Errorf("cloudexec: tailscale client not configured")
	}
	return d.Tailscale.Dispatch(ctx, bundle.ResourceID, verb, argv[1:])
}

func confirmationSummary(provider, verb string, argv []string) string {
	resource := ""
	if len(argv) > 1 {
		resource = argv[len(argv)-1]
	}
	return fmt.Sprintf("%s: %s %s", provider, verb, resource)
}
