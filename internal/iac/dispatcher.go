package iac

import (
	"context"
	"fmt"

	"github.com/Arvo-AI/aurora/internal/credbroker"
	"github.com/Arvo-AI/aurora/internal/notify"
)

// Dispatcher wires together a Terraform workspace, the credential
// broker, and the plan/apply/destroy protocol into the iac_tool
// actions (write, plan, apply, destroy) described in spec §4.4.
type Dispatcher struct {
	Workspace *Workspace
	Broker    *credbroker.Broker
	Confirmer notify.Confirmer
	GitHub    GitHubConnector
}

// Action is the iac_tool verb.
type Action string

const (
	ActionWrite   Action = "write"
	ActionPlan    Action = "plan"
	ActionApply   Action = "apply"
	ActionDestroy Action = "destroy"
)

// Result is the combined envelope shape returned for any iac_tool
// action — most fields are populated only for the action that ran.
type Result struct {
	Action       Action
	Write        *WriteResult
	Plan         *PlanResult
	Apply        *ApplyResult
	Destroy      *DestroyResult
	GitHubStatus *CommitSuggestion
}

// Dispatch resolves the named provider's isolated credentials and
// runs action against the session's Terraform workspace.
func (d *Dispatcher) Dispatch(ctx context.Context, principal, sessionID, provider string, action Action, write WriteRequest, vars map[string]string) (Result, error) {
	bundle, err := d.Broker.Issue(ctx, principal, credbroker.Provider(provider), false)
	if err != nil {
		return Result{}, fmt.Errorf("iac: credential setup: %w", err)
	}

	dir, err := d.Workspace.Dir(principal, sessionID)
	if err != nil {
		return Result{}, err
	}

	switch action {
	case ActionWrite:
		write.Principal, write.SessionID, write.ResourceID = principal, sessionID, bundle.ResourceID
		wr, err := Write(d.Workspace, write)
		if err != nil {
			return Result{}, err
		}
		return Result{Action: action, Write: &wr}, nil

	case ActionPlan:
		pr, err := Plan(ctx, PlanRequest{Dir: dir, Env: bundle.Env, Vars: vars})
		return Result{Action: action, Plan: &pr}, err

	case ActionApply:
		ar, err := Apply(ctx, PlanRequest{Dir: dir, Env: bundle.Env, Vars: vars}, sessionID, d.Confirmer)
		if err != nil {
			return Result{}, err
		}
		result := Result{Action: action, Apply: &ar}
		if ar.Success && d.GitHub != nil {
			connected, connErr := d.GitHub.IsConnected(ctx, principal)
			if connErr == nil && connected {
				suggestion, prepErr := PrepareGitHubCommit(dir, sessionID, "Aurora Orchestrator", "orchestrator@aurora.internal")
				if prepErr == nil {
					result.GitHubStatus = &suggestion
				}
			}
		}
		return result, nil

	case ActionDestroy:
		dres, err := Destroy(ctx, PlanRequest{Dir: dir, Env: bundle.Env, Vars: vars}, sessionID, d.Confirmer)
		return Result{Action: action, Destroy: &dres}, err

	default:
		return Result{}, fmt.Errorf("iac: unknown action %q", action)
	}
}
