package iac

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Arvo-AI/aurora/internal/cloudexec"
	"github.com/Arvo-AI/aurora/internal/notify"
)

const (
	initTimeout    = 120 * time.Second
	planTimeout    = 600 * time.Second
	applyTimeout   = 1200 * time.Second
	destroyTimeout = 1200 * time.Second
)

// PlanStatus classifies the detailed exit code terraform plan uses:
// 0 (no changes), 2 (changes present), 1 (error).
type PlanStatus string

const (
	PlanNoChanges PlanStatus = "no_changes"
	PlanChanges   PlanStatus = "changes_present"
	PlanError     PlanStatus = "error"
	PlanUnknown   PlanStatus = "unknown"
)

// StepResult records one terraform invocation's outcome within a
// plan/apply/destroy run.
type StepResult struct {
	Step       string
	Stdout     string
	Stderr     string
	ReturnCode int
	Success    bool
}

func runStep(ctx context.Context, step, dir string, argv []string, env map[string]string, timeout time.Duration) (StepResult, error) {
	result, err := cloudexec.Run(ctx, argv, env, timeout)
	if err != nil {
		return StepResult{Step: step}, err
	}
	return StepResult{
		Step:       step,
		Stdout:     result.Stdout,
		Stderr:     result.Stderr,
		ReturnCode: result.ReturnCode,
		Success:    result.ReturnCode == 0,
	}, nil
}

func runInDir(dir string, argv []string) []string {
	return append([]string{"terraform", "-chdir=" + dir}, argv[1:]...)
}

// Init runs terraform init in dir.
func Init(ctx context.Context, dir string, env map[string]string) (StepResult, error) {
	return runStep(ctx, "terraform_init", dir, runInDir(dir, []string{"terraform", "init", "-input=false"}), env, initTimeout)
}

// PlanRequest is one iac_plan/iac_apply/iac_destroy invocation's
// terraform-level inputs.
type PlanRequest struct {
	Dir  string
	Env  map[string]string
	Vars map[string]string
}

func varArgs(vars map[string]string) []string {
	args := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		args = append(args, "-var", fmt.Sprintf("%s=%s", k, v))
	}
	return args
}

// classifyPlanStatus maps terraform's -detailed-exitcode convention to
// a PlanStatus.
func classifyPlanStatus(returnCode int) PlanStatus {
	switch returnCode {
	case 0:
		return PlanNoChanges
	case 2:
		return PlanChanges
	case 1:
		return PlanError
	default:
		return PlanUnknown
	}
}

// PlanResult is the shape returned from Plan.
type PlanResult struct {
	Init     StepResult
	Validate StepResult
	Plan     StepResult
	Status   PlanStatus
}

// Plan runs init, validate, and plan -detailed-exitcode, matching spec
// §4.4's read-only preview path (destructive only past apply/destroy).
func Plan(ctx context.Context, req PlanRequest) (PlanResult, error) {
	initResult, err := Init(ctx, req.Dir, req.Env)
	if err != nil {
		return PlanResult{Init: initResult}, err
	}
	if !initResult.Success {
		return PlanResult{Init: initResult, Status: PlanError}, nil
	}

	validateResult, err := runStep(ctx, "terraform_validate", req.Dir, runInDir(req.Dir, []string{"terraform", "validate"}), req.Env, initTimeout)
	if err != nil {
		return PlanResult{Init: initResult, Validate: validateResult}, err
	}

	argv := append([]string{"terraform", "plan", "-detailed-exitcode", "-input=false"}, varArgs(req.Vars)...)
	planResult, err := runStep(ctx, "terraform_plan", req.Dir, runInDir(req.Dir, argv), req.Env, planTimeout)
	if err != nil {
		return PlanResult{Init: initResult, Validate: validateResult}, err
	}
	planResult.Success = planResult.ReturnCode == 0 || planResult.ReturnCode == 2

	return PlanResult{
		Init:     initResult,
		Validate: validateResult,
		Plan:     planResult,
		Status:   classifyPlanStatus(planResult.ReturnCode),
	}, nil
}

// ApplyResult is the shape returned from Apply.
type ApplyResult struct {
	Init      StepResult
	PlanCheck StepResult
	Apply     StepResult
	Outputs   StepResult
	Status    PlanStatus
	Cancelled bool
	Success   bool
}

// Apply runs the full confirm-then-apply protocol (spec §4.4): init,
// a plan check, a confirmation round trip when changes are present,
// then `apply -auto-approve`, then `output -json`.
func Apply(ctx context.Context, req PlanRequest, sessionID string, confirmer notify.Confirmer) (ApplyResult, error) {
	initResult, err := Init(ctx, req.Dir, req.Env)
	if err != nil {
		return ApplyResult{Init: initResult}, err
	}
	if !initResult.Success {
		return ApplyResult{Init: initResult}, nil
	}

	argv := append([]string{"terraform", "plan", "-detailed-exitcode", "-input=false"}, varArgs(req.Vars)...)
	planCheck, err := runStep(ctx, "terraform_plan_check", req.Dir, runInDir(req.Dir, argv), req.Env, planTimeout)
	if err != nil {
		return ApplyResult{Init: initResult, PlanCheck: planCheck}, err
	}

	if planCheck.ReturnCode == 0 {
		return ApplyResult{Init: initResult, PlanCheck: planCheck, Status: PlanNoChanges, Success: true}, nil
	}
	if planCheck.ReturnCode == 1 && !planCheck.Success {
		return ApplyResult{Init: initResult, PlanCheck: planCheck, Status: PlanError}, nil
	}

	if confirmer != nil {
		decision, err := confirmer.Confirm(ctx, sessionID, "iac_tool", summarizePlan(planCheck.Stdout))
		if err != nil {
			return ApplyResult{Init: initResult, PlanCheck: planCheck}, err
		}
		if decision != notify.DecisionApproved {
			return ApplyResult{Init: initResult, PlanCheck: planCheck, Status: PlanChanges, Cancelled: true}, nil
		}
	}

	applyResult, err := runStep(ctx, "terraform_apply", req.Dir, runInDir(req.Dir, []string{"terraform", "apply", "-auto-approve", "-input=false"}), req.Env, applyTimeout)
	if err != nil {
		return ApplyResult{Init: initResult, PlanCheck: planCheck, Apply: applyResult}, err
	}

	result := ApplyResult{Init: initResult, PlanCheck: planCheck, Apply: applyResult, Status: PlanChanges, Success: applyResult.Success}

	if applyResult.Success {
		outputsResult, err := runStep(ctx, "terraform_outputs", req.Dir, runInDir(req.Dir, []string{"terraform", "output", "-json"}), req.Env, initTimeout)
		if err == nil {
			result.Outputs = outputsResult
		}
	}
	return result, nil
}

// DestroyResult is the shape returned from Destroy.
type DestroyResult struct {
	Init        StepResult
	DestroyPlan StepResult
	Destroy     StepResult
	Status      PlanStatus
	Cancelled   bool
	Success     bool
}

// Destroy runs the confirm-then-destroy protocol: init, a
// `plan -destroy` check, a confirmation round trip, then
// `destroy -auto-approve`.
func Destroy(ctx context.Context, req PlanRequest, sessionID string, confirmer notify.Confirmer) (DestroyResult, error) {
	initResult, err := Init(ctx, req.Dir, req.Env)
	if err != nil {
		return DestroyResult{Init: initResult}, err
	}
	if !initResult.Success {
		return DestroyResult{Init: initResult}, nil
	}

	destroyPlan, err := runStep(ctx, "terraform_destroy_plan", req.Dir,
		runInDir(req.Dir, []string{"terraform", "plan", "-destroy", "-detailed-exitcode", "-input=false"}),
		req.Env, planTimeout)
	if err != nil {
		return DestroyResult{Init: initResult, DestroyPlan: destroyPlan}, err
	}

	if destroyPlan.ReturnCode == 0 {
		return DestroyResult{Init: initResult, DestroyPlan: destroyPlan, Status: PlanNoChanges, Success: true}, nil
	}

	if confirmer != nil {
		decision, err := confirmer.Confirm(ctx, sessionID, "iac_tool", summarizePlan(destroyPlan.Stdout))
		if err != nil {
			return DestroyResult{Init: initResult, DestroyPlan: destroyPlan}, err
		}
		if decision != notify.DecisionApproved {
			return DestroyResult{Init: initResult, DestroyPlan: destroyPlan, Status: PlanChanges, Cancelled: true}, nil
		}
	}

	destroyResult, err := runStep(ctx, "terraform_destroy", req.Dir,
		runInDir(req.Dir, []string{"terraform", "destroy", "-auto-approve", "-input=false"}), req.Env, destroyTimeout)
	if err != nil {
		return DestroyResult{Init: initResult, DestroyPlan: destroyPlan, Destroy: destroyResult}, err
	}

	return DestroyResult{
		Init:        initResult,
		DestroyPlan: destroyPlan,
		Destroy:     destroyResult,
		Status:      PlanChanges,
		Success:     destroyResult.Success,
	}, nil
}

// summarizePlan extracts a short human-readable summary line from raw
// terraform plan stdout for the confirmation prompt ("Plan: 2 to add,
// 1 to change, 0 to destroy."), falling back to a generic message
// when the expected summary line isn't found.
func summarizePlan(stdout string) string {
	for _, line := range strings.Split(stdout, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "Plan:") {
			return trimmed
		}
	}
	return "Terraform plan produced changes; review before applying."
}
