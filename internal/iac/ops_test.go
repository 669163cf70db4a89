package iac

import "testing"

func TestClassifyPlanStatus(t *testing.T) {
	cases := map[int]PlanStatus{
		0: PlanNoChanges,
		2: PlanChanges,
		1: PlanError,
		9: PlanUnknown,
	}
	for code, want := range cases {
		if got := classifyPlanStatus(code); got != want {
			t.Errorf("classifyPlanStatus(%d) = %q, want %q", code, got, want)
		}
	}
}

func TestSummarizePlanExtractsSummaryLine(t *testing.T) {
	stdout := "Terraform will perform the following actions:\n\n  # aws_instance.web\n\nPlan: 2 to add, 1 to change, 0 to destroy.\n"
	got := summarizePlan(stdout)
	want := "Plan: 2 to add, 1 to change, 0 to destroy."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSummarizePlanFallsBackWhenNoSummaryLine(t *testing.T) {
	got := summarizePlan("no recognizable output here")
	if got == "" {
		t.Fatal("expected a non-empty fallback summary")
	}
}

func TestVarArgsBuildsFlags(t *testing.T) {
	args := varArgs(map[string]string{"region": "us-east-1"})
	if len(args) != 2 || args[0] != "-var" || args[1] != "region=us-east-1" {
		t.Fatalf("got %v", args)
	}
}

func TestRunInDirInsertsChdirFlag(t *testing.T) {
	got := runInDir("/tmp/work", []string{"terraform", "plan"})
	want := []string{"terraform", "-chdir=/tmp/work", "plan"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
