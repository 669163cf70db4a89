package cloudexec

import (
	"strings"

	"github.com/Arvo-AI/aurora/internal/policy"
)

// recognizedCLIs are the binaries cloud_exec never prepends a default
// in front of — the user already named one of them.
var recognizedCLIs = map[string]bool{
	"gcloud": true, "gsutil": true, "bq": true, "kubectl": true,
	"aws": true, "eksctl": true, "az": true, "ovhcloud": true,
	"scw": true, "helm": true, "terraform": true,
}

// defaultCLI is the binary prepended when the command doesn't already
// start with a recognized one. terraform is exempt from prefixing
// entirely (it has no provider-specific default).
var defaultCLI = map[string]string{
	"gcp":      "gcloud",
	"aws":      "aws",
	"azure":    "az",
	"ovh":      "ovhcloud",
	"scaleway": "scw",
}

// PrefixDefaultCLI prepends the provider's default CLI binary to argv
// if argv doesn't already start with a recognized one. terraform
// commands are passed through untouched.
func PrefixDefaultCLI(provider string, argv []string) []string {
	if len(argv) == 0 {
		return argv
	}
	if argv[0] == "terraform" {
		return argv
	}
	if recognizedCLIs[argv[0]] {
		return argv
	}
	bin, ok := defaultCLI[provider]
	if !ok {
		return argv
	}
	out := make([]string, 0, len(argv)+1)
	out = append(out, bin)
	out = append(out, argv...)
	return out
}

// hasFlag reports whether argv already contains flag or flag= form.
func hasFlag(argv []string, flag string) bool {
	for _, a := range argv {
		if a == flag || strings.HasPrefix(a, flag+"=") {
			return true
		}
	}
	return false
}

// InjectConvenienceFlags appends provider-specific flags the user
// omitted: --project/--region/--subscription, a JSON output flag on
// read-only verbs, and --quiet on GCP deletions. verb is the already
// lower-cased command verb (the second-to-last path component, e.g.
// "list", "delete").
func InjectConvenienceFlags(provider string, argv []string, verb string, project, region, subscription string) []string {
	out := append([]string(nil), argv...)
	readOnly := policy.IsReadOnlyVerb(verb)

	switch provider {
	case "gcp":
		if project != "" && !hasFlag(out, "--project") {
			out = append(out, "--project", project)
		}
		if readOnly && !hasFlag(out, "--format") {
			out = append(out, "--format=json")
		}
		if verb == "delete" && !hasFlag(out, "--quiet") {
			out = append(out, "--quiet")
		}
	case "aws":
		if region != "" && !hasFlag(out, "--region") {
			out = append(out, "--region", region)
		}
		if readOnly && !hasFlag(out, "--output") {
			out = append(out, "--output", "json")
		}
	case "azure":
		if subscription != "" && !hasFlag(out, "--subscription") {
			out = append(out, "--subscription", subscription)
		}
		if readOnly && !hasFlag(out, "-o") && !hasFlag(out, "--output") {
			out = append(out, "-o", "json")
		}
	}
	return out
}

// InterceptEffectiveProject detects `gcloud config get-value project`
// and reports that the caller should short-circuit with the
// impersonated project id directly — the gcloud CLI ignores
// CLOUDSDK_CORE_PROJECT for this particular subcommand.
func InterceptEffectiveProject(argv []string) bool {
	joined := strings.Join(argv, " ")
	return strings.Contains(joined, "config get-value project")
}

// CommandVerb extracts the verb cloud_exec classifies a command by:
// the first recognized read-only/destructive keyword found among
// argv's non-flag tokens, scanning from the end since verbs are
// conventionally the last positional token (e.g. "instances delete").
func CommandVerb(argv []string) string {
	for i := len(argv) - 1; i >= 0; i-- {
		tok := strings.ToLower(argv[i])
		if strings.HasPrefix(tok, "-") {
			continue
		}
		if policy.IsReadOnlyVerb(tok) || policy.IsDestructiveVerb(tok) {
			return tok
		}
	}
	return ""
}
