package cloudexec

import "strings"

// providerSignals is the per-provider keyword/service/CLI/deployment-
// pattern matrix used to score recent user messages when no explicit
// provider preference was given. Each hit adds 1 to that provider's
// score; the last message in RecentMessages is scored twice, so it
// outweighs older history without discarding it entirely.
var providerSignals = map[string][]string{
	"gcp": {
		"gcloud", "gsutil", "bq ", "gke", "compute engine", "cloud run",
		"cloud sql", "bigquery", "google cloud", "gcp", "project id",
		"us-central1", "europe-west",
	},
	"aws": {
		"aws ", "ec2", "s3", "eks", "lambda", "cloudformation", "iam role",
		"rds", "ecs", "cloudwatch", "us-east-1", "us-west-2", "arn:aws",
	},
	"azure": {
		"az ", "azure", "resource group", "aks", "azurerm", "subscription id",
		"cosmos db", "blob storage", "eastus", "westeurope",
	},
	"ovh": {
		"ovhcloud", "ovh ", "public cloud ovh",
	},
	"scaleway": {
		"scaleway", "scw ", "instance scaleway",
	},
	"tailscale": {
		"tailscale", "tailnet", "acl.json", "magicdns",
	},
}

// ResolveProvider scores recentMessages against providerSignals (spec
// §4.3 step 1: "derive it by scoring the recent user messages against
// a per-provider keyword/service/CLI/deployment-pattern matrix; the
// latest message outweighs history"). Returns ok=false when nothing
// scores, which the dispatcher turns into a requires-connection error.
func ResolveProvider(recentMessages []string) (string, bool) {
	scores := make(map[string]int, len(providerSignals))

	for i, msg := range recentMessages {
		lower := strings.ToLower(msg)
		weight := 1
		if i == len(recentMessages)-1 {
			weight = 2
		}
		for provider, signals := range providerSignals {
			for _, signal := range signals {
				if strings.Contains(lower, signal) {
					scores[provider] += weight
				}
			}
		}
	}

	best := ""
	bestScore := 0
	tie := false
	for provider, score := range scores {
		if score > bestScore {
			best, bestScore, tie = provider, score, false
		} else if score == bestScore && score > 0 {
			tie = true
		}
	}

	if bestScore == 0 || tie {
		return "", false
	}
	return best, true
}
