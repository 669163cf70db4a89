// Package iac implements the Infrastructure-as-Code dispatcher: a
// per-session Terraform workspace, provider scaffolding, and the
// plan/apply/destroy protocol, sharing its subprocess runner with
// internal/cloudexec rather than duplicating it.
package iac

import (
	"regexp"
	"strings"
)

// providerPatterns mirrors the teacher's resource-prefix detection:
// order matters, more specific prefixes are checked first so that,
// e.g., a Terraform body mixing "azurerm_" and a stray "aws_" data
// source still resolves to the provider declared by its own blocks
// rather than whichever regexp happens to run first.
var providerPatterns = []struct {
	provider string
	regexes  []*regexp.Regexp
}{
	{"scaleway", []*regexp.Regexp{
		regexp.MustCompile(`\bscaleway_`),
		regexp.MustCompile(`provider\s+"scaleway"`),
	}},
	{"ovh", []*regexp.Regexp{
		regexp.MustCompile(`\bovh_`),
		regexp.MustCompile(`provider\s+"ovh"`),
	}},
	{"azure", []*regexp.Regexp{
		regexp.MustCompile(`\bazurerm_`),
		regexp.MustCompile(`\bazuread_`),
		regexp.MustCompile(`provider\s+"azurerm"`),
	}},
	{"aws", []*regexp.Regexp{
		regexp.MustCompile(`\baws_`),
		regexp.MustCompile(`provider\s+"aws"`),
	}},
	{"gcp", []*regexp.Regexp{
		regexp.MustCompile(`\bgoogle_`),
		regexp.MustCompile(`\bgoogle-beta_`),
		regexp.MustCompile(`provider\s+"google"`),
	}},
}

// DetectProviderFromContent detects the cloud provider from Terraform
// resource/data-source prefixes in content — used when a user names a
// provider with a typo but the model still emits correctly-prefixed
// resources. Returns "" when nothing matches.
func DetectProviderFromContent(content string) string {
	if content == "" {
		return ""
	}
	lower := strings.ToLower(content)
	for _, p := range providerPatterns {
		for _, re := range p.regexes {
			if re.MatchString(lower) {
				return p.provider
			}
		}
	}
	return ""
}

// stateResourcePrefixes classifies a Terraform state resource "type"
// field by provider, for the state-conflict guard.
var stateResourcePrefixes = []struct {
	prefix   string
	provider string
}{
	{"azurerm_", "azure"},
	{"aws_", "aws"},
	{"ovh_", "ovh"},
	{"scaleway_", "scaleway"},
	{"google_", "gcp"},
}

// DetectProviderFromResourceType classifies one Terraform state
// resource's "type" field by provider, or "" if it matches none of the
// known prefixes.
func DetectProviderFromResourceType(resourceType string) string {
	for _, p := range stateResourcePrefixes {
		if strings.HasPrefix(resourceType, p.prefix) {
			return p.provider
		}
	}
	return ""
}
