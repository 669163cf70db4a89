package security

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Arvo-AI/aurora/internal/config"
)

// auditConfigContent checks configuration content for security issues:
// secrets detection and insecure defaults.
func auditConfigContent(cfg *config.Config) []AuditFinding {
	var findings []AuditFinding

	if cfg == nil {
		return findings
	}

	findings = append(findings, auditSecretsInConfig(cfg)...)
	findings = append(findings, auditAuthConfig(cfg)...)
	findings = append(findings, auditToolPolicies(cfg)...)

	return findings
}

// auditSecretsInConfig checks for potential secrets that look like they might
// be hardcoded rather than coming from environment variables.
func auditSecretsInConfig(cfg *config.Config) []AuditFinding {
	var findings []AuditFinding

	// Patterns that suggest a secret is hardcoded (not from env var)
	hardcodedPatterns := []*regexp.Regexp{
		regexp.MustCompile(`^sk-[a-zA-Z0-9]{20,}`),      // OpenAI/Anthropic-style API key
		regexp.MustCompile(`^sk-or-[a-zA-Z0-9-]{20,}`),  // OpenRouter API key
		regexp.MustCompile(`^ghp_[a-zA-Z0-9]{36}`),      // GitHub personal access token
		regexp.MustCompile(`^gho_[a-zA-Z0-9]{36}`),      // GitHub OAuth token
		regexp.MustCompile(`^github_pat_[a-zA-Z0-9_]+`), // GitHub fine-grained PAT
		regexp.MustCompile(`^AKIA[0-9A-Z]{16}`),         // AWS access key
		regexp.MustCompile(`^AIza[0-9A-Za-z_-]{35}`),    // Google API key
	}

	for providerName, provider := range cfg.LLM.Providers {
		if provider.APIKey == "" {
			continue
		}
		for _, pattern := range hardcodedPatterns {
			if pattern.MatchString(provider.APIKey) {
				findings = append(findings, AuditFinding{
					CheckID:     fmt.Sprintf("config.hardcoded_api_key.%s", providerName),
					Severity:    SeverityWarn,
					Title:       fmt.Sprintf("Potential hardcoded API key in %s provider", providerName),
					Detail:      fmt.Sprintf("The API key for llm.providers.%s appears to be hardcoded. Consider using environment variables.", providerName),
					Remediation: "Use environment variables (e.g. OPENROUTER_API_KEY) instead of hardcoding secrets in config files.",
				})
				break
			}
		}
	}

	if cfg.Database.URL != "" && containsEmbeddedPassword(cfg.Database.URL) {
		findings = append(findings, AuditFinding{
			CheckID:     "config.database_password_in_url",
			Severity:    SeverityWarn,
			Title:       "Database URL may contain embedded password",
			Detail:      "The database.url appears to contain an embedded password. Consider using environment variables.",
			Remediation: "Use DATABASE_URL environment variable or separate password configuration.",
		})
	}

	return findings
}

// containsEmbeddedPassword checks if a URL contains a password component.
func containsEmbeddedPassword(url string) bool {
	if !strings.Contains(url, "://") {
		return false
	}
	parts := strings.SplitN(url, "://", 2)
	if len(parts) != 2 {
		return false
	}
	authPart := strings.SplitN(parts[1], "@", 2)
	if len(authPart) != 2 || !strings.Contains(authPart[0], ":") {
		return false
	}
	userPass := strings.SplitN(authPart[0], ":", 2)
	return len(userPass) == 2 && userPass[1] != "" && !strings.HasPrefix(userPass[1], "${")
}

// auditAuthConfig flags a missing or too-short JWT signing secret — the
// secret that signs short-lived bundle-reference tokens handed to the
// transport layer.
func auditAuthConfig(cfg *config.Config) []AuditFinding {
	var findings []AuditFinding

	secret := strings.TrimSpace(cfg.Auth.JWTSecret)
	switch {
	case secret == "":
		findings = append(findings, AuditFinding{
			CheckID:     "config.auth_jwt_secret_missing",
			Severity:    SeverityCritical,
			Title:       "JWT signing secret is not configured",
			Detail:      "auth.jwt_secret is empty; bundle-reference tokens cannot be signed securely.",
			Remediation: "Set auth.jwt_secret from a generated, high-entropy value.",
		})
	case len(secret) < 32:
		findings = append(findings, AuditFinding{
			CheckID:     "config.auth_jwt_secret_weak",
			Severity:    SeverityWarn,
			Title:       "JWT signing secret is short",
			Detail:      "auth.jwt_secret is under 32 characters, which is weak for HMAC signing.",
			Remediation: "Use a secret of at least 32 random bytes.",
		})
	}

	return findings
}

// auditToolPolicies flags a default-allow tool policy, which lets any
// tool run (including destructive cloud_exec/iac_tool verbs) unless an
// explicit deny rule exists.
func auditToolPolicies(cfg *config.Config) []AuditFinding {
	var findings []AuditFinding

	policy := strings.ToLower(strings.TrimSpace(cfg.Tools.Policies.Default))
	if policy == "allow" {
		findings = append(findings, AuditFinding{
			CheckID:     "config.tools_default_allow",
			Severity:    SeverityWarn,
			Title:       "Default tool policy is allow",
			Detail:      "tools.policies.default is 'allow', so any tool not explicitly denied can run, including destructive cloud_exec/iac_tool verbs.",
			Remediation: "Set tools.policies.default to 'deny' and allowlist specific tools/verbs.",
		})
	}

	return findings
}
