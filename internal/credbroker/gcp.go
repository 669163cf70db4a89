package credbroker

import (
	"context"
	"fmt"
	"os"
	"time"
)

// GCPImpersonator mints a short-lived OAuth access token that
// impersonates a service account for a project. The actual IAM
// credentials API call is an external collaborator (a thin client
// over Google's generateAccessToken endpoint); this package only
// depends on the narrow port below so it never needs its own copy of
// the Google API client stack.
type GCPImpersonator interface {
	ImpersonateAccessToken(ctx context.Context, serviceAccountEmail string, scopes []string) (token string, expiresAt time.Time, err error)
}

var gcpScopes = []string{"https://www.googleapis.com/auth/cloud-platform"}

// issueGCP mints an isolated GCP bundle. In read-only mode, the
// connection's ReadOnlyServiceAccountEmail is preferred when
// configured; otherwise the standard service account is used and no
// caveat is attached (the caller is expected to layer the read-only
// gate in internal/policy regardless).
func (b *Broker) issueGCP(ctx context.Context, conn *Connection, readOnly bool) (Bundle, error) {
	if conn.ServiceAccountEmail == "" || conn.ProjectID == "" {
		return Bundle{}, fmt.Errorf("%w: gcp connection missing service account or project", ErrIncompleteCredential)
	}

	saEmail := conn.ServiceAccountEmail
	if readOnly && conn.ReadOnlyServiceAccountEmail != "" {
		saEmail = conn.ReadOnlyServiceAccountEmail
	}

	token, expiresAt, err := b.gcp.ImpersonateAccessToken(ctx, saEmail, gcpScopes)
	if err != nil {
		return Bundle{}, fmt.Errorf("%w: %v", ErrAssumeRoleDenied, err)
	}

	configDir, err := os.MkdirTemp("", "aurora-gcp-config-*")
	if err != nil {
		return Bundle{}, fmt.Errorf("credbroker: gcp config dir: %w", err)
	}

	env := newEnvBuilder().
		Set(token, "CLOUDSDK_AUTH_ACCESS_TOKEN", "GOOGLE_OAUTH_ACCESS_TOKEN").
		Set(conn.ProjectID, "CLOUDSDK_CORE_PROJECT", "GOOGLE_CLOUD_PROJECT").
		Set(saEmail, "CLOUDSDK_AUTH_IMPERSONATE_SERVICE_ACCOUNT", "GOOGLE_IMPERSONATE_SERVICE_ACCOUNT").
		Set(configDir, "CLOUDSDK_CONFIG").
		Set(configDir, "HOME").
		Build()

	return Bundle{
		Provider:     ProviderGCP,
		Env:          env,
		ResourceID:   conn.ProjectID,
		ResourceName: saEmail,
		AuthMethod:   "sa-impersonation",
		ExpiresAt:    expiresAt,
	}, nil
}
