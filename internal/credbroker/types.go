// Package credbroker mints short-lived, isolated per-provider
// credential bundles for GCP, AWS, Azure, OVH, Scaleway, and
// Tailscale. No bundle is ever written into process-global state: the
// broker hands back a self-contained environment map (and, where the
// provider needs it, a one-shot auth command) for the caller to pass
// directly into a subprocess's env argument, following the same
// "isolated env without os.Setenv" discipline as the teacher's
// process manager.
package credbroker

import (
	"context"
	"errors"
	"time"
)

// Provider identifies which cloud control plane a bundle was minted for.
type Provider string

const (
	ProviderGCP       Provider = "gcp"
	ProviderAWS       Provider = "aws"
	ProviderAzure     Provider = "azure"
	ProviderOVH       Provider = "ovh"
	ProviderScaleway  Provider = "scaleway"
	ProviderTailscale Provider = "tailscale"
)

// Bundle is an isolated credential bundle: an environment-variable map
// plus an optional one-shot auth command the dispatcher must run
// before the user's command, in the identical environment. Bundles
// are self-contained and short-lived — the caller discards them when
// the call returns, never persisting or logging Env's values.
type Bundle struct {
	Provider     Provider
	Env          map[string]string
	AuthCommand  []string // e.g. az login argv; empty when the provider needs none
	ResourceID   string   // project id, subscription id, account id, tailnet, etc.
	ResourceName string   // human-friendly alias, when cheaply resolvable
	AuthMethod   string   // "sa-impersonation", "sts-assume-role", "service-principal", "oauth-refresh", "api-token"
	ExpiresAt    time.Time

	// ReadOnlyCaveat is set when the bundle's effective permissions
	// could not be proven strictly read-only even though the caller
	// requested read-only mode (AWS: no dedicated read-only role
	// configured, session policy layered as a fallback instead).
	ReadOnlyCaveat *ReadOnlyCaveat
}

// ReadOnlyCaveat documents why a read-only-mode credential request
// could not use a provably read-only identity.
type ReadOnlyCaveat struct {
	Provider Provider
	Reason   string
}

// Failure taxonomy — every broker failure surfaces as one of these
// sentinels (wrapped with context via fmt.Errorf("%w: ...")), never as
// an opaque or provider-SDK-specific error escaping the package.
var (
	ErrMissingConnection    = errors.New("credbroker: no connection configured for provider")
	ErrRefreshTokenExpired  = errors.New("credbroker: refresh token expired with no fallback")
	ErrAssumeRoleDenied     = errors.New("credbroker: STS assume-role denied")
	ErrIncompleteCredential = errors.New("credbroker: stored credential data is incomplete")
)

// Connection is the stored, provider-specific configuration the
// broker reads in order to mint a bundle: role ARNs, refresh tokens,
// tenant/subscription ids, and so on. The broker never reads secret
// storage directly — it consumes this shape through the ConnectionStore
// port, an external collaborator per spec's "opaque get-credentials
// port" contract.
type Connection struct {
	Provider Provider

	// AWS
	RoleARN         string
	ReadOnlyRoleARN string
	ExternalID      string
	DefaultRegion   string
	AccountID       string

	// GCP
	ServiceAccountEmail         string
	ReadOnlyServiceAccountEmail string
	ProjectID                   string

	// Azure
	TenantID       string
	ClientID       string
	ClientSecret   string
	SubscriptionID string

	// OVH / Scaleway
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	APIKey       string
	SecretKey    string

	// Tailscale
	APIToken string
	Tailnet  string
}

// ConnectionStore resolves a principal's stored connection for a
// provider. Implementations live outside this package (a database- or
// secrets-manager-backed adapter); the broker only depends on this
// narrow port.
type ConnectionStore interface {
	Get(ctx context.Context, principal string, provider Provider) (*Connection, error)
	// List returns every configured connection for a provider, used by
	// AWS multi-account fan-out.
	List(ctx context.Context, principal string, provider Provider) ([]*Connection, error)
	// Save persists a refreshed token set (OVH access-token refresh).
	Save(ctx context.Context, principal string, conn *Connection) error
}
