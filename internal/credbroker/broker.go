package credbroker

import (
	"context"
	"fmt"
)

// Broker mints isolated credential bundles. A single Broker instance
// is constructed at startup with its provider dependencies injected
// and handed into every request scope; it holds no per-call mutable
// state.
type Broker struct {
	store          ConnectionStore
	gcp            GCPImpersonator
	awsSTS         STSAssumer
	ovh            OVHTokenRefresher
	onAccountError func(accountID string, err error)
}

// New constructs a Broker. Any of gcp/awsSTS/ovh may be nil if the
// corresponding provider is not wired in this deployment; requests for
// that provider then fail with ErrMissingConnection-shaped errors
// instead of a panic.
func New(store ConnectionStore, gcp GCPImpersonator, awsSTS STSAssumer, ovh OVHTokenRefresher) *Broker {
	return &Broker{store: store, gcp: gcp, awsSTS: awsSTS, ovh: ovh}
}

// OnAccountError registers a callback invoked for each AWS account
// that fails during multi-account fan-out, so the caller can log it
// without the broker taking a logging dependency of its own.
func (b *Broker) OnAccountError(fn func(accountID string, err error)) {
	b.onAccountError = fn
}

// Issue resolves the principal's stored connection for provider and
// mints an isolated bundle. readOnly reflects the session's current
// mode and only changes which identity AWS/GCP mint under, not
// whether the bundle is minted at all.
func (b *Broker) Issue(ctx context.Context, principal string, provider Provider, readOnly bool) (Bundle, error) {
	conn, err := b.store.Get(ctx, principal, provider)
	if err != nil {
		return Bundle{}, fmt.Errorf("%w: %v", ErrMissingConnection, err)
	}
	if conn == nil {
		return Bundle{}, ErrMissingConnection
	}

	switch provider {
	case ProviderGCP:
		if b.gcp == nil {
			return Bundle{}, fmt.Errorf("%w: gcp impersonation not configured", ErrMissingConnection)
		}
		return b.issueGCP(ctx, conn, readOnly)
	case ProviderAWS:
		if b.awsSTS == nil {
			return Bundle{}, fmt.Errorf("%w: aws sts client not configured", ErrMissingConnection)
		}
		return b.issueAWS(ctx, conn, readOnly)
	case ProviderAzure:
		return b.issueAzure(conn)
	case ProviderOVH:
		if b.ovh == nil {
			return Bundle{}, fmt.Errorf("%w: ovh token refresher not configured", ErrMissingConnection)
		}
		return b.issueOVH(ctx, principal, conn)
	case ProviderScaleway:
		return b.issueScaleway(conn)
	case ProviderTailscale:
		return b.issueTailscale(conn)
	default:
		return Bundle{}, fmt.Errorf("%w: unknown provider %q", ErrMissingConnection, provider)
	}
}
