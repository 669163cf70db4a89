package credbroker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// OVHTokenRefresher exchanges a stored refresh token for a fresh OVH
// access token. The actual HTTP round trip against OVH's OAuth
// endpoint is an external collaborator; this package only depends on
// the narrow port, following the same shape as the teacher's generic
// OAuth provider's token exchange.
type OVHTokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

const ovhRefreshWindow = 5 * time.Minute

// issueOVH reads the stored OAuth token; if it is within 5 minutes of
// expiry, refreshes it first and persists the new token set before
// returning the bundle.
func (b *Broker) issueOVH(ctx context.Context, principal string, conn *Connection) (Bundle, error) {
	if conn.AccessToken == "" {
		return Bundle{}, fmt.Errorf("%w: ovh connection missing access token", ErrIncompleteCredential)
	}

	accessToken := conn.AccessToken
	expiresAt := conn.ExpiresAt

	if !conn.ExpiresAt.IsZero() && time.Until(conn.ExpiresAt) < ovhRefreshWindow {
		if conn.RefreshToken == "" {
			return Bundle{}, fmt.Errorf("%w: ovh access token expiring with no refresh token stored", ErrRefreshTokenExpired)
		}
		token, err := b.ovh.Refresh(ctx, conn.RefreshToken)
		if err != nil {
			return Bundle{}, fmt.Errorf("%w: ovh refresh failed: %v", ErrRefreshTokenExpired, err)
		}
		accessToken = token.AccessToken
		expiresAt = token.Expiry

		refreshed := *conn
		refreshed.AccessToken = token.AccessToken
		if token.RefreshToken != "" {
			refreshed.RefreshToken = token.RefreshToken
		}
		refreshed.ExpiresAt = token.Expiry
		if err := b.store.Save(ctx, principal, &refreshed); err != nil {
			return Bundle{}, fmt.Errorf("credbroker: persisting refreshed ovh token: %w", err)
		}
	}

	env := newEnvBuilder().
		Set(accessToken, "OVH_ACCESS_TOKEN").
		Build()

	return Bundle{
		Provider:   ProviderOVH,
		Env:        env,
		AuthMethod: "oauth-refresh",
		ExpiresAt:  expiresAt,
	}, nil
}

// issueScaleway reads stored API-key data; Scaleway's own API keys do
// not expire on the same short-lived schedule as OVH's OAuth tokens,
// so no refresh step runs here.
func (b *Broker) issueScaleway(conn *Connection) (Bundle, error) {
	if conn.APIKey == "" || conn.SecretKey == "" {
		return Bundle{}, fmt.Errorf("%w: scaleway connection missing api key or secret key", ErrIncompleteCredential)
	}

	env := newEnvBuilder().
		Set(conn.APIKey, "SCW_ACCESS_KEY").
		Set(conn.SecretKey, "SCW_SECRET_KEY").
		Build()

	return Bundle{
		Provider:   ProviderScaleway,
		Env:        env,
		AuthMethod: "api-key",
	}, nil
}

// issueTailscale returns a token and tailnet identifier; Tailscale
// commands are not CLI-backed, so no env is meant for subprocess
// execution — the dispatcher routes them through a REST translator
// instead (spec §4.3 step 8).
func (b *Broker) issueTailscale(conn *Connection) (Bundle, error) {
	if conn.APIToken == "" || conn.Tailnet == "" {
		return Bundle{}, fmt.Errorf("%w: tailscale connection missing api token or tailnet", ErrIncompleteCredential)
	}

	return Bundle{
		Provider:   ProviderTailscale,
		Env:        map[string]string{"TAILSCALE_API_TOKEN": conn.APIToken},
		ResourceID: conn.Tailnet,
		AuthMethod: "api-token",
	}, nil
}
