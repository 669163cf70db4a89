package credbroker

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// AccountBundle pairs an AWS account id with the bundle minted for
// it, for multi-account fan-out results.
type AccountBundle struct {
	AccountID string
	Bundle    Bundle
}

// IssueAWSAllAccounts fans the bundle-minting call out across every
// AWS connection the principal has configured, bounded to 10
// concurrent assume-role calls. A failing account is logged by the
// caller and skipped; the caller receives only the accounts that
// succeeded, matching the contract that multi-account dispatch never
// fails wholesale because one account's role assumption failed.
func (b *Broker) IssueAWSAllAccounts(ctx context.Context, principal string, readOnly bool) ([]AccountBundle, error) {
	conns, err := b.store.List(ctx, principal, ProviderAWS)
	if err != nil {
		return nil, err
	}

	results := make([]AccountBundle, len(conns))
	ok := make([]bool, len(conns))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(10)

	for i, conn := range conns {
		i, conn := i, conn
		g.Go(func() error {
			bundle, err := b.issueAWS(gctx, conn, readOnly)
			if err != nil {
				if b.onAccountError != nil {
					b.onAccountError(conn.AccountID, err)
				}
				return nil
			}
			results[i] = AccountBundle{AccountID: conn.AccountID, Bundle: bundle}
			ok[i] = true
			return nil
		})
	}
	// errgroup.Group.Go never returns a non-nil error here (failures
	// are swallowed per-account above), so Wait only propagates a
	// context cancellation.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]AccountBundle, 0, len(results))
	for i, succeeded := range ok {
		if succeeded {
			out = append(out, results[i])
		}
	}
	return out, nil
}
