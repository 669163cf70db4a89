package credbroker

import "fmt"

// issueAzure builds an isolated service-principal bundle plus the
// az login argv the dispatcher must execute (in the same isolated
// env) before the user's command. The argv is built as a []string,
// never a shell string, so the dispatcher can exec.Command it
// directly with no shell-injection surface.
func (b *Broker) issueAzure(conn *Connection) (Bundle, error) {
	if conn.TenantID == "" || conn.ClientID == "" || conn.ClientSecret == "" || conn.SubscriptionID == "" {
		return Bundle{}, fmt.Errorf("%w: azure connection missing tenant/client/secret/subscription", ErrIncompleteCredential)
	}

	env := newEnvBuilder().
		Set(conn.TenantID, "AZURE_TENANT_ID").
		Set(conn.ClientID, "AZURE_CLIENT_ID").
		Set(conn.ClientSecret, "AZURE_CLIENT_SECRET").
		Set(conn.SubscriptionID, "AZURE_SUBSCRIPTION_ID").
		Build()

	authCommand := []string{
		"az", "login", "--service-principal",
		"-u", conn.ClientID,
		"-p", conn.ClientSecret,
		"--tenant", conn.TenantID,
	}

	return Bundle{
		Provider:    ProviderAzure,
		Env:         env,
		AuthCommand: authCommand,
		ResourceID:  conn.SubscriptionID,
		AuthMethod:  "service-principal",
	}, nil
}
