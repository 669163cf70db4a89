package credbroker

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// STSAssumer is the narrow surface of *sts.Client this package needs,
// so tests can substitute a fake without standing up real AWS
// credentials.
type STSAssumer interface {
	AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error)
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// readOnlySessionPolicy is the restrictive IAM session policy layered
// onto the base role when no dedicated read-only role ARN is
// configured. It is intentionally conservative (list/describe/get
// actions only); the caller is still expected to enforce the
// verb-level read-only gate independently (see internal/policy), so
// this is defense in depth rather than the sole enforcement point —
// which is exactly why an unresolvable case is recorded as a caveat
// instead of treated as a hard failure.
const readOnlySessionPolicy = `{
  "Version": "2012-10-17",
  "Statement": [
    {"Effect": "Allow", "Action": ["*:List*", "*:Describe*", "*:Get*"], "Resource": "*"}
  ]
}`

// issueAWS assumes the connection's role via STS. In read-only mode,
// precedence is: a dedicated read-only role ARN first, a restrictive
// session policy layered on the base role as fallback, and —
// if neither is available — continuing with the base role while
// surfacing a ReadOnlyCaveat at connection time (not only on first
// destructive-call failure).
func (b *Broker) issueAWS(ctx context.Context, conn *Connection, readOnly bool) (Bundle, error) {
	if conn.RoleARN == "" {
		return Bundle{}, fmt.Errorf("%w: aws connection missing role arn", ErrIncompleteCredential)
	}

	roleARN := conn.RoleARN
	var sessionPolicy *string
	var caveat *ReadOnlyCaveat

	if readOnly {
		switch {
		case conn.ReadOnlyRoleARN != "":
			roleARN = conn.ReadOnlyRoleARN
		default:
			policy := readOnlySessionPolicy
			sessionPolicy = &policy
			caveat = &ReadOnlyCaveat{
				Provider: ProviderAWS,
				Reason:   "no dedicated read-only role configured; a restrictive session policy was layered on the base role, which can still exceed the role's own permission boundary",
			}
		}
	}

	input := &sts.AssumeRoleInput{
		RoleArn:         aws.String(roleARN),
		RoleSessionName: aws.String("aurora-" + sanitizeSessionName(conn.AccountID)),
	}
	if conn.ExternalID != "" {
		input.ExternalId = aws.String(conn.ExternalID)
	}
	if sessionPolicy != nil {
		input.Policy = sessionPolicy
	}

	out, err := b.awsSTS.AssumeRole(ctx, input)
	if err != nil {
		return Bundle{}, fmt.Errorf("%w: %v", ErrAssumeRoleDenied, err)
	}
	if out.Credentials == nil {
		return Bundle{}, fmt.Errorf("%w: sts returned no credentials", ErrIncompleteCredential)
	}
	creds := out.Credentials

	env := newEnvBuilder().
		Set(aws.ToString(creds.AccessKeyId), "AWS_ACCESS_KEY_ID").
		Set(aws.ToString(creds.SecretAccessKey), "AWS_SECRET_ACCESS_KEY").
		Set(aws.ToString(creds.SessionToken), "AWS_SESSION_TOKEN", "AWS_SECURITY_TOKEN").
		Set(conn.DefaultRegion, "AWS_DEFAULT_REGION", "AWS_REGION").
		Build()

	bundle := Bundle{
		Provider:       ProviderAWS,
		Env:            env,
		ResourceID:     conn.AccountID,
		AuthMethod:     "sts-assume-role",
		ReadOnlyCaveat: caveat,
	}
	if creds.Expiration != nil {
		bundle.ExpiresAt = *creds.Expiration
	} else {
		bundle.ExpiresAt = time.Now().Add(time.Hour)
	}

	if alias, err := b.lookupAccountAlias(ctx); err == nil && alias != "" {
		bundle.ResourceName = alias
	}

	return bundle, nil
}

// lookupAccountAlias validates the assumed role by calling
// get-caller-identity (failure here is non-fatal to the broker call;
// it is purely for UI display), then returns the account id from the
// identity, used as a best-effort alias when no friendlier name is
// configured.
func (b *Broker) lookupAccountAlias(ctx context.Context) (string, error) {
	identity, err := b.awsSTS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", err
	}
	return aws.ToString(identity.Account), nil
}

func sanitizeSessionName(accountID string) string {
	if accountID == "" {
		return "session"
	}
	return accountID
}
