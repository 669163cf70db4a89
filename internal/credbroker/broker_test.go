package credbroker

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	ststypes "github.com/aws/aws-sdk-go-v2/service/sts/types"
	"golang.org/x/oauth2"
)

type fakeStore struct {
	conns map[Provider][]*Connection
	saved []*Connection
}

func newFakeStore() *fakeStore {
	return &fakeStore{conns: make(map[Provider][]*Connection)}
}

func (f *fakeStore) add(p Provider, c *Connection) {
	c.Provider = p
	f.conns[p] = append(f.conns[p], c)
}

func (f *fakeStore) Get(ctx context.Context, principal string, provider Provider) (*Connection, error) {
	list := f.conns[provider]
	if len(list) == 0 {
		return nil, errors.New("not found")
	}
	return list[0], nil
}

func (f *fakeStore) List(ctx context.Context, principal string, provider Provider) ([]*Connection, error) {
	return f.conns[provider], nil
}

func (f *fakeStore) Save(ctx context.Context, principal string, conn *Connection) error {
	f.saved = append(f.saved, conn)
	f.conns[conn.Provider][0] = conn
	return nil
}

type fakeGCP struct{}

func (fakeGCP) ImpersonateAccessToken(ctx context.Context, sa string, scopes []string) (string, time.Time, error) {
	return "gcp-token-" + sa, time.Now().Add(time.Hour), nil
}

type fakeSTS struct {
	assumeErr error
}

func (f *fakeSTS) AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error) {
	if f.assumeErr != nil {
		return nil, f.assumeErr
	}
	exp := time.Now().Add(time.Hour)
	return &sts.AssumeRoleOutput{
		Credentials: &ststypes.Credentials{
			AccessKeyId:     aws.String("AKIA_FAKE"),
			SecretAccessKey: aws.String("secret"),
			SessionToken:    aws.String("token"),
			Expiration:      &exp,
		},
	}, nil
}

func (f *fakeSTS) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return &sts.GetCallerIdentityOutput{Account: aws.String("111122223333")}, nil
}

type fakeOVH struct{}

func (fakeOVH) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "refreshed-token", RefreshToken: "new-refresh", Expiry: time.Now().Add(time.Hour)}, nil
}

func TestIssueGCPBundle(t *testing.T) {
	store := newFakeStore()
	store.add(ProviderGCP, &Connection{ServiceAccountEmail: "sa@proj.iam.gserviceaccount.com", ProjectID: "proj-1"})
	b := New(store, fakeGCP{}, nil, nil)

	bundle, err := b.Issue(context.Background(), "user-1", ProviderGCP, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.Env["GOOGLE_CLOUD_PROJECT"] != "proj-1" {
		t.Fatalf("expected project env set, got %+v", bundle.Env)
	}
	if bundle.Env["CLOUDSDK_AUTH_ACCESS_TOKEN"] == "" {
		t.Fatal("expected access token set")
	}
}

func TestIssueGCPUsesReadOnlyServiceAccount(t *testing.T) {
	store := newFakeStore()
	store.add(ProviderGCP, &Connection{
		ServiceAccountEmail:         "sa@proj.iam.gserviceaccount.com",
		ReadOnlyServiceAccountEmail: "ro-sa@proj.iam.gserviceaccount.com",
		ProjectID:                   "proj-1",
	})
	b := New(store, fakeGCP{}, nil, nil)

	bundle, err := b.Issue(context.Background(), "user-1", ProviderGCP, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.ResourceName != "ro-sa@proj.iam.gserviceaccount.com" {
		t.Fatalf("expected read-only service account used, got %s", bundle.ResourceName)
	}
}

func TestIssueAWSBundleNoEnvLeakage(t *testing.T) {
	before := os.Environ()

	store := newFakeStore()
	store.add(ProviderAWS, &Connection{RoleARN: "arn:aws:iam::111122223333:role/aurora", DefaultRegion: "us-east-1"})
	b := New(store, nil, &fakeSTS{}, nil)

	bundle, err := b.Issue(context.Background(), "user-1", ProviderAWS, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.Env["AWS_ACCESS_KEY_ID"] == "" {
		t.Fatal("expected access key set in bundle")
	}

	after := os.Environ()
	if len(before) != len(after) {
		t.Fatalf("process environment changed size: before=%d after=%d", len(before), len(after))
	}
	for _, kv := range after {
		if strings.Contains(kv, "AKIA_FAKE") {
			t.Fatal("credential leaked into process environment")
		}
	}
}

func TestIssueAWSReadOnlyFallsBackToSessionPolicyWithCaveat(t *testing.T) {
	store := newFakeStore()
	store.add(ProviderAWS, &Connection{RoleARN: "arn:aws:iam::111122223333:role/aurora"})
	b := New(store, nil, &fakeSTS{}, nil)

	bundle, err := b.Issue(context.Background(), "user-1", ProviderAWS, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.ReadOnlyCaveat == nil {
		t.Fatal("expected a read-only caveat when no dedicated read-only role is configured")
	}
}

func TestIssueAWSReadOnlyRoleSuppressesCaveat(t *testing.T) {
	store := newFakeStore()
	store.add(ProviderAWS, &Connection{
		RoleARN:         "arn:aws:iam::111122223333:role/aurora",
		ReadOnlyRoleARN: "arn:aws:iam::111122223333:role/aurora-ro",
	})
	b := New(store, nil, &fakeSTS{}, nil)

	bundle, err := b.Issue(context.Background(), "user-1", ProviderAWS, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.ReadOnlyCaveat != nil {
		t.Fatal("expected no caveat when a dedicated read-only role is configured")
	}
}

func TestIssueAWSAssumeRoleDenied(t *testing.T) {
	store := newFakeStore()
	store.add(ProviderAWS, &Connection{RoleARN: "arn:aws:iam::111122223333:role/aurora"})
	b := New(store, nil, &fakeSTS{assumeErr: errors.New("access denied")}, nil)

	_, err := b.Issue(context.Background(), "user-1", ProviderAWS, false)
	if !errors.Is(err, ErrAssumeRoleDenied) {
		t.Fatalf("expected ErrAssumeRoleDenied, got %v", err)
	}
}

func TestIssueAzureBuildsLoginArgvNotShellString(t *testing.T) {
	store := newFakeStore()
	store.add(ProviderAzure, &Connection{
		TenantID: "tenant-1", ClientID: "client-1", ClientSecret: "secret-1", SubscriptionID: "sub-1",
	})
	b := New(store, nil, nil, nil)

	bundle, err := b.Issue(context.Background(), "user-1", ProviderAzure, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bundle.AuthCommand) == 0 || bundle.AuthCommand[0] != "az" {
		t.Fatalf("expected az login argv, got %v", bundle.AuthCommand)
	}
	for _, arg := range bundle.AuthCommand {
		if strings.ContainsAny(arg, ";|&$") {
			t.Fatalf("argv element contains shell metacharacters: %q", arg)
		}
	}
}

func TestIssueOVHRefreshesWhenNearExpiry(t *testing.T) {
	store := newFakeStore()
	store.add(ProviderOVH, &Connection{
		AccessToken:  "old-token",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(1 * time.Minute),
	})
	b := New(store, nil, nil, fakeOVH{})

	bundle, err := b.Issue(context.Background(), "user-1", ProviderOVH, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.Env["OVH_ACCESS_TOKEN"] != "refreshed-token" {
		t.Fatalf("expected refreshed token in bundle, got %+v", bundle.Env)
	}
	if len(store.saved) != 1 {
		t.Fatal("expected refreshed token set persisted")
	}
}

func TestIssueOVHSkipsRefreshWhenFarFromExpiry(t *testing.T) {
	store := newFakeStore()
	store.add(ProviderOVH, &Connection{
		AccessToken:  "still-good",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	})
	b := New(store, nil, nil, fakeOVH{})

	bundle, err := b.Issue(context.Background(), "user-1", ProviderOVH, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.Env["OVH_ACCESS_TOKEN"] != "still-good" {
		t.Fatal("expected unchanged token when far from expiry")
	}
	if len(store.saved) != 0 {
		t.Fatal("expected no refresh persisted")
	}
}

func TestIssueScalewayMissingSecretFails(t *testing.T) {
	store := newFakeStore()
	store.add(ProviderScaleway, &Connection{APIKey: "key-only"})
	b := New(store, nil, nil, nil)

	_, err := b.Issue(context.Background(), "user-1", ProviderScaleway, false)
	if !errors.Is(err, ErrIncompleteCredential) {
		t.Fatalf("expected ErrIncompleteCredential, got %v", err)
	}
}

func TestIssueTailscaleBundle(t *testing.T) {
	store := newFakeStore()
	store.add(ProviderTailscale, &Connection{APIToken: "tok", Tailnet: "example.ts.net"})
	b := New(store, nil, nil, nil)

	bundle, err := b.Issue(context.Background(), "user-1", ProviderTailscale, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.ResourceID != "example.ts.net" {
		t.Fatalf("expected tailnet as resource id, got %s", bundle.ResourceID)
	}
}

func TestIssueMissingConnectionSurfacesTypedError(t *testing.T) {
	store := newFakeStore()
	b := New(store, nil, nil, nil)

	_, err := b.Issue(context.Background(), "user-1", ProviderAWS, false)
	if !errors.Is(err, ErrMissingConnection) {
		t.Fatalf("expected ErrMissingConnection, got %v", err)
	}
}

func TestIssueAWSAllAccountsSkipsFailures(t *testing.T) {
	store := newFakeStore()
	store.add(ProviderAWS, &Connection{RoleARN: "arn:aws:iam::111111111111:role/aurora", AccountID: "111111111111"})
	store.add(ProviderAWS, &Connection{RoleARN: "arn:aws:iam::222222222222:role/aurora", AccountID: "222222222222"})

	callCount := 0
	fake := &countingSTS{fakeSTS: &fakeSTS{}, onCall: func() int { callCount++; return callCount }}
	b := New(store, nil, fake, nil)

	var failedAccounts []string
	b.OnAccountError(func(accountID string, err error) {
		failedAccounts = append(failedAccounts, accountID)
	})
	fake.failAccountCall = 2

	results, err := b.IssueAWSAllAccounts(context.Background(), "user-1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 successful account, got %d (failed=%v)", len(results), failedAccounts)
	}
}

type countingSTS struct {
	*fakeSTS
	onCall          func() int
	failAccountCall int
}

func (c *countingSTS) AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error) {
	n := c.onCall()
	if n == c.failAccountCall {
		return nil, errors.New("denied")
	}
	return c.fakeSTS.AssumeRole(ctx, params, optFns...)
}
