package cloudexec

import (
	"context"
	"errors"
	"testing"

	"github.com/Arvo-AI/aurora/internal/credbroker"
	"github.com/Arvo-AI/aurora/internal/notify"
	"github.com/Arvo-AI/aurora/internal/policy"
)

type fakeConnStore struct {
	conns map[credbroker.Provider]*credbroker.Connection
}

func (f *fakeConnStore) Get(ctx context.Context, principal string, provider credbroker.Provider) (*credbroker.Connection, error) {
	conn, ok := f.conns[provider]
	if !ok {
		return nil, errors.New("not found")
	}
	return conn, nil
}

func (f *fakeConnStore) List(ctx context.Context, principal string, provider credbroker.Provider) ([]*credbroker.Connection, error) {
	if conn, ok := f.conns[provider]; ok {
		return []*credbroker.Connection{conn}, nil
	}
	return nil, nil
}

func (f *fakeConnStore) Save(ctx context.Context, principal string, conn *credbroker.Connection) error {
	return nil
}

func newTestDispatcher() *Dispatcher {
	store := &fakeConnStore{conns: map[credbroker.Provider]*credbroker.Connection{
		credbroker.ProviderAzure: {
			TenantID: "tenant-1", ClientID: "client-1", ClientSecret: "secret-1",
			SubscriptionID: "sub-1",
		},
	}}
	broker := credbroker.New(store, nil, nil, nil)
	return &Dispatcher{
		Broker:   broker,
		Resolver: policy.NewResolver(),
		Policy:   policy.NewPolicy(policy.ProfileFull),
	}
}

func TestDispatchReadOnlyAzureCommand(t *testing.T) {
	d := newTestDispatcher()
	env, err := d.Dispatch(context.Background(), Request{
		Principal: "user-1",
		SessionID: "sess-1",
		Provider:  "azure",
		Command:   "group list",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.AuthMethod != "service-principal" {
		t.Fatalf("got auth method %q", env.AuthMethod)
	}
	if env.ReturnCode != 0 && !env.IsError {
		t.Fatalf("unexpected failure shape: %+v", env)
	}
}

func TestDispatchRequiresConnectionWhenProviderUnresolved(t *testing.T) {
	d := newTestDispatcher()
	_, err := d.Dispatch(context.Background(), Request{
		Principal:      "user-1",
		SessionID:      "sess-1",
		Command:        "group list",
		RecentMessages: []string{"what's the weather like today"},
	})
	if !errors.Is(err, ErrRequiresConnection) {
		t.Fatalf("got %v, want ErrRequiresConnection", err)
	}
}

func TestDispatchDestructiveCommandRequiresConfirmation(t *testing.T) {
	d := newTestDispatcher()
	d.Confirmer = notify.NopConfirmer{Decision: notify.DecisionDenied}
	env, err := d.Dispatch(context.Background(), Request{
		Principal: "user-1",
		SessionID: "sess-1",
		Provider:  "azure",
		Command:   "group delete my-rg",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !env.Cancelled {
		t.Fatalf("expected cancellation when confirmation is denied, got %+v", env)
	}
}

func TestDispatchDestructiveCommandProceedsOnApproval(t *testing.T) {
	d := newTestDispatcher()
	d.Confirmer = notify.NopConfirmer{Decision: notify.DecisionApproved}
	env, err := d.Dispatch(context.Background(), Request{
		Principal: "user-1",
		SessionID: "sess-1",
		Provider:  "azure",
		Command:   "group delete my-rg",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Cancelled {
		t.Fatalf("expected command to proceed on approval, got %+v", env)
	}
}

func TestDispatchUnknownTailscaleVerbRejected(t *testing.T) {
	store := &fakeConnStore{conns: map[credbroker.Provider]*credbroker.Connection{
		credbroker.ProviderTailscale: {APIToken: "tok", Tailnet: "example.ts.net"},
	}}
	d := &Dispatcher{
		Broker:   credbroker.New(store, nil, nil, nil),
		Resolver: policy.NewResolver(),
		Policy:   policy.NewPolicy(policy.ProfileFull),
	}
	_, err := d.Dispatch(context.Background(), Request{
		Principal: "user-1",
		SessionID: "sess-1",
		Provider:  "tailscale",
		Command:   "nonsense-verb foo",
	})
	if err == nil {
		t.Fatal("expected error for unknown tailscale verb")
	}
}
