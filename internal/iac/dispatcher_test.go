package iac

import (
	"context"
	"errors"
	"testing"

	"github.com/Arvo-AI/aurora/internal/credbroker"
)

type iacFakeStore struct {
	conns map[credbroker.Provider]*credbroker.Connection
}

func (f *iacFakeStore) Get(ctx context.Context, principal string, provider credbroker.Provider) (*credbroker.Connection, error) {
	conn, ok := f.conns[provider]
	if !ok {
		return nil, errors.New("not found")
	}
	return conn, nil
}

func (f *iacFakeStore) List(ctx context.Context, principal string, provider credbroker.Provider) ([]*credbroker.Connection, error) {
	return nil, nil
}

func (f *iacFakeStore) Save(ctx context.Context, principal string, conn *credbroker.Connection) error {
	return nil
}

func TestDispatchWriteAction(t *testing.T) {
	store := &iacFakeStore{conns: map[credbroker.Provider]*credbroker.Connection{
		credbroker.ProviderAzure: {
			TenantID: "tenant-1", ClientID: "client-1", ClientSecret: "secret-1", SubscriptionID: "sub-1",
		},
	}}
	d := &Dispatcher{
		Workspace: NewWorkspace(t.TempDir()),
		Broker:    credbroker.New(store, nil, nil, nil),
	}

	result, err := d.Dispatch(context.Background(), "user-1", "sess-1", "azure", ActionWrite, WriteRequest{
		Path:    "main.tf",
		Content: `resource "azurerm_resource_group" "rg" {}`,
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Write == nil || !result.Write.ProviderTFWritten {
		t.Fatalf("expected write result with provider.tf written: %+v", result)
	}
}

func TestDispatchUnknownActionErrors(t *testing.T) {
	store := &iacFakeStore{conns: map[credbroker.Provider]*credbroker.Connection{
		credbroker.ProviderAzure: {TenantID: "t", ClientID: "c", ClientSecret: "s", SubscriptionID: "sub"},
	}}
	d := &Dispatcher{
		Workspace: NewWorkspace(t.TempDir()),
		Broker:    credbroker.New(store, nil, nil, nil),
	}
	_, err := d.Dispatch(context.Background(), "user-1", "sess-1", "azure", Action("bogus"), WriteRequest{}, nil)
	if err == nil {
		t.Fatal("expected error for unknown action")
	}
}
