package cloudexec

import "testing"

func TestResolveProviderSingleSignal(t *testing.T) {
	provider, ok := ResolveProvider([]string{"please list my compute instances in us-central1-a"})
	if !ok || provider != "gcp" {
		t.Fatalf("got %q, %v, want gcp", provider, ok)
	}
}

func TestResolveProviderWeightsLatestMessage(t *testing.T) {
	history := []string{
		"earlier we talked about ec2 and s3",
		"now please check azure resource group costs",
	}
	provider, ok := ResolveProvider(history)
	if !ok || provider != "azure" {
		t.Fatalf("got %q, %v, want azure (latest message should outweigh history)", provider, ok)
	}
}

func TestResolveProviderNoSignalFails(t *testing.T) {
	_, ok := ResolveProvider([]string{"what's the weather like today"})
	if ok {
		t.Fatal("expected no provider to resolve")
	}
}

func TestResolveProviderTieFails(t *testing.T) {
	_, ok := ResolveProvider([]string{"aws"})
	// "aws " (with trailing space) is the signal; bare "aws" shouldn't
	// match any signal exactly, so no provider should resolve.
	if ok {
		t.Fatal("expected no confident provider resolution")
	}
}
