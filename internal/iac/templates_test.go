package iac

import (
	"strings"
	"testing"
)

func TestRenderProviderConfigGCP(t *testing.T) {
	out, err := RenderProviderConfig("gcp", "my-project", "us-central1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `project = "my-project"`) {
		t.Fatalf("got %q", out)
	}
}

func TestRenderProviderConfigAWS(t *testing.T) {
	out, err := RenderProviderConfig("aws", "us-east-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `region = "us-east-1"`) {
		t.Fatalf("got %q", out)
	}
}

func TestRenderProviderConfigUnknownFallsBackToGCP(t *testing.T) {
	out, err := RenderProviderConfig("not-a-real-provider", "my-project", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `provider "google"`) {
		t.Fatalf("got %q", out)
	}
}

func TestHasOwnProviderBlock(t *testing.T) {
	if !HasOwnProviderBlock(`terraform {
  required_providers {}
}`) {
		t.Fatal("expected terraform block to be detected")
	}
	if !HasOwnProviderBlock(`provider "aws" {}`) {
		t.Fatal("expected provider block to be detected")
	}
	if HasOwnProviderBlock(`resource "aws_instance" "web" {}`) {
		t.Fatal("expected no provider/terraform block to be detected")
	}
}
