package iac

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteRequest is one iac_write invocation.
type WriteRequest struct {
	Principal  string
	SessionID  string
	Path       string
	Content    string
	Provider   string // explicit preference; "" triggers content-based detection
	ResourceID string
	Region     string
}

// WriteResult mirrors the envelope fields spec §4.4's iac_write
// returns to the caller.
type WriteResult struct {
	Path              string
	TerraformDir      string
	ResourceID        string
	Provider          string
	ProviderTFWritten bool
}

// Write persists content at path inside the session's Terraform
// workspace, running the state-conflict guard first and scaffolding
// provider.tf unless content already declares its own terraform{} /
// provider{} block.
func Write(ws *Workspace, req WriteRequest) (WriteResult, error) {
	dir, err := ws.Dir(req.Principal, req.SessionID)
	if err != nil {
		return WriteResult{}, err
	}

	provider := req.Provider
	if provider == "" {
		provider = DetectProviderFromContent(req.Content)
	}
	if provider == "" {
		provider = "gcp"
	}

	if err := GuardProviderSwitch(dir, provider); err != nil {
		return WriteResult{}, err
	}

	filePath := filepath.Join(dir, req.Path)
	if err := os.MkdirAll(filepath.Dir(filePath), 0o750); err != nil {
		return WriteResult{}, fmt.Errorf("iac: create parent dirs: %w", err)
	}
	if err := os.WriteFile(filePath, []byte(req.Content), 0o640); err != nil {
		return WriteResult{}, fmt.Errorf("iac: write %s: %w", req.Path, err)
	}

	result := WriteResult{Path: filePath, TerraformDir: dir, ResourceID: req.ResourceID, Provider: provider}

	providerFile := filepath.Join(dir, "provider.tf")
	if HasOwnProviderBlock(req.Content) {
		// The user's own content declares terraform{}/provider{}; any
		// previously auto-generated provider.tf must be removed or
		// `terraform init` fails with a duplicate-provider error.
		if err := os.Remove(providerFile); err != nil && !os.IsNotExist(err) {
			return WriteResult{}, fmt.Errorf("iac: remove stale provider.tf: %w", err)
		}
		return result, nil
	}

	rendered, err := RenderProviderConfig(provider, req.ResourceID, req.Region)
	if err != nil {
		return WriteResult{}, err
	}
	if err := os.WriteFile(providerFile, []byte(rendered), 0o640); err != nil {
		return WriteResult{}, fmt.Errorf("iac: write provider.tf: %w", err)
	}
	result.ProviderTFWritten = true
	return result, nil
}
