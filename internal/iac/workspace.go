package iac

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var (
	hasTerraformBlock = regexp.MustCompile(`(?m)^\s*terraform\s*\{`)
	hasProviderBlock  = regexp.MustCompile(`(?m)^\s*provider\s+"`)
)

// Workspace locates and guards one (principal, session) Terraform
// working directory under root.
type Workspace struct {
	root string
}

// NewWorkspace roots every subsequent call under root (e.g.
// "/var/lib/aurora/terraform_workdir" — analogous to the teacher's
// terminal-pod home directory, but this package never itself shells
// out to a pod; callers are expected to mount or otherwise make root
// writable).
func NewWorkspace(root string) *Workspace {
	return &Workspace{root: root}
}

// Dir returns the per-session directory "<root>/user_<principal>/session_<sessionID>",
// creating it if absent.
func (w *Workspace) Dir(principal, sessionID string) (string, error) {
	dir := filepath.Join(w.root, "user_"+principal, "session_"+sessionID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("iac: create workspace dir: %w", err)
	}
	return dir, nil
}

// stateResource is the minimal shape read out of terraform.tfstate to
// classify which provider the existing state belongs to.
type stateResource struct {
	Type string `json:"type"`
}

type tfState struct {
	Resources []stateResource `json:"resources"`
}

// GuardProviderSwitch implements the state-conflict guard (spec P5):
// if terraform.tfstate exists and its resources were created under a
// provider different from currentProvider, wipe .terraform/,
// .terraform.lock.hcl, and terraform.tfstate before the caller
// proceeds. Running the guard twice in a row with the same provider
// is a no-op — it only ever deletes on an actual mismatch.
func GuardProviderSwitch(dir, currentProvider string) error {
	statePath := filepath.Join(dir, "terraform.tfstate")
	data, err := os.ReadFile(statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("iac: read state: %w", err)
	}

	var state tfState
	if err := json.Unmarshal(data, &state); err != nil {
		// An unreadable state file is cleared rather than left to
		// silently break the next plan/apply.
		return wipeState(dir)
	}

	stateProvider := ""
	for _, r := range state.Resources {
		if p := DetectProviderFromResourceType(r.Type); p != "" {
			stateProvider = p
			break
		}
	}

	if stateProvider == "" || stateProvider == currentProvider {
		return nil
	}
	return wipeState(dir)
}

func wipeState(dir string) error {
	for _, name := range []string{"terraform.tfstate", ".terraform.lock.hcl"} {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("iac: remove %s: %w", name, err)
		}
	}
	if err := os.RemoveAll(filepath.Join(dir, ".terraform")); err != nil {
		return fmt.Errorf("iac: remove .terraform: %w", err)
	}
	return nil
}

// HasOwnProviderBlock reports whether content already declares its
// own terraform{} or provider{} block, in which case iac_write must
// not also scaffold provider.tf (avoids a "duplicate required
// providers" failure).
func HasOwnProviderBlock(content string) bool {
	return hasTerraformBlock.MatchString(content) || hasProviderBlock.MatchString(content)
}
