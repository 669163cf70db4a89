// Package cloudexec wraps internal/cloudexec.Dispatcher as the
// cloud_exec agent.Tool described in spec §4.1.1/§4.3.
package cloudexec

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Arvo-AI/aurora/internal/agent"
	"github.com/Arvo-AI/aurora/internal/cloudexec"
	"github.com/Arvo-AI/aurora/internal/sessions"
)

// Tool adapts a cloudexec.Dispatcher to the agent.Tool contract the
// turn loop calls into. Principal is taken from the session key so
// the credential broker and project resolver see a stable identity
// across turns of the same conversation.
type Tool struct {
	Dispatcher *cloudexec.Dispatcher
	Sessions   sessions.Store
	Timeout    time.Duration
}

// New creates the cloud_exec tool over an already-wired dispatcher.
func New(dispatcher *cloudexec.Dispatcher, store sessions.Store) *Tool {
	return &Tool{Dispatcher: dispatcher, Sessions: store, Timeout: 2 * time.Minute}
}

func (t *Tool) Name() string { return "cloud_exec" }

func (t *Tool) Description() string {
	return "Run a GCP/AWS/Azure/OVH/Scaleway CLI command or a Tailscale admin action against the caller's connected accounts."
}

func (t *Tool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"command": {"type": "string", "description": "Full CLI command line, e.g. 'gcloud compute instances list'."},
			"provider": {"type": "string", "description": "Provider hint (gcp, aws, azure, ovh, scaleway, tailscale). Inferred from conversation if omitted."},
			"account": {"type": "string", "description": "Explicit AWS account override."},
			"output_file": {"type": "string", "description": "Path to persist raw stdout (kubeconfig, helm values, etc.)."},
			"read_only": {"type": "boolean", "description": "Force read-only execution even for a command that looks mutating."}
		},
		"required": ["command"]
	}`)
}

type params struct {
	Command    string `json:"command"`
	Provider   string `json:"provider"`
	Account    string `json:"account"`
	OutputFile string `json:"output_file"`
	ReadOnly   bool   `json:"read_only"`
}

func (t *Tool) Execute(ctx context.Context, raw json.RawMessage) (*agent.ToolResult, error) {
	var p params
	if err := json.Unmarshal(raw, &p); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid cloud_exec arguments: %v", err), IsError: true}, nil
	}
	if p.Command == "" {
		return &agent.ToolResult{Content: "cloud_exec requires a command", IsError: true}, nil
	}

	session := agent.SessionFromContext(ctx)
	principal, sessionID := "", ""
	if session != nil {
		principal = session.Key
		if principal == "" {
			principal = session.ID
		}
		sessionID = session.ID
	}

	req := cloudexec.Request{
		Principal:      principal,
		SessionID:      sessionID,
		Provider:       p.Provider,
		Command:        p.Command,
		Account:        p.Account,
		Timeout:        t.Timeout,
		OutputFile:     p.OutputFile,
		ReadOnly:       p.ReadOnly,
		RecentMessages: t.recentMessages(ctx, sessionID),
	}

	envelope, err := t.Dispatcher.Dispatch(ctx, req)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("cloud_exec: marshal result: %v", err), IsError: true}, nil
	}
	return &agent.ToolResult{Content: string(body), IsError: envelope.IsError}, nil
}

// recentMessages feeds the last few turns of conversation to the
// provider-inference heuristic so the model doesn't have to repeat
// "use gcp" on every call within one chat.
func (t *Tool) recentMessages(ctx context.Context, sessionID string) []string {
	if t.Sessions == nil || sessionID == "" {
		return nil
	}
	history, err := t.Sessions.GetHistory(ctx, sessionID, 6)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(history))
	for _, msg := range history {
		if msg != nil && msg.Content != "" {
			out = append(out, msg.Content)
		}
	}
	return out
}
