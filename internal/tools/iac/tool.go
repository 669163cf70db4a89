// Package iac wraps internal/iac.Dispatcher as the iac_tool agent.Tool
// described in spec §4.1.1/§4.4.
package iac

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Arvo-AI/aurora/internal/agent"
	"github.com/Arvo-AI/aurora/internal/iac"
)

// Tool adapts an iac.Dispatcher to the agent.Tool contract.
type Tool struct {
	Dispatcher *iac.Dispatcher
}

// New creates the iac_tool tool over an already-wired dispatcher.
func New(dispatcher *iac.Dispatcher) *Tool {
	return &Tool{Dispatcher: dispatcher}
}

func (t *Tool) Name() string { return "iac_tool" }

func (t *Tool) Description() string {
	return "Write, plan, apply, or destroy Terraform in the session's isolated workspace."
}

func (t *Tool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"action": {"type": "string", "enum": ["write", "plan", "apply", "destroy"]},
			"provider": {"type": "string", "description": "Provider to issue scoped credentials for (gcp, aws, azure, ovh, scaleway)."},
			"path": {"type": "string", "description": "Relative path of the .tf file to write (action=write)."},
			"content": {"type": "string", "description": "Terraform HCL content to write (action=write)."},
			"region": {"type": "string", "description": "Region override for the written resource (action=write)."},
			"vars": {"type": "object", "additionalProperties": {"type": "string"}, "description": "Terraform variable overrides (plan/apply/destroy)."}
		},
		"required": ["action", "provider"]
	}`)
}

type params struct {
	Action   string            `json:"action"`
	Provider string            `json:"provider"`
	Path     string            `json:"path"`
	Content  string            `json:"content"`
	Region   string            `json:"region"`
	Vars     map[string]string `json:"vars"`
}

func (t *Tool) Execute(ctx context.Context, raw json.RawMessage) (*agent.ToolResult, error) {
	var p params
	if err := json.Unmarshal(raw, &p); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid iac_tool arguments: %v", err), IsError: true}, nil
	}
	if p.Action == "" || p.Provider == "" {
		return &agent.ToolResult{Content: "iac_tool requires action and provider", IsError: true}, nil
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

	write := iac.WriteRequest{
		Path:     p.Path,
		Content:  p.Content,
		Provider: p.Provider,
		Region:   p.Region,
	}

	result, err := t.Dispatcher.Dispatch(ctx, principal, sessionID, p.Provider, iac.Action(p.Action), write, p.Vars)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}

	body, err := json.Marshal(result)
	if err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("iac_tool: marshal result: %v", err), IsError: true}, nil
	}
	return &agent.ToolResult{Content: string(body)}, nil
}
