package cloudexec

import "time"

// Envelope is the JSON result of one cloud_exec call.
type Envelope struct {
	Provider       string           `json:"provider"`
	Command        string           `json:"command"`
	Stdout         string           `json:"stdout,omitempty"`
	Stderr         string           `json:"stderr,omitempty"`
	ReturnCode     int              `json:"return_code"`
	IsError        bool             `json:"is_error"`
	ErrorMessage   string           `json:"error_message,omitempty"`
	ResourceID     string           `json:"resource_id,omitempty"`
	ResourceName   string           `json:"resource_name,omitempty"`
	AuthMethod     string           `json:"auth_method,omitempty"`
	Summary        []map[string]any `json:"summary,omitempty"`
	FilterApplied  bool             `json:"filter_applied,omitempty"`
	Original       string           `json:"original,omitempty"`
	Duration       time.Duration    `json:"duration"`
	Cancelled      bool             `json:"cancelled,omitempty"`
	ReadOnlyCaveat string           `json:"read_only_caveat,omitempty"`
}

// CallSignature identifies a cloud_exec invocation for capture
// purposes by its original, unmutated arguments — not the CLI-
// prefixed, flag-injected command that actually ran.
type CallSignature struct {
	Provider string
	Command  string
}

// AccountEnvelope is returned for AWS multi-account fan-out: a map
// keyed by account id to that account's envelope.
type AccountEnvelope map[string]Envelope
