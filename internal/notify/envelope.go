package notify

import (
	"encoding/json"
	"time"
)

// EventType is the socket-level event discriminator from spec §4.8/§6.
type EventType string

const (
	EventToolCall          EventType = "tool_call"
	EventToolResult        EventType = "tool_result"
	EventToolError         EventType = "tool_error"
	EventToastNotification EventType = "toast_notification"
)

// ToolCallStatus qualifies a tool_call envelope: either a command is
// running, or it is awaiting_confirmation and will be followed by a
// confirmation RPC round trip.
type ToolCallStatus string

const (
	StatusRunning              ToolCallStatus = "running"
	StatusAwaitingConfirmation ToolCallStatus = "awaiting_confirmation"
)

// Envelope is the validated wire shape for one socket event.
type Envelope struct {
	Type      EventType    `json:"type"`
	Data      EnvelopeData `json:"data"`
	SessionID string       `json:"session_id,omitempty"`
	UserID    string       `json:"user_id,omitempty"`
}

// EnvelopeData is the nested payload shared by all event types; only
// the fields relevant to Type are expected to be populated.
type EnvelopeData struct {
	ToolName   string          `json:"tool_name,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Input      json.RawMessage `json:"input,omitempty"`
	ToolInput  json.RawMessage `json:"tool_input,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
	Error      string          `json:"error,omitempty"`
	Status     ToolCallStatus  `json:"status,omitempty"`
	Message    string          `json:"message,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// minimalFallback is what gets sent when env fails to round-trip
// through the JSON encoder, per spec §4.8: "failures fall back to a
// minimal envelope stating the tool completed."
func minimalFallback(original Envelope) Envelope {
	return Envelope{
		Type:      original.Type,
		SessionID: original.SessionID,
		UserID:    original.UserID,
		Data: EnvelopeData{
			ToolName:  original.Data.ToolName,
			Status:    original.Data.Status,
			Message:   "tool completed",
			Timestamp: time.Now(),
		},
	}
}

// Validate round-trips env through the JSON encoder/decoder and
// substitutes the minimal fallback envelope if that round trip fails.
func Validate(env Envelope) Envelope {
	raw, err := json.Marshal(env)
	if err != nil {
		return minimalFallback(env)
	}
	var decoded Envelope
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return minimalFallback(env)
	}
	return decoded
}

// ToolCall builds a running/awaiting-confirmation tool_call envelope.
func ToolCall(sessionID, userID, toolName, toolCallID string, input json.RawMessage, status ToolCallStatus) Envelope {
	return Validate(Envelope{
		Type:      EventToolCall,
		SessionID: sessionID,
		UserID:    userID,
		Data: EnvelopeData{
			ToolName:   toolName,
			ToolCallID: toolCallID,
			Input:      input,
			ToolInput:  input,
			Status:     status,
			Timestamp:  time.Now(),
		},
	})
}

// ToolResult builds a completed tool_result envelope.
func ToolResult(sessionID, userID, toolName, toolCallID string, output json.RawMessage) Envelope {
	return Validate(Envelope{
		Type:      EventToolResult,
		SessionID: sessionID,
		UserID:    userID,
		Data: EnvelopeData{
			ToolName:   toolName,
			ToolCallID: toolCallID,
			Output:     output,
			Status:     "completed",
			Timestamp:  time.Now(),
		},
	})
}

// ToolError builds a tool_error envelope.
func ToolError(sessionID, userID, toolName, toolCallID, errMsg string) Envelope {
	return Validate(Envelope{
		Type:      EventToolError,
		SessionID: sessionID,
		UserID:    userID,
		Data: EnvelopeData{
			ToolName:   toolName,
			ToolCallID: toolCallID,
			Error:      errMsg,
			Status:     "error",
			Timestamp:  time.Now(),
		},
	})
}

// Toast builds a toast_notification envelope for user-facing,
// non-tool-specific messages (e.g. "connect GitHub to enable commits").
func Toast(sessionID, userID, message string) Envelope {
	return Validate(Envelope{
		Type:      EventToastNotification,
		SessionID: sessionID,
		UserID:    userID,
		Data: EnvelopeData{
			Message:   message,
			Timestamp: time.Now(),
		},
	})
}
