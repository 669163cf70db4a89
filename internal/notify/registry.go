// Package notify implements the WebSocket / notification fabric
// described by the orchestrator: a process-wide registry of
// (user, session) -> sender, validated JSON event envelopes, and a
// confirmation round-trip port. The transport that terminates the
// actual WebSocket connections is an external collaborator; this
// package only defines the ports the core consumes and ships one
// concrete gorilla/websocket-backed Sender for grounding.
package notify

import (
	"context"
	"sync"
	"time"
)

// Sender delivers a single validated event envelope to one connected
// client. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, env Envelope) error
	Close() error
}

// Confirmer performs the out-of-band confirmation round trip described
// in spec §4.3 step 7 / §6: a summary string goes out, a bounded-time
// approve/deny/timeout answer comes back.
type Confirmer interface {
	Confirm(ctx context.Context, sessionID, toolName, summary string) (Decision, error)
}

// Decision is the outcome of a confirmation round trip.
type Decision int

const (
	DecisionDenied Decision = iota
	DecisionApproved
	DecisionTimedOut
)

func (d Decision) String() string {
	switch d {
	case DecisionApproved:
		return "approved"
	case DecisionTimedOut:
		return "timed_out"
	default:
		return "denied"
	}
}

// connKey identifies one (user, session) connection slot.
type connKey struct {
	UserID    string
	SessionID string
}

// entry is a registry slot. connID distinguishes successive connections
// for the same key so a superseded sender cannot be accidentally reused
// after a reconnect races with an in-flight send.
type entry struct {
	sender Sender
	connID uint64
}

// ProcessRegistry is the single, dependency-injected handle mapping
// (user, session) to the currently active Sender. On reconnect, the
// newer registration supersedes the older: the map entry is replaced
// whole and the old Sender is closed, never mutated in place.
type ProcessRegistry struct {
	mu      sync.Mutex
	entries map[connKey]entry
	nextID  uint64
}

// NewProcessRegistry creates an empty registry. One instance is created
// at process startup and handed into every request scope and background
// task; there is no other mutable global connection state.
func NewProcessRegistry() *ProcessRegistry {
	return &ProcessRegistry{entries: make(map[connKey]entry)}
}

// Register installs sender as the active connection for (userID,
// sessionID), closing and discarding any previous sender for that key.
// Returns a handle that Send/Unregister operations may use to detect
// whether this registration has since been superseded.
func (r *ProcessRegistry) Register(userID, sessionID string, sender Sender) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	key := connKey{UserID: userID, SessionID: sessionID}

	if old, ok := r.entries[key]; ok && old.sender != nil {
		go old.sender.Close()
	}
	r.entries[key] = entry{sender: sender, connID: id}
	return id
}

// Unregister removes the connection for (userID, sessionID) only if
// connID still matches the currently registered one — a stale
// unregister from a superseded connection is a no-op.
func (r *ProcessRegistry) Unregister(userID, sessionID string, connID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := connKey{UserID: userID, SessionID: sessionID}
	if cur, ok := r.entries[key]; ok && cur.connID == connID {
		delete(r.entries, key)
	}
}

// Lookup returns the currently active sender for (userID, sessionID), if any.
func (r *ProcessRegistry) Lookup(userID, sessionID string) (Sender, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[connKey{UserID: userID, SessionID: sessionID}]
	if !ok {
		return nil, false
	}
	return e.sender, true
}

// Publish sends env to the active sender for (userID, sessionID), if
// one is connected. No error is returned when nobody is listening —
// background RCA turns have no socket at all (spec §2 background path:
// "the socket is replaced by a no-op sink").
func (r *ProcessRegistry) Publish(ctx context.Context, userID, sessionID string, env Envelope) error {
	sender, ok := r.Lookup(userID, sessionID)
	if !ok {
		return nil
	}
	return sender.Send(ctx, env)
}

// NopSender discards every envelope. Used for background turns and for
// tests that don't care about delivery.
type NopSender struct{}

func (NopSender) Send(ctx context.Context, env Envelope) error { return nil }
func (NopSender) Close() error                                 { return nil }

// NopConfirmer auto-resolves every confirmation according to a fixed
// decision, grounding the background-mode "auto-approve or auto-cancel
// per policy" behavior from spec §4.3 step 7 without a live transport.
type NopConfirmer struct {
	Decision Decision
}

func (c NopConfirmer) Confirm(ctx context.Context, sessionID, toolName, summary string) (Decision, error) {
	return c.Decision, nil
}

// TimeBoundConfirmer wraps a Confirmer and enforces a deadline, mapping
// an un-answered confirmation to DecisionTimedOut rather than blocking
// the turn forever.
type TimeBoundConfirmer struct {
	Inner   Confirmer
	Timeout time.Duration
}

func (c TimeBoundConfirmer) Confirm(ctx context.Context, sessionID, toolName, summary string) (Decision, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		decision Decision
		err      error
	}
	done := make(chan result, 1)
	go func() {
		d, err := c.Inner.Confirm(ctx, sessionID, toolName, summary)
		done <- result{d, err}
	}()

	select {
	case r := <-done:
		return r.decision, r.err
	case <-ctx.Done():
		return DecisionTimedOut, nil
	}
}
