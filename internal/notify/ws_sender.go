package notify

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// WSSender adapts a single gorilla/websocket connection to the Sender
// port. Sending is serialized by a per-connection mutex because
// gorilla/websocket connections do not support concurrent writers,
// matching the global-send-mutex discipline spec §4.8/§5 requires
// ("Sending is guarded by a per-process mutex to prevent interleaved
// frames" — here scoped per connection, which is sufficient since each
// connKey owns exactly one live Sender at a time).
type WSSender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSSender wraps an already-established websocket connection.
// Establishing and authenticating the connection itself is the
// transport layer's responsibility, external to this package.
func NewWSSender(conn *websocket.Conn) *WSSender {
	return &WSSender{conn: conn}
}

// Send writes env as a single JSON text frame.
func (s *WSSender) Send(ctx context.Context, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		payload, err = json.Marshal(minimalFallback(env))
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = s.conn.SetWriteDeadline(deadline)
	}
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

// Close closes the underlying connection.
func (s *WSSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}
