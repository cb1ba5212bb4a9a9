// Package core holds the transport-facing contracts shared by the
// registry, the orchestrator, and the websocket adapter.
package core

// ConnID identifies one live transport connection.
type ConnID string

// Frame is a raw outbound payload.
type Frame []byte

// Sender abstracts a connection's outbound half.
// Owned by the adapter; the adapter must Close() it.
type Sender interface {
	TrySend(Frame) error
	Close()
}
