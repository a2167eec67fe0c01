package relay

import (
	"chatrelay/pkg/protocol"
)

// Emitter delivers an outbound event to a single connection. Emit must not
// block; a full or closed target is reported as an error and the caller
// decides whether that matters.
type Emitter interface {
	Emit(sid string, event *protocol.Event) error
}

// RoomMembership reports which SIDs are currently connected. It is owned by
// the transport layer; the relay only reads it.
type RoomMembership interface {
	// IsConnected reports whether the SID has a live connection
	IsConnected(sid string) bool
}

// AuditLog records connection lifecycle events for the operational audit
// trail. All methods are best-effort: failures are logged by the caller and
// never affect routing.
type AuditLog interface {
	// RecordConnect records a new connection
	RecordConnect(sid string) error
	// RecordIdentify records a successful agent identification
	RecordIdentify(sid string) error
	// RecordDisconnect records a disconnection with the connection's final role
	RecordDisconnect(sid, role string) error
}
