package storage

import (
	"time"
)

// Event kinds recorded in the audit log
const (
	KindConnect    = "connect"
	KindIdentify   = "identify"
	KindDisconnect = "disconnect"
)

// ConnectionEvent is one row of the connection audit log
type ConnectionEvent struct {
	ID         string    `json:"id"`
	SID        string    `json:"sid"`
	Kind       string    `json:"kind"`
	Role       string    `json:"role,omitempty"` // set on disconnect: agent | client
	OccurredAt time.Time `json:"occurred_at"`
}

// Stats summarizes the audit log
type Stats struct {
	TotalConnections     int `json:"total_connections"`
	AgentIdentifications int `json:"agent_identifications"`
	Disconnections       int `json:"disconnections"`
}

// Store defines the interface for the connection audit log. The relay treats
// the store as optional and best-effort: recording failures are logged by the
// caller and never affect routing.
type Store interface {
	// RecordConnect records a new connection
	RecordConnect(sid string) error

	// RecordIdentify records a successful agent identification
	RecordIdentify(sid string) error

	// RecordDisconnect records a disconnection with the connection's final role
	RecordDisconnect(sid, role string) error

	// RecentEvents returns the most recent audit rows, newest first
	RecentEvents(limit int) ([]*ConnectionEvent, error)

	// Stats returns aggregate counts over the audit log
	Stats() (*Stats, error)

	// Close releases the underlying database
	Close() error
}
