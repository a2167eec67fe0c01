package server

import (
	"sync"

	"chatrelay/pkg/errors"
	"chatrelay/pkg/logger"
	"chatrelay/pkg/protocol"
	"chatrelay/pkg/relay"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub owns all live sessions. It is the relay core's window onto the
// network: Emit delivers events and IsConnected answers liveness queries.
type Hub struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	dispatcher *relay.Dispatcher
}

// NewHub creates an empty hub. The dispatcher must be attached before any
// connection is added.
func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]*Session),
	}
}

// SetDispatcher attaches the event dispatcher. Called once during wiring;
// breaks the hub<->dispatcher construction cycle.
func (h *Hub) SetDispatcher(d *relay.Dispatcher) {
	h.dispatcher = d
}

// Add registers an upgraded connection under a fresh SID and starts its
// read and write pumps.
func (h *Hub) Add(conn *websocket.Conn) *Session {
	session := NewSession(uuid.New().String(), conn)

	h.mu.Lock()
	h.sessions[session.SID] = session
	h.mu.Unlock()

	h.dispatcher.OnConnect(session.SID)

	go session.writePump()
	go session.readPump(h)

	return session
}

// Remove drops a session from the hub and runs disconnect cleanup.
// Idempotent: the read pump and the shutdown coordinator may race here.
func (h *Hub) Remove(sid string) {
	h.mu.Lock()
	session, ok := h.sessions[sid]
	if ok {
		delete(h.sessions, sid)
	}
	h.mu.Unlock()

	if !ok {
		return
	}

	session.Close()
	h.dispatcher.OnDisconnect(sid)
}

// Emit delivers an event to one session's send buffer
func (h *Hub) Emit(sid string, event *protocol.Event) error {
	h.mu.RLock()
	session, ok := h.sessions[sid]
	h.mu.RUnlock()

	if !ok {
		return errors.ErrNotConnected
	}
	return session.Enqueue(event)
}

// IsConnected reports whether a SID has a live session
func (h *Hub) IsConnected(sid string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.sessions[sid]
	return ok
}

// Snapshot returns the SIDs of all live sessions
func (h *Hub) Snapshot() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sids := make([]string, 0, len(h.sessions))
	for sid := range h.sessions {
		sids = append(sids, sid)
	}
	return sids
}

// Count returns the number of live sessions
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// CloseSession starts one session's teardown: the send channel closes now,
// the write pump flushes what is buffered and then closes the connection.
// Used by the shutdown coordinator.
func (h *Hub) CloseSession(sid string) {
	h.mu.RLock()
	session, ok := h.sessions[sid]
	h.mu.RUnlock()

	if !ok {
		logger.Get().DebugWith("close requested for unknown session", "sid", sid)
		return
	}
	session.Close()
}
