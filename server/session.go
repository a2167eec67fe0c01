package server

import (
	"sync"
	"time"

	"chatrelay/pkg/errors"
	"chatrelay/pkg/logger"
	"chatrelay/pkg/protocol"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 90 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 * 1024
	sendBufferSize = 64
)

// Session wraps a single WebSocket connection. Writes go through a buffered
// send channel drained by a dedicated write pump, because gorilla connections
// do not allow concurrent writers.
type Session struct {
	SID  string
	conn *websocket.Conn

	send chan *protocol.Event

	mu     sync.Mutex
	closed bool
}

// NewSession wraps an upgraded connection
func NewSession(sid string, conn *websocket.Conn) *Session {
	return &Session{
		SID:  sid,
		conn: conn,
		send: make(chan *protocol.Event, sendBufferSize),
	}
}

// Enqueue hands an event to the write pump. It never blocks: a full buffer
// means the peer has stopped reading, and the event is dropped with an error.
func (s *Session) Enqueue(event *protocol.Event) error {
	// Held across the send so Close cannot close the channel mid-enqueue
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.ErrSessionClosed
	}

	select {
	case s.send <- event:
		return nil
	default:
		return errors.ErrSendBufferFull
	}
}

// Close shuts the session down. Safe to call more than once. Only the send
// channel is closed here: the write pump drains whatever is still buffered,
// writes the close frame, and closes the connection itself, so a notice
// enqueued just before Close still reaches the peer.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}

// writePump drains the send channel onto the wire and keeps the connection
// alive with periodic pings. Runs in its own goroutine per session and owns
// the connection teardown: the conn stays open until the pump has flushed
// every buffered event.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
		s.conn.Close()
	}()

	for {
		select {
		case event, ok := <-s.send:
			if !ok {
				// Channel closed and fully drained; say goodbye properly
				s.conn.SetWriteDeadline(time.Now().Add(writeWait))
				s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(event); err != nil {
				logger.Get().DebugWith("session write failed", "sid", s.SID, "error", err)
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads event envelopes from the wire and hands them to the
// dispatcher until the connection drops.
func (s *Session) readPump(hub *Hub) {
	defer func() {
		if r := recover(); r != nil {
			logger.Get().ErrorWith("panic recovered in session read loop", "sid", s.SID, "panic", r)
		}
		hub.Remove(s.SID)
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var event protocol.Event
		if err := s.conn.ReadJSON(&event); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Get().DebugWith("session read error", "sid", s.SID, "error", err)
			}
			return
		}
		hub.dispatcher.HandleEvent(s.SID, &event)
	}
}
