package relay

import (
	"testing"

	"chatrelay/pkg/errors"
	"chatrelay/pkg/protocol"
)

// MockEmitter records emissions and can simulate per-target failures
type MockEmitter struct {
	emissions []Emission
	failFor   map[string]bool
}

// Emission is one recorded outbound event
type Emission struct {
	SID   string
	Event *protocol.Event
}

func NewMockEmitter() *MockEmitter {
	return &MockEmitter{failFor: make(map[string]bool)}
}

func (m *MockEmitter) Emit(sid string, event *protocol.Event) error {
	if m.failFor[sid] {
		return errors.ErrSessionClosed
	}
	m.emissions = append(m.emissions, Emission{SID: sid, Event: event})
	return nil
}

// FailFor makes every emission to the SID fail
func (m *MockEmitter) FailFor(sid string) {
	m.failFor[sid] = true
}

// EmissionsTo returns the recorded emissions for one SID
func (m *MockEmitter) EmissionsTo(sid string) []Emission {
	var out []Emission
	for _, e := range m.emissions {
		if e.SID == sid {
			out = append(out, e)
		}
	}
	return out
}

// MockRooms implements RoomMembership over a plain set
type MockRooms struct {
	connected map[string]bool
}

func NewMockRooms(sids ...string) *MockRooms {
	rooms := &MockRooms{connected: make(map[string]bool)}
	for _, sid := range sids {
		rooms.connected[sid] = true
	}
	return rooms
}

func (m *MockRooms) IsConnected(sid string) bool {
	return m.connected[sid]
}

func (m *MockRooms) Disconnect(sid string) {
	delete(m.connected, sid)
}

// MockAudit records audit calls
type MockAudit struct {
	connects    []string
	identifies  []string
	disconnects map[string]string
}

func NewMockAudit() *MockAudit {
	return &MockAudit{disconnects: make(map[string]string)}
}

func (m *MockAudit) RecordConnect(sid string) error {
	m.connects = append(m.connects, sid)
	return nil
}

func (m *MockAudit) RecordIdentify(sid string) error {
	m.identifies = append(m.identifies, sid)
	return nil
}

func (m *MockAudit) RecordDisconnect(sid, role string) error {
	m.disconnects[sid] = role
	return nil
}

// parsePayload unmarshals an emission's payload into v, failing the test on error
func parsePayload(t *testing.T, e Emission, v interface{}) {
	t.Helper()
	if err := e.Event.ParseData(v); err != nil {
		t.Fatalf("Failed to parse %s payload: %v", e.Event.Event, err)
	}
}
