package relay

import (
	"encoding/json"
	"testing"

	"chatrelay/pkg/auth"
	"chatrelay/pkg/protocol"
)

type dispatcherFixture struct {
	dispatcher *Dispatcher
	registry   *Registry
	rooms      *MockRooms
	emitter    *MockEmitter
}

func newDispatcherFixture(authenticator auth.AgentAuthenticator, sids ...string) *dispatcherFixture {
	registry := NewRegistry()
	rooms := NewMockRooms(sids...)
	emitter := NewMockEmitter()
	router := NewRouter(registry, rooms, emitter)

	return &dispatcherFixture{
		dispatcher: NewDispatcher(registry, router, authenticator, emitter),
		registry:   registry,
		rooms:      rooms,
		emitter:    emitter,
	}
}

func TestOnAgentConnectPromotes(t *testing.T) {
	f := newDispatcherFixture(auth.NewAcceptAll(), "A1")

	f.dispatcher.OnAgentConnect("A1", &protocol.AgentConnectPayload{})

	if !f.registry.IsAgent("A1") {
		t.Error("A1 should be promoted to agent")
	}
	if len(f.emitter.emissions) != 0 {
		t.Errorf("Successful identification should emit nothing, got %d events", len(f.emitter.emissions))
	}
}

func TestOnAgentConnectRejected(t *testing.T) {
	f := newDispatcherFixture(auth.NewTokenAuthenticator("secret"), "A1")

	f.dispatcher.OnAgentConnect("A1", &protocol.AgentConnectPayload{Token: "wrong"})

	if f.registry.IsAgent("A1") {
		t.Error("Rejected identification must not promote")
	}

	events := f.emitter.EmissionsTo("A1")
	if len(events) != 1 || events[0].Event.Event != protocol.EventSystemToAgent {
		t.Fatalf("Expected exactly one refusal notice, got %v", events)
	}

	var payload protocol.SystemToAgentPayload
	parsePayload(t, events[0], &payload)
	if payload.SystemMessage != NoticeAuthFailed {
		t.Errorf("Expected refusal notice %q, got %q", NoticeAuthFailed, payload.SystemMessage)
	}
}

func TestOnClientMessageInvalidBody(t *testing.T) {
	f := newDispatcherFixture(auth.NewAcceptAll(), "A1", "C1")
	f.registry.RegisterAgent("A1")

	for _, body := range []string{"", "   "} {
		f.emitter.emissions = nil

		f.dispatcher.OnClientMessage("C1", &protocol.ClientMessagePayload{Text: body})

		if len(f.emitter.EmissionsTo("A1")) != 0 {
			t.Errorf("Body %q must not be routed to agents", body)
		}
		notices := f.emitter.EmissionsTo("C1")
		if len(notices) != 1 || notices[0].Event.Event != protocol.EventSystemToClient {
			t.Fatalf("Body %q should produce exactly one validation notice, got %v", body, notices)
		}

		var payload protocol.SystemToClientPayload
		parsePayload(t, notices[0], &payload)
		if payload.User != protocol.UserSystem || payload.Text != NoticeInvalidClientMessage {
			t.Errorf("Unexpected validation notice: %+v", payload)
		}
	}
}

func TestOnAgentMessageInvalidPayload(t *testing.T) {
	f := newDispatcherFixture(auth.NewAcceptAll(), "A1", "C1")

	f.dispatcher.OnAgentMessage("A1", &protocol.AgentMessagePayload{ClientSID: "", Text: "hello"})

	notices := f.emitter.EmissionsTo("A1")
	if len(notices) != 1 {
		t.Fatalf("Expected exactly one validation notice, got %d", len(notices))
	}

	var payload protocol.SystemToAgentPayload
	parsePayload(t, notices[0], &payload)
	if payload.SystemMessage != NoticeInvalidAgentMessage {
		t.Errorf("Expected %q, got %q", NoticeInvalidAgentMessage, payload.SystemMessage)
	}
	if len(f.emitter.EmissionsTo("C1")) != 0 {
		t.Error("Invalid agent message must not reach the client")
	}
}

func TestOnDisconnectAgentNotifiesAssignedClients(t *testing.T) {
	f := newDispatcherFixture(auth.NewAcceptAll(), "A1", "C1")
	f.registry.RegisterAgent("A1")
	f.registry.Assign("C1", "A1")

	f.dispatcher.OnDisconnect("A1")

	if f.registry.IsAgent("A1") {
		t.Error("A1 should be removed from the agent set")
	}
	if _, ok := f.registry.AssignedAgent("C1"); ok {
		t.Error("C1 assignment should be removed")
	}

	notices := f.emitter.EmissionsTo("C1")
	if len(notices) != 1 || notices[0].Event.Event != protocol.EventSystemToClient {
		t.Fatalf("Expected exactly one disconnect notice to C1, got %v", notices)
	}

	var payload protocol.SystemToClientPayload
	parsePayload(t, notices[0], &payload)
	if payload.Text != NoticeAgentDisconnected {
		t.Errorf("Expected %q, got %q", NoticeAgentDisconnected, payload.Text)
	}
}

func TestOnDisconnectAgentWithoutAssignments(t *testing.T) {
	// Routing is broadcast-only and never writes the assignment map, so an
	// agent that had been receiving C1's broadcasts disconnects without any
	// notice going to C1. This pins the current behavior down explicitly.
	f := newDispatcherFixture(auth.NewAcceptAll(), "A1", "C1")
	f.registry.RegisterAgent("A1")
	f.dispatcher.OnClientMessage("C1", &protocol.ClientMessagePayload{Text: "hi"})
	f.emitter.emissions = nil

	f.dispatcher.OnDisconnect("A1")

	if len(f.emitter.EmissionsTo("C1")) != 0 {
		t.Error("Without an assignment entry, no disconnect notice is sent")
	}
}

func TestOnDisconnectAssignedClientNotifiesAgent(t *testing.T) {
	f := newDispatcherFixture(auth.NewAcceptAll(), "A1", "C1")
	f.registry.RegisterAgent("A1")
	f.registry.Assign("C1", "A1")

	f.dispatcher.OnDisconnect("C1")

	notices := f.emitter.EmissionsTo("A1")
	if len(notices) != 1 || notices[0].Event.Event != protocol.EventSystemToAgent {
		t.Fatalf("Expected exactly one notice to A1, got %v", notices)
	}

	var payload protocol.SystemToAgentPayload
	parsePayload(t, notices[0], &payload)
	if payload.ClientSID != "C1" || payload.Text != "Client C1 has disconnected." {
		t.Errorf("Unexpected notice payload: %+v", payload)
	}
}

func TestOnDisconnectUnassignedClientIsSilent(t *testing.T) {
	f := newDispatcherFixture(auth.NewAcceptAll(), "A1", "C1")
	f.registry.RegisterAgent("A1")

	f.dispatcher.OnDisconnect("C1")

	if len(f.emitter.emissions) != 0 {
		t.Errorf("Unassigned client disconnect should emit nothing, got %d events", len(f.emitter.emissions))
	}
}

func TestHandleEventRoutesClientMessage(t *testing.T) {
	f := newDispatcherFixture(auth.NewAcceptAll(), "A1", "C1")
	f.registry.RegisterAgent("A1")

	data, _ := json.Marshal(protocol.ClientMessagePayload{Text: "hi"})
	f.dispatcher.HandleEvent("C1", &protocol.Event{Event: protocol.EventClientMessage, Data: data})

	events := f.emitter.EmissionsTo("A1")
	if len(events) != 1 || events[0].Event.Event != protocol.EventMessageToAgent {
		t.Fatalf("Expected one broadcast to A1, got %v", events)
	}
}

func TestHandleEventMalformedPayload(t *testing.T) {
	f := newDispatcherFixture(auth.NewAcceptAll(), "C1")

	f.dispatcher.HandleEvent("C1", &protocol.Event{
		Event: protocol.EventClientMessage,
		Data:  json.RawMessage(`{"text": 42}`),
	})

	notices := f.emitter.EmissionsTo("C1")
	if len(notices) != 1 || notices[0].Event.Event != protocol.EventSystemToClient {
		t.Fatalf("Malformed payload should produce one validation notice, got %v", notices)
	}
}

func TestHandleEventUnknownEvent(t *testing.T) {
	f := newDispatcherFixture(auth.NewAcceptAll(), "C1")

	f.dispatcher.HandleEvent("C1", &protocol.Event{Event: "mystery"})

	if len(f.emitter.emissions) != 0 {
		t.Errorf("Unknown events should be dropped silently, got %d emissions", len(f.emitter.emissions))
	}
}

func TestHandleEventAgentConnectWithoutData(t *testing.T) {
	f := newDispatcherFixture(auth.NewAcceptAll(), "A1")

	f.dispatcher.HandleEvent("A1", &protocol.Event{Event: protocol.EventAgentConnect})

	if !f.registry.IsAgent("A1") {
		t.Error("agent_connect without data should still reach the placeholder hook")
	}
}

func TestAuditLogRecordsLifecycle(t *testing.T) {
	f := newDispatcherFixture(auth.NewAcceptAll(), "A1")
	audit := NewMockAudit()
	f.dispatcher.SetAuditLog(audit)

	f.dispatcher.OnConnect("A1")
	f.dispatcher.OnAgentConnect("A1", &protocol.AgentConnectPayload{})
	f.dispatcher.OnDisconnect("A1")

	if len(audit.connects) != 1 || audit.connects[0] != "A1" {
		t.Errorf("Expected one connect record for A1, got %v", audit.connects)
	}
	if len(audit.identifies) != 1 {
		t.Errorf("Expected one identify record, got %v", audit.identifies)
	}
	if role := audit.disconnects["A1"]; role != RoleAgent {
		t.Errorf("Expected disconnect role agent, got %q", role)
	}
}
