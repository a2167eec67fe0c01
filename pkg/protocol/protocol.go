package protocol

import (
	"encoding/json"
	"fmt"
)

// EventType identifies a relay event on the wire
type EventType string

const (
	// Inbound events (connection -> relay)
	EventAgentConnect  EventType = "agent_connect"
	EventClientMessage EventType = "client_message"
	EventAgentMessage  EventType = "agent_message"

	// Outbound events (relay -> connection)
	EventMessageToAgent  EventType = "message_to_agent"
	EventMessageToClient EventType = "message_to_client"
	EventSystemToClient  EventType = "system_message_to_client"
	EventSystemToAgent   EventType = "system_message_to_agent"
)

// Sender role tags carried in message payloads
const (
	UserClient = "Client"
	UserAgent  = "Agent"
	UserSystem = "System"
)

// Event is the envelope for every frame exchanged with a connection
type Event struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEvent creates an event with the payload marshaled into Data
func NewEvent(eventType EventType, payload interface{}) (*Event, error) {
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
		}
		data = raw
	}

	return &Event{
		Event: eventType,
		Data:  data,
	}, nil
}

// ParseData unmarshals the event data into the given payload struct
func (e *Event) ParseData(v interface{}) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s has no data", e.Event)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("parse %s payload: %w", e.Event, err)
	}
	return nil
}

// AgentConnectPayload carries agent identification data
type AgentConnectPayload struct {
	Token string `json:"token,omitempty"`
}

// ClientMessagePayload is a chat message sent by a client connection
type ClientMessagePayload struct {
	Text string `json:"text"`
}

// AgentMessagePayload is a chat message sent by an agent, directed at one client
type AgentMessagePayload struct {
	ClientSID string `json:"client_sid"`
	Text      string `json:"text"`
}

// MessageToAgentPayload is a client message fanned out to agent connections
type MessageToAgentPayload struct {
	ClientSID string `json:"client_sid"`
	Text      string `json:"text"`
	User      string `json:"user"`
}

// MessageToClientPayload is delivered to a single client connection.
// AgentSID is set for agent replies and empty for system notices.
type MessageToClientPayload struct {
	User     string `json:"user"`
	Text     string `json:"text"`
	AgentSID string `json:"agent_sid,omitempty"`
}

// SystemToClientPayload is a system notice delivered to one client
type SystemToClientPayload struct {
	User string `json:"user"`
	Text string `json:"text"`
}

// SystemToAgentPayload is a system notice delivered to one agent.
// Validation refusals use SystemMessage; lifecycle notices use ClientSID+Text.
type SystemToAgentPayload struct {
	ClientSID     string `json:"client_sid,omitempty"`
	Text          string `json:"text,omitempty"`
	SystemMessage string `json:"system_message,omitempty"`
}
