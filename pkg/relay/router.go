package relay

import (
	"fmt"
	"sync/atomic"

	"chatrelay/pkg/logger"
	"chatrelay/pkg/protocol"
)

// System notice texts sent by the relay
const (
	// NoticeWaitingForAgent is sent to a client when no agent is connected
	NoticeWaitingForAgent = "Please wait, connecting you to an agent..."

	// NoticeAgentDisconnected is sent to clients whose assigned agent dropped
	NoticeAgentDisconnected = "Your agent has disconnected. Please wait or refresh."

	// NoticeInvalidClientMessage is sent back for a malformed client payload
	NoticeInvalidClientMessage = "Invalid message format."

	// NoticeInvalidAgentMessage is sent back for a malformed agent payload
	NoticeInvalidAgentMessage = "Invalid message format or missing client ID."

	// NoticeAuthFailed is sent back for a rejected agent identification
	NoticeAuthFailed = "Agent authentication failed."

	// NoticeServerShutdown is sent to every connection during shutdown
	NoticeServerShutdown = "Server is shutting down."
)

// Router decides which connections receive a validated message. Every branch
// emits a small, bounded number of outbound events and never blocks; per-target
// emission failures are logged and counted, never retried.
type Router struct {
	registry         *Registry
	rooms            RoomMembership
	emitter          Emitter
	deliveryFailures atomic.Uint64
}

// NewRouter creates a router over the given registry, room membership, and emitter
func NewRouter(registry *Registry, rooms RoomMembership, emitter Emitter) *Router {
	return &Router{
		registry: registry,
		rooms:    rooms,
		emitter:  emitter,
	}
}

// RouteClientMessage fans a client message out to every identified agent.
// With no agents connected, the sender gets a single waiting notice instead;
// nothing is queued for later.
func (r *Router) RouteClientMessage(senderSID, text string) {
	log := logger.Get()

	agents := r.registry.Agents()
	if len(agents) == 0 {
		log.WarnWith("no agents connected to receive client message", "sid", senderSID)
		r.emitToClient(senderSID, protocol.EventMessageToClient, protocol.MessageToClientPayload{
			User: protocol.UserSystem,
			Text: NoticeWaitingForAgent,
		})
		return
	}

	event, err := protocol.NewEvent(protocol.EventMessageToAgent, protocol.MessageToAgentPayload{
		ClientSID: senderSID,
		Text:      text,
		User:      protocol.UserClient,
	})
	if err != nil {
		log.ErrorWithErr("failed to build agent broadcast event", err, "sid", senderSID)
		return
	}

	// Snapshot iteration: an agent disconnecting mid-broadcast fails its own
	// emit without disturbing the rest of the fan-out.
	for _, agentSID := range agents {
		if err := r.emitter.Emit(agentSID, event); err != nil {
			r.deliveryFailures.Add(1)
			log.ErrorWithErr("failed to forward client message to agent", err,
				"client_sid", senderSID, "agent_sid", agentSID)
			continue
		}
		log.DebugWith("forwarded client message to agent", "client_sid", senderSID, "agent_sid", agentSID)
	}
}

// RouteAgentMessage delivers an agent message to its target client, or sends
// the agent a target-gone notice when the client is no longer connected.
func (r *Router) RouteAgentMessage(senderSID, targetClientSID, text string) {
	log := logger.Get()

	if !r.rooms.IsConnected(targetClientSID) {
		log.WarnWith("target client not connected", "agent_sid", senderSID, "client_sid", targetClientSID)
		r.emitToAgent(senderSID, protocol.SystemToAgentPayload{
			ClientSID: targetClientSID,
			Text:      fmt.Sprintf("Client %s is no longer connected.", targetClientSID),
		})
		return
	}

	event, err := protocol.NewEvent(protocol.EventMessageToClient, protocol.MessageToClientPayload{
		User:     protocol.UserAgent,
		Text:     text,
		AgentSID: senderSID,
	})
	if err != nil {
		log.ErrorWithErr("failed to build client delivery event", err, "agent_sid", senderSID)
		return
	}

	if err := r.emitter.Emit(targetClientSID, event); err != nil {
		r.deliveryFailures.Add(1)
		log.ErrorWithErr("failed to forward agent message to client", err,
			"agent_sid", senderSID, "client_sid", targetClientSID)
		return
	}
	log.DebugWith("forwarded agent message to client", "agent_sid", senderSID, "client_sid", targetClientSID)
}

// DeliveryFailures returns the number of failed outbound emissions
func (r *Router) DeliveryFailures() uint64 {
	return r.deliveryFailures.Load()
}

// emitToClient sends one event to a client SID, counting delivery failures
func (r *Router) emitToClient(sid string, eventType protocol.EventType, payload interface{}) {
	event, err := protocol.NewEvent(eventType, payload)
	if err != nil {
		logger.Get().ErrorWithErr("failed to build client notice", err, "sid", sid)
		return
	}
	if err := r.emitter.Emit(sid, event); err != nil {
		r.deliveryFailures.Add(1)
		logger.Get().ErrorWithErr("failed to send notice to client", err, "sid", sid)
	}
}

// emitToAgent sends one system notice to an agent SID
func (r *Router) emitToAgent(sid string, payload protocol.SystemToAgentPayload) {
	event, err := protocol.NewEvent(protocol.EventSystemToAgent, payload)
	if err != nil {
		logger.Get().ErrorWithErr("failed to build agent notice", err, "sid", sid)
		return
	}
	if err := r.emitter.Emit(sid, event); err != nil {
		r.deliveryFailures.Add(1)
		logger.Get().ErrorWithErr("failed to send notice to agent", err, "sid", sid)
	}
}
