package relay

import (
	"fmt"

	"chatrelay/pkg/auth"
	"chatrelay/pkg/logger"
	"chatrelay/pkg/protocol"
)

// Connection roles recorded in the audit log
const (
	RoleAgent  = "agent"
	RoleClient = "client"
)

// Dispatcher receives connection lifecycle and message events from the
// transport and drives the registry, validator, and router. Handler methods
// never return errors to the transport: every failure is handled locally with
// a notice or a log line so one bad payload cannot take down the event loop.
type Dispatcher struct {
	registry      *Registry
	validator     *Validator
	router        *Router
	authenticator auth.AgentAuthenticator
	emitter       Emitter
	audit         AuditLog
}

// NewDispatcher creates a dispatcher over the given collaborators
func NewDispatcher(registry *Registry, router *Router, authenticator auth.AgentAuthenticator, emitter Emitter) *Dispatcher {
	return &Dispatcher{
		registry:      registry,
		validator:     NewValidator(),
		router:        router,
		authenticator: authenticator,
		emitter:       emitter,
	}
}

// SetAuditLog attaches the optional connection audit log
func (d *Dispatcher) SetAuditLog(audit AuditLog) {
	d.audit = audit
}

// HandleEvent parses an inbound event by name and invokes the matching
// handler. Unknown event names and malformed envelopes are logged and
// dropped. A panicking handler is recovered here so the connection's read
// loop survives.
func (d *Dispatcher) HandleEvent(sid string, event *protocol.Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Get().ErrorWith("recovered from panic in event handler",
				"sid", sid, "event", event.Event, "panic", r)
		}
	}()

	switch event.Event {
	case protocol.EventAgentConnect:
		var payload protocol.AgentConnectPayload
		if len(event.Data) > 0 {
			if err := event.ParseData(&payload); err != nil {
				logger.Get().WarnWith("malformed agent_connect payload", "sid", sid, "error", err)
				return
			}
		}
		d.OnAgentConnect(sid, &payload)

	case protocol.EventClientMessage:
		var payload protocol.ClientMessagePayload
		if err := event.ParseData(&payload); err != nil {
			logger.Get().WarnWith("malformed client_message payload", "sid", sid, "error", err)
			d.notifyClientInvalid(sid)
			return
		}
		d.OnClientMessage(sid, &payload)

	case protocol.EventAgentMessage:
		var payload protocol.AgentMessagePayload
		if err := event.ParseData(&payload); err != nil {
			logger.Get().WarnWith("malformed agent_message payload", "sid", sid, "error", err)
			d.notifyAgentInvalid(sid)
			return
		}
		d.OnAgentMessage(sid, &payload)

	default:
		logger.Get().WarnWith("unknown event ignored", "sid", sid, "event", event.Event)
	}
}

// OnConnect records a new connection. No role is assigned yet: the
// connection stays an implicit client until it identifies as an agent.
func (d *Dispatcher) OnConnect(sid string) {
	logger.Get().InfoWith("connection established", "sid", sid)

	if d.audit != nil {
		if err := d.audit.RecordConnect(sid); err != nil {
			logger.Get().WarnWith("failed to record connect", "sid", sid, "error", err)
		}
	}
}

// OnAgentConnect handles an explicit agent identification request. The
// authenticator hook decides admission; on success the SID joins the agent
// set, on failure the sender gets a refusal notice and stays unpromoted.
func (d *Dispatcher) OnAgentConnect(sid string, payload *protocol.AgentConnectPayload) {
	log := logger.Get()
	log.InfoWith("agent identification attempt", "sid", sid)

	if err := d.authenticator.Authenticate(sid, payload); err != nil {
		log.WarnWith("agent identification rejected", "sid", sid, "error", err)
		d.emitSystemToAgent(sid, protocol.SystemToAgentPayload{SystemMessage: NoticeAuthFailed})
		return
	}

	d.registry.RegisterAgent(sid)
	log.InfoWith("agent connected", "sid", sid, "agents", d.registry.AgentCount())

	if d.audit != nil {
		if err := d.audit.RecordIdentify(sid); err != nil {
			log.WarnWith("failed to record identify", "sid", sid, "error", err)
		}
	}
}

// OnClientMessage validates a client chat message and routes it to agents
func (d *Dispatcher) OnClientMessage(sid string, payload *protocol.ClientMessagePayload) {
	text, verr := d.validator.ValidateClientMessage(payload)
	if verr != nil {
		logger.Get().WarnWith("invalid client message", "sid", sid, "reason", verr.Reason)
		d.notifyClientInvalid(sid)
		return
	}

	d.router.RouteClientMessage(sid, text)
}

// OnAgentMessage validates an agent chat message and routes it to its target client
func (d *Dispatcher) OnAgentMessage(sid string, payload *protocol.AgentMessagePayload) {
	clientSID, text, verr := d.validator.ValidateAgentMessage(payload)
	if verr != nil {
		logger.Get().WarnWith("invalid agent message", "sid", sid, "reason", verr.Reason)
		d.notifyAgentInvalid(sid)
		return
	}

	d.router.RouteAgentMessage(sid, clientSID, text)
}

// OnDisconnect removes registry state for the SID and notifies the other
// side of any client-agent assignment. Per-SID notice failures are logged
// and never abort the cleanup loop.
func (d *Dispatcher) OnDisconnect(sid string) {
	log := logger.Get()
	log.InfoWith("connection closed", "sid", sid)

	result := d.registry.Unregister(sid)
	role := RoleClient

	if result.WasAgent {
		role = RoleAgent
		log.InfoWith("agent disconnected", "sid", sid, "agents", d.registry.AgentCount())

		for _, clientSID := range result.AssignedClients {
			d.emitSystemToClient(clientSID, NoticeAgentDisconnected)
		}
	} else if result.AssignedAgent != "" {
		log.InfoWith("assigned client disconnected", "sid", sid, "agent_sid", result.AssignedAgent)
		d.emitSystemToAgent(result.AssignedAgent, protocol.SystemToAgentPayload{
			ClientSID: sid,
			Text:      fmt.Sprintf("Client %s has disconnected.", sid),
		})
	}

	if d.audit != nil {
		if err := d.audit.RecordDisconnect(sid, role); err != nil {
			log.WarnWith("failed to record disconnect", "sid", sid, "error", err)
		}
	}
}

// notifyClientInvalid sends the single validation notice back to a client
func (d *Dispatcher) notifyClientInvalid(sid string) {
	d.emitSystemToClient(sid, NoticeInvalidClientMessage)
}

// notifyAgentInvalid sends the single validation notice back to an agent
func (d *Dispatcher) notifyAgentInvalid(sid string) {
	d.emitSystemToAgent(sid, protocol.SystemToAgentPayload{SystemMessage: NoticeInvalidAgentMessage})
}

func (d *Dispatcher) emitSystemToClient(sid, text string) {
	event, err := protocol.NewEvent(protocol.EventSystemToClient, protocol.SystemToClientPayload{
		User: protocol.UserSystem,
		Text: text,
	})
	if err != nil {
		logger.Get().ErrorWithErr("failed to build system notice", err, "sid", sid)
		return
	}
	if err := d.emitter.Emit(sid, event); err != nil {
		logger.Get().ErrorWithErr("failed to send system notice to client", err, "sid", sid)
	}
}

func (d *Dispatcher) emitSystemToAgent(sid string, payload protocol.SystemToAgentPayload) {
	event, err := protocol.NewEvent(protocol.EventSystemToAgent, payload)
	if err != nil {
		logger.Get().ErrorWithErr("failed to build system notice", err, "sid", sid)
		return
	}
	if err := d.emitter.Emit(sid, event); err != nil {
		logger.Get().ErrorWithErr("failed to send system notice to agent", err, "sid", sid)
	}
}
