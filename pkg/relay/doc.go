/*
Package relay implements the connection-session registry and message routing
core of the chat relay.

The relay tracks which connections have identified as agents, validates
inbound chat payloads, and decides where each message goes: client messages
fan out to every connected agent, agent messages are delivered to one client,
and senders receive a system notice when no delivery is possible. Disconnect
handling removes registry state and notifies the other side of a
client-agent assignment.

The package has no transport dependencies. Outbound delivery goes through the
Emitter interface and connection liveness is read through RoomMembership;
both are implemented by the WebSocket session hub in the server package.
*/
package relay
