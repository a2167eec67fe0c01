// Package auth provides the agent identification hook used by the relay
// dispatcher when a connection sends an agent_connect event.
package auth
