// Package protocol defines the event envelope and payload types exchanged
// between the relay and its WebSocket connections. Every frame is an Event
// with a name and a JSON payload; payload shapes are fixed per event name so
// malformed input is rejected at the boundary.
package protocol
