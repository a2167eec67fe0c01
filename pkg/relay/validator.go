package relay

import (
	"strings"

	"chatrelay/pkg/protocol"
)

// ValidationError describes a rejected inbound payload. The dispatcher turns
// it into a single notice to the sender; it never propagates further.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// Validator checks inbound message payload shape before routing
type Validator struct{}

// NewValidator creates a validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateClientMessage checks a client chat payload and returns the trimmed
// text. Valid iff the body is a non-empty string after trimming whitespace.
func (v *Validator) ValidateClientMessage(payload *protocol.ClientMessagePayload) (string, *ValidationError) {
	if payload == nil {
		return "", &ValidationError{Reason: "missing payload"}
	}

	text := strings.TrimSpace(payload.Text)
	if text == "" {
		return "", &ValidationError{Reason: "empty message text"}
	}
	return text, nil
}

// ValidateAgentMessage checks an agent chat payload and returns the trimmed
// target client SID and text. Valid iff both are non-empty after trimming.
func (v *Validator) ValidateAgentMessage(payload *protocol.AgentMessagePayload) (string, string, *ValidationError) {
	if payload == nil {
		return "", "", &ValidationError{Reason: "missing payload"}
	}

	clientSID := strings.TrimSpace(payload.ClientSID)
	if clientSID == "" {
		return "", "", &ValidationError{Reason: "missing client SID"}
	}

	text := strings.TrimSpace(payload.Text)
	if text == "" {
		return "", "", &ValidationError{Reason: "empty message text"}
	}

	return clientSID, text, nil
}
