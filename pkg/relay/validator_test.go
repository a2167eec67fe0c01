package relay

import (
	"testing"

	"chatrelay/pkg/protocol"
)

func TestValidateClientMessage(t *testing.T) {
	v := NewValidator()

	text, err := v.ValidateClientMessage(&protocol.ClientMessagePayload{Text: "  hello  "})
	if err != nil {
		t.Fatalf("Valid message rejected: %v", err)
	}
	if text != "hello" {
		t.Errorf("Expected trimmed text 'hello', got %q", text)
	}
}

func TestValidateClientMessageEmpty(t *testing.T) {
	v := NewValidator()

	cases := []string{"", "   ", "\t\n"}
	for _, body := range cases {
		if _, err := v.ValidateClientMessage(&protocol.ClientMessagePayload{Text: body}); err == nil {
			t.Errorf("Body %q should be rejected", body)
		}
	}

	if _, err := v.ValidateClientMessage(nil); err == nil {
		t.Error("Nil payload should be rejected")
	}
}

func TestValidateAgentMessage(t *testing.T) {
	v := NewValidator()

	sid, text, err := v.ValidateAgentMessage(&protocol.AgentMessagePayload{
		ClientSID: " C1 ",
		Text:      " hello ",
	})
	if err != nil {
		t.Fatalf("Valid message rejected: %v", err)
	}
	if sid != "C1" || text != "hello" {
		t.Errorf("Expected trimmed (C1, hello), got (%q, %q)", sid, text)
	}
}

func TestValidateAgentMessageIncomplete(t *testing.T) {
	v := NewValidator()

	cases := []protocol.AgentMessagePayload{
		{ClientSID: "", Text: "hello"},
		{ClientSID: "  ", Text: "hello"},
		{ClientSID: "C1", Text: ""},
		{ClientSID: "C1", Text: "   "},
		{},
	}
	for _, payload := range cases {
		if _, _, err := v.ValidateAgentMessage(&payload); err == nil {
			t.Errorf("Payload %+v should be rejected", payload)
		}
	}

	if _, _, err := v.ValidateAgentMessage(nil); err == nil {
		t.Error("Nil payload should be rejected")
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Reason: "empty message text"}
	if err.Error() != "validation failed: empty message text" {
		t.Errorf("Unexpected error string: %s", err.Error())
	}
}
