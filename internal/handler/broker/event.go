package broker

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
)

// Event names carried in the envelope type field.
const (
	EventChatHistory       = "chatHistory"
	EventMessage           = "message"
	EventNewMessage        = "newMessage"
	EventSetLLM            = "setLLM"
	EventSetMedicalConsent = "setMedicalConsent"
)

// Apology replaces a bot reply when reply construction fails.
const Apology = "Sorry, I am temporarily unable to answer. Please try again later."

// Envelope is a client frame. Data is kept raw because its shape depends on
// the event.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type outgoing struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func encode(event string, data any) ([]byte, error) {
	return json.Marshal(outgoing{Type: event, Data: data})
}

// parseNewMessage accepts either a bare string or {text, persona}. Missing or
// mistyped fields come back empty.
func parseNewMessage(raw []byte) (text, personaID string) {
	value, dataType, _, err := jsonparser.Get(raw)
	if err != nil {
		return "", ""
	}

	switch dataType {
	case jsonparser.String:
		text, _ = jsonparser.ParseString(value)
	case jsonparser.Object:
		text, _ = jsonparser.GetString(raw, "text")
		personaID, _ = jsonparser.GetString(raw, "persona")
	}
	return text, personaID
}

// truthy coerces a directive payload to a flag.
func truthy(raw []byte) bool {
	value, dataType, _, err := jsonparser.Get(raw)
	if err != nil {
		return false
	}

	switch dataType {
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(value)
		return err == nil && b
	case jsonparser.Number:
		f, err := jsonparser.ParseFloat(value)
		return err == nil && f != 0
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return false
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return false
		}
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
		return true
	case jsonparser.Object, jsonparser.Array:
		return true
	default:
		return false
	}
}
