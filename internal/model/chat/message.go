package chat

import (
	"time"

	"github.com/google/uuid"
)

// Sender identifies who authored a turn.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// UserAvatar is the avatar shown next to every user turn.
const UserAvatar = "/avatar.jpg"

// Message is a single immutable turn of the shared conversation.
type Message struct {
	ID           string    `json:"id"`
	Sender       Sender    `json:"sender"`
	Text         string    `json:"text"`
	Persona      string    `json:"persona"`
	PersonaLabel string    `json:"personaLabel,omitempty"`
	Avatar       string    `json:"avatar"`
	Time         time.Time `json:"time"`
}

// NewUserMessage builds a user turn addressed to personaID.
func NewUserMessage(text, personaID string) Message {
	return Message{
		ID:      uuid.NewString(),
		Sender:  SenderUser,
		Text:    text,
		Persona: personaID,
		Avatar:  UserAvatar,
		Time:    time.Now().UTC(),
	}
}

// NewBotMessage builds a bot turn carrying the persona's display identity.
func NewBotMessage(text, personaID, label, avatar string) Message {
	return Message{
		ID:           uuid.NewString(),
		Sender:       SenderBot,
		Text:         text,
		Persona:      personaID,
		PersonaLabel: label,
		Avatar:       avatar,
		Time:         time.Now().UTC(),
	}
}
