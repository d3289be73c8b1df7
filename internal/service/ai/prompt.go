package ai

import (
	"strings"

	"github.com/zhouzirui/persona-relay/backend/internal/model/chat"
	"github.com/zhouzirui/persona-relay/backend/internal/model/persona"
)

// ContextTurns bounds how many history messages are forwarded to a backend.
const ContextTurns = 6

// Role is a backend-neutral speaker role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of the conversation context sent to a backend.
type Turn struct {
	Role    Role
	Content string
}

// BuildTurns assembles the system prompt, the last ContextTurns history
// messages and the current user text.
func BuildTurns(systemPrompt string, history []chat.Message, userText string) []Turn {
	tail := history
	if len(tail) > ContextTurns {
		tail = tail[len(tail)-ContextTurns:]
	}

	turns := make([]Turn, 0, len(tail)+2)
	turns = append(turns, Turn{Role: RoleSystem, Content: systemPrompt})
	for _, m := range tail {
		turns = append(turns, historyTurn(m))
	}
	turns = append(turns, Turn{Role: RoleUser, Content: userText})
	return turns
}

func historyTurn(m chat.Message) Turn {
	if m.Sender == chat.SenderUser {
		return Turn{Role: RoleUser, Content: m.Text}
	}
	return Turn{Role: RoleAssistant, Content: m.Text}
}

// systemPromptFor resolves the persona's system prompt, defaulting like the
// registry does.
func systemPromptFor(personas persona.Store, personaID string) string {
	return strings.TrimSpace(personas.Resolve(personaID).SystemPrompt)
}
