// Package heuristic implements the deterministic, rule-based reply policy
// used when no external model is allowed or available.
package heuristic

import (
	"regexp"
	"strings"

	"github.com/zhouzirui/persona-relay/backend/internal/model/chat"
	"github.com/zhouzirui/persona-relay/backend/internal/model/persona"
)

// HistoryWindow bounds how many trailing messages the symptom and keyword
// rules consult. Questions already asked are looked up in the whole history.
const HistoryWindow = 6

// Engine picks a reply for a persona from the latest user utterance and the
// recent conversation. It holds no state between calls.
type Engine struct {
	window int
}

// New returns an Engine consulting the last HistoryWindow messages.
func New() *Engine {
	return &Engine{window: HistoryWindow}
}

// Reply never fails and always returns a non-empty string.
func (e *Engine) Reply(userText, personaID string, history []chat.Message) string {
	turn := newTurn(userText, history, e.window)

	switch personaID {
	case persona.DrGupta:
		return replyDrGupta(turn)
	case persona.Zoya:
		return replyZoya(turn)
	case persona.Robin:
		return replyRobin(turn)
	case persona.Rabindr:
		return replyRabindr(turn)
	default:
		return replyGeneric(turn)
	}
}

// turn is the normalized view of one reply request.
type turn struct {
	msg       string // lower-cased current utterance
	userTurns string // lower-cased user turns of the window, newline joined
	botTurns  string // lower-cased bot turns of the whole history, newline joined
}

func newTurn(userText string, history []chat.Message, window int) turn {
	var users, bots []string
	for _, m := range recent(history, window) {
		if m.Sender != chat.SenderBot {
			users = append(users, normalize(m.Text))
		}
	}
	for _, m := range history {
		if m.Sender == chat.SenderBot {
			bots = append(bots, normalize(m.Text))
		}
	}
	return turn{
		msg:       normalize(userText),
		userTurns: strings.Join(users, "\n"),
		botTurns:  strings.Join(bots, "\n"),
	}
}

// withHistory is the current utterance followed by the user's recent turns.
func (t turn) withHistory() string {
	if t.userTurns == "" {
		return t.msg
	}
	return t.msg + "\n" + t.userTurns
}

func (t turn) isQuestion() bool {
	return strings.HasSuffix(strings.TrimSpace(t.msg), "?")
}

var greetingPattern = regexp.MustCompile(`\b(hello|hi)\b`)

func (t turn) isGreeting() bool {
	return greetingPattern.MatchString(t.msg)
}

func (t turn) mentions(words ...string) bool {
	for _, w := range words {
		if strings.Contains(t.msg, w) {
			return true
		}
	}
	return false
}

// firstMention returns the first word of the list found in the utterance.
func (t turn) firstMention(words []string) (string, bool) {
	for _, w := range words {
		if strings.Contains(t.msg, w) {
			return w, true
		}
	}
	return "", false
}

func normalize(text string) string {
	text = strings.ToLower(text)
	return strings.ReplaceAll(text, "’", "'")
}

func recent(history []chat.Message, n int) []chat.Message {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
