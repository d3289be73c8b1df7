package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/persona-relay/backend/internal/analysis/heuristic"
	"github.com/zhouzirui/persona-relay/backend/internal/model/chat"
	"github.com/zhouzirui/persona-relay/backend/internal/model/persona"
	chatservice "github.com/zhouzirui/persona-relay/backend/internal/service/chat"
	"github.com/zhouzirui/persona-relay/backend/internal/service/reply"
)

type decideFunc func(ctx context.Context, personaID string, session chat.Session, userText string, history []chat.Message) (string, error)

func (f decideFunc) Decide(ctx context.Context, personaID string, session chat.Session, userText string, history []chat.Message) (string, error) {
	return f(ctx, personaID, session, userText, history)
}

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func heuristicDecider(personas persona.Store) Decider {
	return reply.New(personas, heuristic.New(), nil, time.Second)
}

func startHub(t *testing.T, store *chatservice.Store, decider Decider) *Hub {
	t.Helper()

	personas := persona.NewMemoryStore(persona.Seed())
	if decider == nil {
		decider = heuristicDecider(personas)
	}
	hub := NewHub(store, personas, decider)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() { stopped <- hub.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-stopped:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("hub did not stop")
		}
	})
	return hub
}

func joinClient(t *testing.T, hub *Hub, id string, queue int) *Client {
	t.Helper()
	c := &Client{id: id, hub: hub, send: make(chan []byte, queue)}
	require.True(t, hub.join(c))
	return c
}

func nextFrame(t *testing.T, c *Client) frame {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send queue closed")
		var f frame
		require.NoError(t, json.Unmarshal(data, &f))
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return frame{}
	}
}

func nextMessage(t *testing.T, c *Client) chat.Message {
	t.Helper()
	f := nextFrame(t, c)
	require.Equal(t, EventMessage, f.Type)
	var msg chat.Message
	require.NoError(t, json.Unmarshal(f.Data, &msg))
	return msg
}

func send(t *testing.T, hub *Hub, c *Client, event string, payload string) {
	t.Helper()
	var data json.RawMessage
	if payload != "" {
		data = json.RawMessage(payload)
	}
	require.True(t, hub.deliver(clientEvent{client: c, envelope: Envelope{Type: event, Data: data}}))
}

func TestHubReplaysHistoryOnJoin(t *testing.T) {
	store := chatservice.NewStore()
	for _, text := range []string{"one", "two", "three"} {
		store.Append(chat.NewUserMessage(text, persona.Zoya))
	}
	hub := startHub(t, store, nil)

	c := joinClient(t, hub, "c1", 8)
	f := nextFrame(t, c)

	require.Equal(t, EventChatHistory, f.Type)
	var history []chat.Message
	require.NoError(t, json.Unmarshal(f.Data, &history))
	require.Len(t, history, 3)
	assert.Equal(t, "one", history[0].Text)
	assert.Equal(t, "three", history[2].Text)
}

func TestHubEmptyHistoryIsArray(t *testing.T) {
	hub := startHub(t, chatservice.NewStore(), nil)

	f := nextFrame(t, joinClient(t, hub, "c1", 8))

	assert.Equal(t, EventChatHistory, f.Type)
	assert.JSONEq(t, `[]`, string(f.Data))
}

func TestHubBroadcastsUserThenBot(t *testing.T) {
	store := chatservice.NewStore()
	hub := startHub(t, store, nil)
	sender := joinClient(t, hub, "sender", 8)
	watcher := joinClient(t, hub, "watcher", 8)
	nextFrame(t, sender)
	nextFrame(t, watcher)

	send(t, hub, sender, EventNewMessage, `{"text":"I feel sad and overwhelmed","persona":"zoya"}`)

	for _, c := range []*Client{sender, watcher} {
		userMsg := nextMessage(t, c)
		assert.Equal(t, chat.SenderUser, userMsg.Sender)
		assert.Equal(t, "I feel sad and overwhelmed", userMsg.Text)
		assert.Equal(t, persona.Zoya, userMsg.Persona)
		assert.Equal(t, chat.UserAvatar, userMsg.Avatar)

		botMsg := nextMessage(t, c)
		assert.Equal(t, chat.SenderBot, botMsg.Sender)
		assert.Equal(t, persona.Zoya, botMsg.Persona)
		assert.Equal(t, "Zoya", botMsg.PersonaLabel)
		assert.Equal(t, "/avatar4.jpg", botMsg.Avatar)
		assert.Equal(t, fmt.Sprintf(heuristic.FeelingReflection, "sad"), botMsg.Text)
	}

	assert.Equal(t, 2, store.Len())
}

func TestHubBareStringDefaultsPersona(t *testing.T) {
	hub := startHub(t, chatservice.NewStore(), nil)
	c := joinClient(t, hub, "c1", 8)
	nextFrame(t, c)

	send(t, hub, c, EventNewMessage, `"hello"`)

	assert.Equal(t, persona.DrGupta, nextMessage(t, c).Persona)
	bot := nextMessage(t, c)
	assert.Equal(t, persona.DrGupta, bot.Persona)
	assert.Equal(t, "Dr. Gupta", bot.PersonaLabel)
	assert.Equal(t, "/avatar3.jpg", bot.Avatar)
}

func TestHubUnknownPersonaStoredAsDefault(t *testing.T) {
	store := chatservice.NewStore()
	hub := startHub(t, store, nil)
	c := joinClient(t, hub, "c1", 8)
	nextFrame(t, c)

	send(t, hub, c, EventNewMessage, `{"text":"hello","persona":"nurse"}`)
	nextMessage(t, c)
	nextMessage(t, c)

	for _, msg := range store.Snapshot() {
		assert.Equal(t, persona.DrGupta, msg.Persona)
	}
}

func TestHubMalformedPayloadStillReplies(t *testing.T) {
	hub := startHub(t, chatservice.NewStore(), nil)
	c := joinClient(t, hub, "c1", 8)
	nextFrame(t, c)

	send(t, hub, c, EventNewMessage, `{"text":42}`)

	userMsg := nextMessage(t, c)
	assert.Empty(t, userMsg.Text)
	assert.NotEmpty(t, nextMessage(t, c).Text)
}

func TestHubSessionDirectives(t *testing.T) {
	sessions := make(chan chat.Session, 4)
	decider := decideFunc(func(_ context.Context, _ string, session chat.Session, _ string, _ []chat.Message) (string, error) {
		sessions <- session
		return "ok", nil
	})
	hub := startHub(t, chatservice.NewStore(), decider)
	c := joinClient(t, hub, "c1", 16)
	other := joinClient(t, hub, "c2", 16)
	nextFrame(t, c)
	nextFrame(t, other)

	send(t, hub, c, EventSetLLM, `true`)
	send(t, hub, c, EventSetMedicalConsent, `"yes"`)
	send(t, hub, c, EventNewMessage, `"first"`)
	assert.Equal(t, chat.Session{UseExternalModel: true, MedicalConsentGiven: true}, <-sessions)

	send(t, hub, c, EventSetLLM, `"false"`)
	send(t, hub, c, EventNewMessage, `"second"`)
	assert.Equal(t, chat.Session{MedicalConsentGiven: true}, <-sessions)

	send(t, hub, other, EventNewMessage, `"third"`)
	assert.Equal(t, chat.Session{}, <-sessions, "sessions are per connection")
}

func TestHubPassesPriorHistoryOnly(t *testing.T) {
	store := chatservice.NewStore()
	for i := 0; i < 10; i++ {
		store.Append(chat.NewUserMessage(fmt.Sprintf("m%d", i), persona.Robin))
	}
	histories := make(chan []chat.Message, 1)
	decider := decideFunc(func(_ context.Context, _ string, _ chat.Session, _ string, history []chat.Message) (string, error) {
		histories <- history
		return "ok", nil
	})
	hub := startHub(t, store, decider)
	c := joinClient(t, hub, "c1", 8)
	nextFrame(t, c)

	send(t, hub, c, EventNewMessage, `{"text":"now","persona":"robin"}`)

	history := <-histories
	require.Len(t, history, 10)
	assert.Equal(t, "m0", history[0].Text)
	assert.Equal(t, "m9", history[len(history)-1].Text)
}

func TestHubDrGuptaNeverRepeatsQuestion(t *testing.T) {
	hub := startHub(t, chatservice.NewStore(), nil)
	c := joinClient(t, hub, "c1", 8)
	nextFrame(t, c)

	var replies []string
	for _, text := range []string{"I feel unwell", "not sure", "dunno", "hmm", "no", "ok"} {
		send(t, hub, c, EventNewMessage, fmt.Sprintf(`{"text":%q,"persona":"dr_gupta"}`, text))
		nextMessage(t, c)
		replies = append(replies, nextMessage(t, c).Text)
	}

	require.Len(t, replies, 6)
	assert.Equal(t, []string{
		"When did these symptoms start?",
		"How long have you been experiencing them?",
		"How severe would you rate the symptoms on a scale of 1 to 10?",
		"Are you experiencing any other symptoms such as fever, cough, nausea, or shortness of breath?",
		"Do you have any relevant medical history, allergies, or current medications?",
	}, replies[:5])

	seen := map[string]bool{}
	for _, r := range replies {
		assert.False(t, seen[r], "repeated reply %q", r)
		seen[r] = true
	}
}

func TestHubApology(t *testing.T) {
	cases := map[string]decideFunc{
		"panic": func(context.Context, string, chat.Session, string, []chat.Message) (string, error) {
			panic("boom")
		},
		"error": func(context.Context, string, chat.Session, string, []chat.Message) (string, error) {
			return "", errors.New("engine failure")
		},
	}

	for name, decider := range cases {
		t.Run(name, func(t *testing.T) {
			store := chatservice.NewStore()
			hub := startHub(t, store, decider)
			c := joinClient(t, hub, "c1", 8)
			nextFrame(t, c)

			send(t, hub, c, EventNewMessage, `{"text":"hi","persona":"robin"}`)
			nextMessage(t, c)
			bot := nextMessage(t, c)

			assert.Equal(t, Apology, bot.Text)
			assert.Equal(t, persona.Robin, bot.Persona)
			assert.Equal(t, "Robin", bot.PersonaLabel)
			assert.Equal(t, 2, store.Len())
		})
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := startHub(t, chatservice.NewStore(), nil)
	slow := joinClient(t, hub, "slow", 1)
	fast := joinClient(t, hub, "fast", 8)
	nextFrame(t, fast)

	send(t, hub, fast, EventNewMessage, `"hello"`)
	nextMessage(t, fast)
	nextMessage(t, fast)

	f := nextFrame(t, slow)
	assert.Equal(t, EventChatHistory, f.Type)
	_, ok := <-slow.send
	assert.False(t, ok, "slow client should be dropped")
}

func TestHubIgnoresUnknownEvent(t *testing.T) {
	store := chatservice.NewStore()
	hub := startHub(t, store, nil)
	c := joinClient(t, hub, "c1", 8)
	nextFrame(t, c)

	send(t, hub, c, "typing", `true`)
	send(t, hub, c, EventNewMessage, `"hello"`)

	assert.Equal(t, "hello", nextMessage(t, c).Text)
	nextMessage(t, c)
	assert.Equal(t, 2, store.Len())
}

func TestHubLeaveClosesQueue(t *testing.T) {
	hub := startHub(t, chatservice.NewStore(), nil)
	c := joinClient(t, hub, "c1", 8)
	nextFrame(t, c)

	hub.leave(c)

	_, ok := <-c.send
	assert.False(t, ok)
}

func TestHubStopClosesClients(t *testing.T) {
	personas := persona.NewMemoryStore(persona.Seed())
	hub := NewHub(chatservice.NewStore(), personas, heuristicDecider(personas))
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() { stopped <- hub.Run(ctx) }()

	c := joinClient(t, hub, "c1", 8)
	nextFrame(t, c)
	cancel()

	require.NoError(t, <-stopped)
	_, ok := <-c.send
	assert.False(t, ok)
	assert.False(t, hub.join(&Client{id: "late", hub: hub, send: make(chan []byte, 1)}))
}
