// Package broker is the real-time side of the relay: it replays history to
// joining connections, turns user messages into bot replies and broadcasts
// every appended message to all connections.
package broker

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/persona-relay/backend/internal/model/chat"
	"github.com/zhouzirui/persona-relay/backend/internal/model/persona"
	chatservice "github.com/zhouzirui/persona-relay/backend/internal/service/chat"
)

// Decider produces the bot reply text for a user message.
type Decider interface {
	Decide(ctx context.Context, personaID string, session chat.Session, userText string, history []chat.Message) (string, error)
}

type clientEvent struct {
	client   *Client
	envelope Envelope
}

type replyRequest struct {
	persona persona.Persona
	session chat.Session
	text    string
	history []chat.Message
}

// Hub owns the connection set and every connection's session. All of that
// state, and every store append, is touched only from the Run goroutine.
type Hub struct {
	store    *chatservice.Store
	personas persona.Store
	decider  Decider

	register   chan *Client
	unregister chan *Client
	inbound    chan clientEvent
	replies    chan chat.Message
	done       chan struct{}

	clients map[*Client]struct{}
	pending sync.WaitGroup
}

// NewHub creates a hub. Run must be called before clients can join.
func NewHub(store *chatservice.Store, personas persona.Store, decider Decider) *Hub {
	return &Hub{
		store:      store,
		personas:   personas,
		decider:    decider,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan clientEvent, 64),
		replies:    make(chan chat.Message, 16),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
	}
}

// Run processes events until ctx is done. All clients are closed and
// in-flight replies are abandoned before it returns.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.remove(c)
			}
			h.pending.Wait()
			log.Info().Str("component", "broker").Msg("hub stopped")
			return nil
		case c := <-h.register:
			h.clients[c] = struct{}{}
			log.Debug().Str("component", "broker").Str("client", c.id).Int("clients", len(h.clients)).Msg("client joined")
			h.sendHistory(c)
		case c := <-h.unregister:
			h.remove(c)
		case ev := <-h.inbound:
			h.dispatch(ctx, ev)
		case msg := <-h.replies:
			h.publish(msg)
		}
	}
}

// join registers c; false once the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) deliver(ev clientEvent) bool {
	select {
	case h.inbound <- ev:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) dispatch(ctx context.Context, ev clientEvent) {
	c := ev.client
	if _, ok := h.clients[c]; !ok {
		return
	}

	switch ev.envelope.Type {
	case EventNewMessage:
		h.handleNewMessage(ctx, c, ev.envelope.Data)
	case EventSetLLM:
		c.session.UseExternalModel = truthy(ev.envelope.Data)
		log.Debug().Str("component", "broker").Str("client", c.id).Bool("useExternalModel", c.session.UseExternalModel).Msg("session updated")
	case EventSetMedicalConsent:
		c.session.MedicalConsentGiven = truthy(ev.envelope.Data)
		log.Debug().Str("component", "broker").Str("client", c.id).Bool("medicalConsentGiven", c.session.MedicalConsentGiven).Msg("session updated")
	default:
		log.Debug().Str("component", "broker").Str("client", c.id).Str("type", ev.envelope.Type).Msg("ignoring unknown event")
	}
}

func (h *Hub) handleNewMessage(ctx context.Context, c *Client, data []byte) {
	text, requested := parseNewMessage(data)
	p := h.personas.Resolve(requested)

	// History is read before the user message lands, so it holds prior turns only.
	history := h.store.Snapshot()
	h.publish(chat.NewUserMessage(text, p.ID))

	log.Info().Str("component", "broker").Str("client", c.id).Str("persona", p.ID).Msg("user message received")

	h.pending.Add(1)
	go h.reply(ctx, replyRequest{persona: p, session: c.session, text: text, history: history})
}

func (h *Hub) reply(ctx context.Context, req replyRequest) {
	defer h.pending.Done()

	msg := h.compose(ctx, req)
	select {
	case h.replies <- msg:
	case <-ctx.Done():
	}
}

func (h *Hub) compose(ctx context.Context, req replyRequest) (msg chat.Message) {
	p := req.persona
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("component", "broker").Str("persona", p.ID).Interface("panic", r).Msg("reply construction panicked")
			msg = chat.NewBotMessage(Apology, p.ID, p.Label, p.Avatar)
		}
	}()

	text, err := h.decider.Decide(ctx, p.ID, req.session, req.text, req.history)
	if err != nil {
		log.Error().Err(err).Str("component", "broker").Str("persona", p.ID).Msg("reply construction failed")
		return chat.NewBotMessage(Apology, p.ID, p.Label, p.Avatar)
	}
	return chat.NewBotMessage(text, p.ID, p.Label, p.Avatar)
}

// publish appends msg and broadcasts it to every client.
func (h *Hub) publish(msg chat.Message) {
	h.store.Append(msg)

	data, err := encode(EventMessage, msg)
	if err != nil {
		log.Error().Err(err).Str("component", "broker").Msg("encode message failed")
		return
	}
	for c := range h.clients {
		h.enqueue(c, data)
	}
}

func (h *Hub) sendHistory(c *Client) {
	data, err := encode(EventChatHistory, h.store.Snapshot())
	if err != nil {
		log.Error().Err(err).Str("component", "broker").Msg("encode history failed")
		return
	}
	h.enqueue(c, data)
}

// enqueue never blocks the loop: a client that cannot keep up is dropped.
func (h *Hub) enqueue(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		log.Warn().Str("component", "broker").Str("client", c.id).Msg("send queue full, dropping client")
		h.remove(c)
	}
}

func (h *Hub) remove(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	log.Debug().Str("component", "broker").Str("client", c.id).Int("clients", len(h.clients)).Msg("client left")
}
