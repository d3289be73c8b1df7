// Package debug serves the local inspection probes: liveness with provider
// configuration, a heuristic reply tester and a tail of the conversation log.
package debug

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/persona-relay/backend/internal/model/chat"
	"github.com/zhouzirui/persona-relay/backend/internal/model/persona"
	chatservice "github.com/zhouzirui/persona-relay/backend/internal/service/chat"
	"github.com/zhouzirui/persona-relay/backend/pkg/utils"
)

const (
	defaultTail = 20
	maxTail     = 50
)

// ReplyEngine is the heuristic engine used by the reply tester.
type ReplyEngine interface {
	Reply(userText, personaID string, history []chat.Message) string
}

// ProviderStatus reports which reply providers have credentials, by name.
type ProviderStatus interface {
	ProviderStatus() map[string]bool
}

// Handler serves the debug routes.
type Handler struct {
	engine    ReplyEngine
	store     *chatservice.Store
	providers ProviderStatus
}

// New creates a debug handler.
func New(engine ReplyEngine, store *chatservice.Store, providers ProviderStatus) *Handler {
	return &Handler{engine: engine, store: store, providers: providers}
}

// RegisterRoutes mounts the probes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/_status", h.handleStatus)
	r.Get("/_testReply", h.handleTestReply)
	r.Get("/_lastMessages", h.handleLastMessages)
}

type statusResponse struct {
	Up               bool `json:"up"`
	GeminiConfigured bool `json:"geminiConfigured"`
	OpenAIConfigured bool `json:"openaiConfigured"`
	ArkConfigured    bool `json:"arkConfigured"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := h.providers.ProviderStatus()
	utils.RespondJSON(w, http.StatusOK, statusResponse{
		Up:               true,
		GeminiConfigured: status["gemini"],
		OpenAIConfigured: status["openai"],
		ArkConfigured:    status["ark"],
	})
}

type testReplyResponse struct {
	Query   string `json:"query"`
	Persona string `json:"persona"`
	Reply   string `json:"reply"`
}

// handleTestReply runs the heuristic engine with no history. The persona id
// is passed through unresolved.
func (h *Handler) handleTestReply(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	personaID := r.URL.Query().Get("persona")
	if personaID == "" {
		personaID = persona.DefaultID
	}

	reply := h.engine.Reply(query, personaID, nil)
	log.Debug().Str("component", "debug").Str("persona", personaID).Str("reply", reply).Msg("test reply")

	utils.RespondJSON(w, http.StatusOK, testReplyResponse{Query: query, Persona: personaID, Reply: reply})
}

type lastMessagesResponse struct {
	Count int            `json:"count"`
	Last  []chat.Message `json:"last"`
}

func (h *Handler) handleLastMessages(w http.ResponseWriter, r *http.Request) {
	last, count := h.store.Tail(parseTail(r.URL.Query().Get("n")))
	utils.RespondJSON(w, http.StatusOK, lastMessagesResponse{Count: count, Last: last})
}

func parseTail(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultTail
	}
	if n > maxTail {
		return maxTail
	}
	return n
}
