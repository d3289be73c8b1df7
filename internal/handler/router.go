package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/persona-relay/backend/internal/handler/broker"
	"github.com/zhouzirui/persona-relay/backend/internal/handler/debug"
	"github.com/zhouzirui/persona-relay/backend/internal/handler/persona"
	middlewarePkg "github.com/zhouzirui/persona-relay/backend/internal/middleware"
	personaModel "github.com/zhouzirui/persona-relay/backend/internal/model/persona"
	chatService "github.com/zhouzirui/persona-relay/backend/internal/service/chat"
)

// Deps bundles what the routes are served from.
type Deps struct {
	AllowedOrigins []string
	Personas       personaModel.Store
	Store          *chatService.Store
	Hub            *broker.Hub
	Engine         debug.ReplyEngine
	Providers      debug.ProviderStatus
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.AllowedOrigins))

	broker.NewHandler(deps.Hub, deps.AllowedOrigins).RegisterRoutes(r)
	debug.New(deps.Engine, deps.Store, deps.Providers).RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		persona.New(deps.Personas).RegisterRoutes(api)
	})

	return r
}
