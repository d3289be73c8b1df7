package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/persona-relay/backend/internal/analysis/heuristic"
	"github.com/zhouzirui/persona-relay/backend/internal/config"
	"github.com/zhouzirui/persona-relay/backend/internal/handler"
	"github.com/zhouzirui/persona-relay/backend/internal/handler/broker"
	"github.com/zhouzirui/persona-relay/backend/internal/model/persona"
	"github.com/zhouzirui/persona-relay/backend/internal/service/ai"
	"github.com/zhouzirui/persona-relay/backend/internal/service/chat"
	"github.com/zhouzirui/persona-relay/backend/internal/service/reply"
)

func serve(ctx context.Context, cfg *config.Config) error {
	personaStore := persona.NewMemoryStore(persona.Seed())
	store := chat.NewStore()
	engine := heuristic.New()

	providers, err := buildProviders(ctx, cfg.Providers, personaStore)
	if err != nil {
		return err
	}
	orchestrator := reply.New(personaStore, engine, providers, cfg.Providers.Timeout)
	for name, ok := range orchestrator.ProviderStatus() {
		log.Info().Str("provider", name).Bool("configured", ok).Msg("reply provider")
	}

	hub := broker.NewHub(store, personaStore, orchestrator)
	router := handler.NewRouter(handler.Deps{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Personas:       personaStore,
		Store:          store,
		Hub:            hub,
		Engine:         engine,
		Providers:      orchestrator,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error { return hub.Run(egCtx) })
	eg.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("persona-relay listening")
		return runServer(egCtx, srv)
	})
	return eg.Wait()
}

// buildProviders returns the reply backends in fallback order. Backends
// without credentials are kept so that status reporting can list them.
func buildProviders(ctx context.Context, cfg config.ProvidersConfig, personas persona.Store) ([]ai.Provider, error) {
	client := &http.Client{Timeout: cfg.Timeout}

	var arkModel model.BaseChatModel
	if cfg.Ark.Enabled() {
		chatModel, err := cfg.Ark.NewChatModel(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize ark chat model, continuing without it")
		} else {
			arkModel = chatModel
		}
	}
	arkProvider, err := ai.NewChainProvider(ctx, "ark", arkModel, personas)
	if err != nil {
		return nil, err
	}

	return []ai.Provider{
		ai.NewGeminiProvider(cfg.Gemini, personas, client),
		ai.NewOpenAIProvider(cfg.OpenAI, personas, client),
		arkProvider,
	}, nil
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
