// Package reply decides, per message, whether a bot reply comes from an
// external provider or from the heuristic engine.
package reply

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/persona-relay/backend/internal/model/chat"
	"github.com/zhouzirui/persona-relay/backend/internal/model/persona"
	"github.com/zhouzirui/persona-relay/backend/internal/service/ai"
)

// Heuristic is the rule-based fallback. It must always return a reply.
type Heuristic interface {
	Reply(userText, personaID string, history []chat.Message) string
}

// Source names where a reply came from.
type Source string

const SourceHeuristic Source = "heuristic"

// Orchestrator applies opt-in and consent gating, then walks the provider
// chain in priority order, ending at the heuristic engine.
type Orchestrator struct {
	personas  persona.Store
	heuristic Heuristic
	providers []ai.Provider
	timeout   time.Duration
}

// New builds an orchestrator. providers are tried in the given order;
// a timeout <= 0 leaves provider calls bounded only by the caller's context.
func New(personas persona.Store, heuristic Heuristic, providers []ai.Provider, timeout time.Duration) *Orchestrator {
	return &Orchestrator{
		personas:  personas,
		heuristic: heuristic,
		providers: append([]ai.Provider(nil), providers...),
		timeout:   timeout,
	}
}

// Decide returns the reply text for userText. Provider failures are absorbed;
// the only error is the caller's context being done.
func (o *Orchestrator) Decide(ctx context.Context, personaID string, session chat.Session, userText string, history []chat.Message) (string, error) {
	text, _, err := o.DecideWithSource(ctx, personaID, session, userText, history)
	return text, err
}

// DecideWithSource is Decide that also reports which backend answered.
func (o *Orchestrator) DecideWithSource(ctx context.Context, personaID string, session chat.Session, userText string, history []chat.Message) (string, Source, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	resolved := o.personas.Resolve(personaID).ID
	if !o.externalAllowed(resolved, session) {
		return o.heuristic.Reply(userText, resolved, history), SourceHeuristic, nil
	}

	for _, provider := range o.providers {
		if !provider.Configured() {
			continue
		}

		text, err := o.call(ctx, provider, userText, resolved, history)
		if err == nil {
			return text, Source(provider.Name()), nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", "", ctxErr
		}

		event := log.Warn().Err(err).Str("component", "reply").Str("provider", provider.Name()).Str("persona", resolved)
		var perr *ai.ProviderError
		if errors.As(err, &perr) && perr.Status != 0 {
			event = event.Int("status", perr.Status)
		}
		event.Msg("provider failed, falling through")
	}

	return o.heuristic.Reply(userText, resolved, history), SourceHeuristic, nil
}

// externalAllowed requires the connection opt-in, and for the medical
// persona also explicit consent.
func (o *Orchestrator) externalAllowed(personaID string, session chat.Session) bool {
	if !session.UseExternalModel {
		return false
	}
	if personaID == persona.DrGupta && !session.MedicalConsentGiven {
		return false
	}
	return true
}

func (o *Orchestrator) call(ctx context.Context, provider ai.Provider, userText, personaID string, history []chat.Message) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	text, err := provider.Generate(ctx, userText, personaID, history)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", &ai.ProviderError{Backend: provider.Name(), Err: ai.ErrEmptyReply}
	}
	return text, nil
}

// ProviderStatus reports which providers have credentials, by name.
func (o *Orchestrator) ProviderStatus() map[string]bool {
	status := make(map[string]bool, len(o.providers))
	for _, p := range o.providers {
		status[p.Name()] = p.Configured()
	}
	return status
}
