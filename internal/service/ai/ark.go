package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/persona-relay/backend/internal/model/chat"
	"github.com/zhouzirui/persona-relay/backend/internal/model/persona"
)

// ChainProvider runs an eino prompt chain over any chat model. It backs the
// Ark provider; a nil chat model yields an unconfigured provider.
type ChainProvider struct {
	name     string
	personas persona.Store
	chain    compose.Runnable[map[string]any, *schema.Message]
}

// NewChainProvider compiles system prompt + history + user query into a
// chain ending at chatModel.
func NewChainProvider(ctx context.Context, name string, chatModel model.BaseChatModel, personas persona.Store) (*ChainProvider, error) {
	p := &ChainProvider{name: name, personas: personas}
	if chatModel == nil {
		return p, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s chat chain: %w", name, err)
	}
	p.chain = runnable
	return p, nil
}

func (p *ChainProvider) Name() string { return p.name }

func (p *ChainProvider) Configured() bool { return p.chain != nil }

// Generate invokes the compiled chain.
func (p *ChainProvider) Generate(ctx context.Context, userText, personaID string, history []chat.Message) (string, error) {
	if !p.Configured() {
		return "", newProviderError(p.Name(), 0, "", ErrMissingCredential)
	}

	response, err := p.chain.Invoke(ctx, p.buildChainInput(userText, personaID, history))
	if err != nil {
		return "", newProviderError(p.Name(), 0, "", fmt.Errorf("failed to run chain: %w", err))
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", newProviderError(p.Name(), 0, "", ErrEmptyReply)
	}

	log.Debug().Str("component", "ai").Str("provider", p.name).Str("persona", personaID).Int("length", len(response.Content)).Msg("generated reply")
	return strings.TrimSpace(response.Content), nil
}

func (p *ChainProvider) buildChainInput(userText, personaID string, history []chat.Message) map[string]any {
	turns := BuildTurns(systemPromptFor(p.personas, personaID), history, userText)

	messages := make([]*schema.Message, 0, len(turns)-2)
	for _, turn := range turns[1 : len(turns)-1] {
		switch turn.Role {
		case RoleUser:
			messages = append(messages, schema.UserMessage(turn.Content))
		case RoleAssistant:
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		}
	}

	return map[string]any{
		"system":  turns[0].Content,
		"history": messages,
		"query":   userText,
	}
}
