package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/zhouzirui/persona-relay/backend/internal/config"
	"github.com/zhouzirui/persona-relay/backend/internal/model/chat"
	"github.com/zhouzirui/persona-relay/backend/internal/model/persona"
)

// OpenAIProvider calls the chat completions API.
type OpenAIProvider struct {
	cfg      config.OpenAIConfig
	personas persona.Store
	client   *openai.Client
}

// NewOpenAIProvider creates the secondary provider. A nil httpClient keeps
// the SDK default.
func NewOpenAIProvider(cfg config.OpenAIConfig, personas persona.Store, httpClient *http.Client) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		clientCfg.HTTPClient = httpClient
	}
	return &OpenAIProvider{
		cfg:      cfg,
		personas: personas,
		client:   openai.NewClientWithConfig(clientCfg),
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Configured() bool { return p.cfg.Enabled() }

// Generate sends the conversation and returns the first choice.
func (p *OpenAIProvider) Generate(ctx context.Context, userText, personaID string, history []chat.Message) (string, error) {
	if !p.Configured() {
		return "", newProviderError(p.Name(), 0, "", ErrMissingCredential)
	}

	turns := BuildTurns(systemPromptFor(p.personas, personaID), history, userText)
	messages := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openAIRole(turn.Role),
			Content: turn.Content,
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.cfg.Model,
		Messages:    messages,
		MaxTokens:   512,
		Temperature: 0.7,
	})
	if err != nil {
		return "", p.classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", newProviderError(p.Name(), http.StatusOK, "", ErrEmptyReply)
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", newProviderError(p.Name(), http.StatusOK, "", ErrEmptyReply)
	}
	return reply, nil
}

func (p *OpenAIProvider) classify(err error) *ProviderError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return newProviderError(p.Name(), apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return newProviderError(p.Name(), reqErr.HTTPStatusCode, string(reqErr.Body), err)
	}
	return newProviderError(p.Name(), 0, "", err)
}

func openAIRole(role Role) string {
	switch role {
	case RoleSystem:
		return openai.ChatMessageRoleSystem
	case RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
