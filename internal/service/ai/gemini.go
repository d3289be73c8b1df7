package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/zhouzirui/persona-relay/backend/internal/config"
	"github.com/zhouzirui/persona-relay/backend/internal/model/chat"
	"github.com/zhouzirui/persona-relay/backend/internal/model/persona"
)

const maxResponseBytes = 1 << 20

// GeminiProvider calls the generateMessage REST endpoint.
type GeminiProvider struct {
	cfg      config.GeminiConfig
	personas persona.Store
	client   *http.Client
}

// NewGeminiProvider creates the preferred provider. A nil client uses
// http.DefaultClient; call deadlines come from the context.
func NewGeminiProvider(cfg config.GeminiConfig, personas persona.Store, client *http.Client) *GeminiProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &GeminiProvider{cfg: cfg, personas: personas, client: client}
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Configured() bool { return p.cfg.Enabled() }

type geminiContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type geminiMessage struct {
	Author  string          `json:"author"`
	Content []geminiContent `json:"content"`
}

type geminiRequest struct {
	Messages        []geminiMessage `json:"messages"`
	Temperature     float64         `json:"temperature"`
	MaxOutputTokens int             `json:"maxOutputTokens"`
}

// Generate sends the conversation and extracts the reply text.
func (p *GeminiProvider) Generate(ctx context.Context, userText, personaID string, history []chat.Message) (string, error) {
	if !p.Configured() {
		return "", newProviderError(p.Name(), 0, "", ErrMissingCredential)
	}

	turns := BuildTurns(systemPromptFor(p.personas, personaID), history, userText)
	payload := geminiRequest{
		Messages:        make([]geminiMessage, 0, len(turns)),
		Temperature:     0.7,
		MaxOutputTokens: 512,
	}
	for _, turn := range turns {
		payload.Messages = append(payload.Messages, geminiMessage{
			Author:  string(turn.Role),
			Content: []geminiContent{{Type: "text", Text: turn.Content}},
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", newProviderError(p.Name(), 0, "", fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", newProviderError(p.Name(), 0, "", fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		// The request URL never reaches logs.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return "", newProviderError(p.Name(), 0, "", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", newProviderError(p.Name(), resp.StatusCode, "", fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", newProviderError(p.Name(), resp.StatusCode, string(raw), nil)
	}

	reply := strings.TrimSpace(ExtractReply(raw, geminiExtractors))
	if reply == "" {
		return "", newProviderError(p.Name(), resp.StatusCode, string(raw), ErrEmptyReply)
	}
	return reply, nil
}

func (p *GeminiProvider) endpoint() string {
	base := strings.TrimRight(p.cfg.BaseURL, "/")
	return fmt.Sprintf("%s/models/%s:generateMessage", base, url.PathEscape(p.cfg.Model))
}
