// Package ai adapts external language-model backends to a single Provider
// capability used by the reply orchestrator.
package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/zhouzirui/persona-relay/backend/internal/model/chat"
)

// Provider generates a reply from an external backend.
type Provider interface {
	// Name identifies the backend in logs and errors.
	Name() string
	// Configured reports whether credentials are present. Unconfigured
	// providers are skipped by the orchestrator.
	Configured() bool
	// Generate returns the reply text or a *ProviderError.
	Generate(ctx context.Context, userText, personaID string, history []chat.Message) (string, error)
}

// ErrMissingCredential marks a call to a provider without an API key.
var ErrMissingCredential = errors.New("missing credential")

// ErrEmptyReply marks a successful response that carried no usable text.
var ErrEmptyReply = errors.New("empty reply")

// ProviderError describes any failed provider call. Status is the HTTP
// status when one was received, zero otherwise.
type ProviderError struct {
	Backend string
	Status  int
	Body    string
	Err     error
}

func (e *ProviderError) Error() string {
	msg := e.Backend + " provider"
	if e.Status != 0 {
		msg += fmt.Sprintf(" status %d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Body != "" {
		msg += ": " + truncate(e.Body, 256)
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func newProviderError(backend string, status int, body string, err error) *ProviderError {
	return &ProviderError{Backend: backend, Status: status, Body: body, Err: err}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
