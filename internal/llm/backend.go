// Package llm sends call-finding prompts to a chat model and turns the
// replies into call records. One Backend is chosen per run by Select.
package llm

import (
	"context"
	"errors"

	"github.com/hyperifyio/callfinder/internal/prompt"
)

// Provider names accepted by Select.
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
)

// ErrUnavailable is returned by the unavailable backend.
var ErrUnavailable = errors.New("llm: no usable provider configured")

// Backend sends one prompt to a provider and returns the raw assistant text.
type Backend interface {
	Name() string
	Model() string
	Complete(ctx context.Context, p prompt.Prompt) (string, error)
}

// Unavailable stands in when no provider can be used. Every call is a no-op.
type Unavailable struct {
	// Reason is logged with each skipped call.
	Reason string
	// Requested is the provider name the caller asked for, if any.
	Requested string
}

func (u Unavailable) Name() string {
	if u.Requested != "" {
		return u.Requested
	}
	return "none"
}

func (Unavailable) Model() string { return "" }

func (Unavailable) Complete(context.Context, prompt.Prompt) (string, error) {
	return "", ErrUnavailable
}
