package llm

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/callfinder/internal/prompt"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// temperature keeps answers close to the page content.
const temperature = 0.3

// OpenAIBackend talks to the OpenAI chat completions API or any compatible
// server reachable at BaseURL.
type OpenAIBackend struct {
	client *openai.Client
	model  string
}

// NewOpenAI builds an OpenAI backend. Empty model and baseURL use defaults.
func NewOpenAI(apiKey, model, baseURL string, httpClient *http.Client) *OpenAIBackend {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIBackend{client: openai.NewClientWithConfig(cfg), model: model}
}

func (b *OpenAIBackend) Name() string  { return ProviderOpenAI }
func (b *OpenAIBackend) Model() string { return b.model }

func (b *OpenAIBackend) Complete(ctx context.Context, p prompt.Prompt) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if p.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: p.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: p.User})
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       b.model,
		Messages:    msgs,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
