package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hyperifyio/callfinder/internal/prompt"
)

const (
	DefaultAnthropicModel = "claude-sonnet-4-5-20250929"
	anthropicMaxTokens    = 4096
)

// AnthropicBackend uses the Messages API. SDK retries are disabled because
// failed calls fall back to the heuristic path instead.
type AnthropicBackend struct {
	client anthropic.Client
	model  string
}

// NewAnthropic builds an Anthropic backend. Empty model and baseURL use defaults.
func NewAnthropic(apiKey, model, baseURL string, httpClient *http.Client) *AnthropicBackend {
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if model == "" {
		model = DefaultAnthropicModel
	}
	return &AnthropicBackend{client: anthropic.NewClient(opts...), model: model}
}

func (b *AnthropicBackend) Name() string  { return ProviderAnthropic }
func (b *AnthropicBackend) Model() string { return b.model }

func (b *AnthropicBackend) Complete(ctx context.Context, p prompt.Prompt) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(b.model),
		MaxTokens: anthropicMaxTokens,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(p.User))},
	}
	if p.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: p.System}}
	}
	msg, err := b.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
