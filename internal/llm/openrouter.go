package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperifyio/callfinder/internal/prompt"
)

const (
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultOpenRouterModel   = "openai/gpt-4o-mini"
	DefaultOpenRouterTitle   = "CallFinder"
	openRouterTimeout        = 60 * time.Second
	// errorBodyLimit bounds the response excerpt kept in error messages.
	errorBodyLimit = 300
)

// OpenRouterBackend posts OpenAI-shaped chat requests to OpenRouter. Referer
// and Title are sent as HTTP-Referer and X-Title when set.
type OpenRouterBackend struct {
	HTTPClient *http.Client
	APIKey     string
	BaseURL    string
	ModelName  string
	Referer    string
	Title      string
}

func (b *OpenRouterBackend) Name() string { return ProviderOpenRouter }

func (b *OpenRouterBackend) Model() string {
	if b.ModelName == "" {
		return DefaultOpenRouterModel
	}
	return b.ModelName
}

type orMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type orRequest struct {
	Model       string      `json:"model"`
	Messages    []orMessage `json:"messages"`
	Temperature float64     `json:"temperature"`
}

type orResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (b *OpenRouterBackend) Complete(ctx context.Context, p prompt.Prompt) (string, error) {
	msgs := make([]orMessage, 0, 2)
	if p.System != "" {
		msgs = append(msgs, orMessage{Role: "system", Content: p.System})
	}
	msgs = append(msgs, orMessage{Role: "user", Content: p.User})
	payload, err := json.Marshal(orRequest{Model: b.Model(), Messages: msgs, Temperature: temperature})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	base := strings.TrimRight(b.BaseURL, "/")
	if base == "" {
		base = DefaultOpenRouterBaseURL
	}
	ctx, cancel := context.WithTimeout(ctx, openRouterTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if b.Referer != "" {
		req.Header.Set("HTTP-Referer", b.Referer)
	}
	if b.Title != "" {
		req.Header.Set("X-Title", b.Title)
	}

	hc := b.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("OpenRouter HTTP %d: %s", resp.StatusCode, excerpt(body, errorBodyLimit))
	}
	var out orResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("openrouter: no choices in response")
	}
	return out.Choices[0].Message.Content, nil
}

func excerpt(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
