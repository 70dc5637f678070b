package llm

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// sdkTimeout bounds OpenAI and Anthropic requests made through their SDKs.
const sdkTimeout = 120 * time.Second

// Options configures backend selection.
type Options struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	// Referer and Title are only used by OpenRouter.
	Referer string
	Title   string
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// IsOpenRouterKey reports whether key has the OpenRouter "sk-or-" prefix.
func IsOpenRouterKey(key string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(key)), "sk-or-")
}

// ResolveProvider returns the provider name used for opts: an OpenRouter key
// always wins, otherwise the configured name lower-cased, defaulting to openai.
func ResolveProvider(provider, apiKey string) string {
	if IsOpenRouterKey(apiKey) {
		return ProviderOpenRouter
	}
	p := strings.ToLower(strings.TrimSpace(provider))
	if p == "" {
		return ProviderOpenAI
	}
	return p
}

// Select builds the backend for opts. Missing keys and unknown provider
// names produce an Unavailable backend rather than an error so a run can
// still proceed with the heuristic extractor.
func Select(opts Options) Backend {
	name := ResolveProvider(opts.Provider, opts.APIKey)
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		log.Warn().Str("provider", name).Msg("no API key; AI calls disabled")
		return Unavailable{Reason: "no API key", Requested: name}
	}
	switch name {
	case ProviderOpenAI:
		return NewOpenAI(key, opts.Model, opts.BaseURL, sdkClient(opts.HTTPClient))
	case ProviderAnthropic:
		return NewAnthropic(key, opts.Model, opts.BaseURL, sdkClient(opts.HTTPClient))
	case ProviderOpenRouter:
		title := opts.Title
		if title == "" {
			title = DefaultOpenRouterTitle
		}
		return &OpenRouterBackend{
			HTTPClient: opts.HTTPClient,
			APIKey:     key,
			BaseURL:    opts.BaseURL,
			ModelName:  opts.Model,
			Referer:    opts.Referer,
			Title:      title,
		}
	default:
		log.Warn().Str("provider", name).Msg("unknown provider; AI calls disabled")
		return Unavailable{Reason: "unknown provider " + name, Requested: name}
	}
}

func sdkClient(hc *http.Client) *http.Client {
	if hc != nil {
		return hc
	}
	return &http.Client{Timeout: sdkTimeout}
}
