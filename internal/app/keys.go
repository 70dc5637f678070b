package app

import (
	"errors"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/callfinder/internal/llm"
)

// ErrNoAPIKey reports that no key was found anywhere. Runs continue without
// AI, so callers usually only log it.
var ErrNoAPIKey = errors.New("no API key configured")

// Generic key variables, consulted after the provider-specific ones.
var genericKeyVars = []string{"CALLFINDER_API_KEY", "LLM_API_KEY"}

var providerKeyVars = []struct {
	provider string
	env      string
}{
	{llm.ProviderOpenAI, "OPENAI_API_KEY"},
	{llm.ProviderAnthropic, "ANTHROPIC_API_KEY"},
	{llm.ProviderOpenRouter, "OPENROUTER_API_KEY"},
}

// KeySource is a resolved API key with the provider it implies.
type KeySource struct {
	Key      string
	Provider string
	// From names where the key came from: "input", an env var,
	// "<file>:<var>" for a dotenv entry, or "config" for the config file.
	From string
}

// ResolveAPIKey finds the key to use. Precedence: direct input, the
// provider-specific variable, the generic variables, the same names in the
// dotenv file at envFile, and last fileKey from the config file. When
// provider is empty every provider-specific variable is tried in order and
// the matching one sets the provider. A key with the "sk-or-" prefix always
// selects OpenRouter.
func ResolveAPIKey(direct, provider, envFile, fileKey string) (KeySource, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if k := strings.TrimSpace(direct); k != "" {
		return finishKey(KeySource{Key: k, Provider: provider, From: "input"}), nil
	}

	type candidate struct{ provider, env string }
	var names []candidate
	for _, p := range providerKeyVars {
		if provider == "" || provider == p.provider {
			names = append(names, candidate{p.provider, p.env})
		}
	}
	for _, g := range genericKeyVars {
		names = append(names, candidate{"", g})
	}

	pick := func(lookup func(string) string, from func(string) string) (KeySource, bool) {
		for _, c := range names {
			if v := strings.TrimSpace(lookup(c.env)); v != "" {
				p := provider
				if p == "" {
					p = c.provider
				}
				return finishKey(KeySource{Key: v, Provider: p, From: from(c.env)}), true
			}
		}
		return KeySource{}, false
	}

	if ks, ok := pick(os.Getenv, func(n string) string { return n }); ok {
		return ks, nil
	}
	if strings.TrimSpace(envFile) != "" {
		vals, err := ReadEnvFile(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("file", envFile).Msg("dotenv file unreadable")
		}
		if ks, ok := pick(func(n string) string { return vals[n] }, func(n string) string { return envFile + ":" + n }); ok {
			return ks, nil
		}
	}
	if k := strings.TrimSpace(fileKey); k != "" {
		return finishKey(KeySource{Key: k, Provider: provider, From: "config"}), nil
	}
	return KeySource{Provider: llm.ResolveProvider(provider, "")}, ErrNoAPIKey
}

func finishKey(ks KeySource) KeySource {
	ks.Provider = llm.ResolveProvider(ks.Provider, ks.Key)
	return ks
}
