package app

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperifyio/callfinder/internal/llm"
)

func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY", "CALLFINDER_API_KEY", "LLM_API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestResolveAPIKey_Precedence(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("CALLFINDER_API_KEY", "sk-generic")

	ks, err := ResolveAPIKey("sk-direct", "", "", "")
	if err != nil || ks.Key != "sk-direct" || ks.From != "input" || ks.Provider != llm.ProviderOpenAI {
		t.Fatalf("direct: %+v %v", ks, err)
	}
	ks, _ = ResolveAPIKey("", "openai", "", "")
	if ks.Key != "sk-env" || ks.From != "OPENAI_API_KEY" {
		t.Fatalf("specific: %+v", ks)
	}
	ks, _ = ResolveAPIKey("", "anthropic", "", "")
	if ks.Key != "sk-generic" || ks.Provider != llm.ProviderAnthropic {
		t.Fatalf("generic: %+v", ks)
	}
}

func TestResolveAPIKey_ProviderInferredFromVariable(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-1")
	ks, err := ResolveAPIKey("", "", "", "")
	if err != nil || ks.Provider != llm.ProviderAnthropic {
		t.Fatalf("unexpected: %+v %v", ks, err)
	}
}

func TestResolveAPIKey_OpenRouterPrefixWins(t *testing.T) {
	clearKeyEnv(t)
	ks, _ := ResolveAPIKey("sk-or-v1-abc", "anthropic", "", "")
	if ks.Provider != llm.ProviderOpenRouter {
		t.Fatalf("provider %q", ks.Provider)
	}
}

func TestResolveAPIKey_DotenvFallback(t *testing.T) {
	clearKeyEnv(t)
	env := writeFile(t, ".env", "LLM_API_KEY=sk-from-file\n")
	ks, err := ResolveAPIKey("", "", env, "")
	if err != nil || ks.Key != "sk-from-file" || ks.From != env+":LLM_API_KEY" {
		t.Fatalf("unexpected: %+v %v", ks, err)
	}
}

func TestResolveAPIKey_None(t *testing.T) {
	clearKeyEnv(t)
	_, err := ResolveAPIKey("", "", filepath.Join(t.TempDir(), "missing.env"), "")
	if !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestResolveAPIKey_ConfigFileKeyIsLastResort(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	ks, err := ResolveAPIKey("", "", "", "sk-config")
	if err != nil || ks.Key != "sk-env" {
		t.Fatalf("env key should beat config file key: %+v %v", ks, err)
	}

	clearKeyEnv(t)
	ks, err = ResolveAPIKey("", "anthropic", "", "sk-config")
	if err != nil || ks.Key != "sk-config" || ks.From != "config" || ks.Provider != "anthropic" {
		t.Fatalf("unexpected: %+v %v", ks, err)
	}
}

func TestApplyFileConfig_KeyNotTreatedAsDirect(t *testing.T) {
	cfg := DefaultConfig()
	var fc FileConfig
	fc.APIKey = "sk-config"
	if err := ApplyFileConfig(&cfg, fc); err != nil {
		t.Fatal(err)
	}
	if cfg.APIKey != "" || cfg.FileAPIKey != "sk-config" {
		t.Fatalf("APIKey=%q FileAPIKey=%q", cfg.APIKey, cfg.FileAPIKey)
	}
}
