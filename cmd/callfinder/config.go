package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/callfinder/internal/app"
)

// pipelineFlags are shared by run and serve. Only flags the user actually
// set override file and environment values.
type pipelineFlags struct {
	format       string
	provider     string
	apiKey       string
	model        string
	baseURL      string
	referer      string
	title        string
	delay        time.Duration
	fetchTimeout time.Duration
	textBudget   int
	language     string
	cacheDir     string
	cacheMaxAge  time.Duration
	cacheClear   bool
	cacheStrict  bool
}

func (pf *pipelineFlags) bind(cmd *cobra.Command) {
	def := app.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&pf.format, "format", "", "Report format: pdf, md or json")
	f.StringVar(&pf.provider, "provider", "", "AI provider: openai, anthropic or openrouter")
	f.StringVar(&pf.apiKey, "api-key", "", "API key (falls back to env and dotenv)")
	f.StringVar(&pf.model, "model", "", "Model name (provider default when empty)")
	f.StringVar(&pf.baseURL, "base-url", "", "Provider base URL")
	f.StringVar(&pf.referer, "openrouter.referer", "", "HTTP-Referer sent to OpenRouter")
	f.StringVar(&pf.title, "openrouter.title", "", "X-Title sent to OpenRouter")
	f.DurationVar(&pf.delay, "delay", def.Delay, "Pause after each row")
	f.DurationVar(&pf.fetchTimeout, "fetch-timeout", def.FetchTimeout, "Page fetch timeout")
	f.IntVar(&pf.textBudget, "text-budget", def.TextBudget, "Characters of page text sent to the model")
	f.StringVar(&pf.language, "lang", "", "Language for descriptions, e.g. 'fr' or 'en'")
	f.StringVar(&pf.cacheDir, "cache.dir", "", "Cache directory (empty disables caching)")
	f.DurationVar(&pf.cacheMaxAge, "cache.maxAge", 0, "Purge cache entries older than this; 0 disables")
	f.BoolVar(&pf.cacheClear, "cache.clear", false, "Clear the cache before running")
	f.BoolVar(&pf.cacheStrict, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
}

// loadConfig layers defaults, config file, dotenv, environment and flags, in
// increasing precedence.
func loadConfig(cmd *cobra.Command, rf *rootFlags, pf *pipelineFlags) (app.Config, error) {
	cfg := app.DefaultConfig()
	if strings.TrimSpace(rf.configPath) != "" {
		fc, err := app.LoadConfigFile(rf.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		if err := app.ApplyFileConfig(&cfg, fc); err != nil {
			return cfg, err
		}
	}
	if strings.TrimSpace(rf.envFile) != "" {
		cfg.EnvFile = rf.envFile
	}
	if err := app.LoadEnvFiles(cfg.EnvFile); err != nil {
		return cfg, fmt.Errorf("load env file: %w", err)
	}
	app.ApplyEnvOverrides(&cfg)
	if rf.verbose {
		cfg.Verbose = true
	}

	fl := cmd.Flags()
	setString := func(name string, dst *string, v string) {
		if fl.Changed(name) {
			*dst = v
		}
	}
	setString("format", &cfg.Format, pf.format)
	setString("provider", &cfg.Provider, pf.provider)
	setString("api-key", &cfg.APIKey, pf.apiKey)
	setString("model", &cfg.Model, pf.model)
	setString("base-url", &cfg.BaseURL, pf.baseURL)
	setString("openrouter.referer", &cfg.OpenRouterReferer, pf.referer)
	setString("openrouter.title", &cfg.OpenRouterTitle, pf.title)
	setString("lang", &cfg.LanguageHint, pf.language)
	setString("cache.dir", &cfg.CacheDir, pf.cacheDir)
	if fl.Changed("delay") {
		cfg.Delay = pf.delay
	}
	if fl.Changed("fetch-timeout") {
		cfg.FetchTimeout = pf.fetchTimeout
	}
	if fl.Changed("text-budget") {
		cfg.TextBudget = pf.textBudget
	}
	if fl.Changed("cache.maxAge") {
		cfg.CacheMaxAge = pf.cacheMaxAge
	}
	if fl.Changed("cache.clear") {
		cfg.CacheClear = pf.cacheClear
	}
	if fl.Changed("cache.strictPerms") {
		cfg.CacheStrictPerms = pf.cacheStrict
	}
	return cfg, nil
}
