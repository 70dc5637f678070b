package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides overrides cfg fields with environment variables when the
// corresponding variables are set. Flags are applied afterwards by the CLI so
// they keep the highest precedence. API keys are not read here; see
// ResolveAPIKey.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	setString := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	setString(&cfg.Provider, "CALLFINDER_PROVIDER", "AI_PROVIDER")
	setString(&cfg.Model, "LLM_MODEL")
	setString(&cfg.BaseURL, "LLM_BASE_URL")
	setString(&cfg.OpenRouterReferer, "OPENROUTER_REFERER")
	setString(&cfg.OpenRouterTitle, "OPENROUTER_TITLE")
	setString(&cfg.EnvFile, "CALLFINDER_ENV_FILE")
	setString(&cfg.LanguageHint, "LANGUAGE")
	setString(&cfg.CacheDir, "CACHE_DIR")
	setString(&cfg.Format, "REPORT_FORMAT")

	setDuration := func(dst *time.Duration, key string) {
		if s := strings.TrimSpace(os.Getenv(key)); s != "" {
			if d, err := time.ParseDuration(s); err == nil && d >= 0 {
				*dst = d
			}
		}
	}
	setDuration(&cfg.Delay, "REQUEST_DELAY")
	setDuration(&cfg.FetchTimeout, "FETCH_TIMEOUT")
	setDuration(&cfg.CacheMaxAge, "CACHE_MAX_AGE")

	if s := strings.TrimSpace(os.Getenv("TEXT_BUDGET")); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			cfg.TextBudget = n
		}
	}

	// Booleans override when env present and truthy/falsey
	setBool := func(dst *bool, envKey string) {
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			switch s {
			case "1", "true", "yes", "on":
				*dst = true
			case "0", "false", "no", "off":
				*dst = false
			}
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}
