package app

import (
	"time"

	"github.com/hyperifyio/callfinder/internal/fetch"
	"github.com/hyperifyio/callfinder/internal/finder"
	"github.com/hyperifyio/callfinder/internal/prompt"
)

// Config holds runtime configuration for one run.
type Config struct {
	InputPath  string
	OutputPath string
	// Format is pdf, md or json. Empty infers it from OutputPath, then pdf.
	Format string

	// LLM
	Provider string
	// APIKey is a key given directly (flag or form field). It beats every
	// other source.
	APIKey string
	// FileAPIKey comes from the config file and is used only when no
	// environment or dotenv key exists.
	FileAPIKey        string
	Model             string
	BaseURL           string
	OpenRouterReferer string
	OpenRouterTitle   string
	// EnvFile is the dotenv file consulted for API keys.
	EnvFile string

	// Behavior
	Delay        time.Duration
	FetchTimeout time.Duration
	TextBudget   int
	LanguageHint string

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	Verbose bool
}

const defaultEnvFile = ".env"

// DefaultConfig returns the settings used when nothing else is configured.
func DefaultConfig() Config {
	return Config{
		EnvFile:      defaultEnvFile,
		Delay:        finder.DefaultDelay,
		FetchTimeout: fetch.DefaultTimeout,
		TextBudget:   prompt.DefaultTextBudget,
	}
}
