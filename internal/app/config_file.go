package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/callfinder/internal/report"
)

// FileConfig represents the single-file configuration schema. Durations are
// Go duration strings such as "1s" so every format reads them the same way.
type FileConfig struct {
	Input   string `yaml:"input" json:"input" toml:"input"`
	Output  string `yaml:"output" json:"output" toml:"output"`
	Format  string `yaml:"format" json:"format" toml:"format"`
	EnvFile string `yaml:"envFile" json:"envFile" toml:"envFile"`

	Provider string `yaml:"provider" json:"provider" toml:"provider"`
	APIKey   string `yaml:"apiKey" json:"apiKey" toml:"apiKey"`
	Model    string `yaml:"model" json:"model" toml:"model"`
	BaseURL  string `yaml:"baseURL" json:"baseURL" toml:"baseURL"`

	OpenRouter struct {
		Referer string `yaml:"referer" json:"referer" toml:"referer"`
		Title   string `yaml:"title" json:"title" toml:"title"`
	} `yaml:"openrouter" json:"openrouter" toml:"openrouter"`

	Delay        string `yaml:"delay" json:"delay" toml:"delay"`
	FetchTimeout string `yaml:"fetchTimeout" json:"fetchTimeout" toml:"fetchTimeout"`
	TextBudget   int    `yaml:"textBudget" json:"textBudget" toml:"textBudget"`
	Language     string `yaml:"language" json:"language" toml:"language"`
	Verbose      bool   `yaml:"verbose" json:"verbose" toml:"verbose"`

	Cache struct {
		Dir         string `yaml:"dir" json:"dir" toml:"dir"`
		MaxAge      string `yaml:"maxAge" json:"maxAge" toml:"maxAge"`
		Clear       bool   `yaml:"clear" json:"clear" toml:"clear"`
		StrictPerms bool   `yaml:"strictPerms" json:"strictPerms" toml:"strictPerms"`
	} `yaml:"cache" json:"cache" toml:"cache"`
}

// LoadConfigFile reads YAML, JSON or TOML into FileConfig, chosen by
// extension. Unknown extensions try YAML then JSON.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(b), &fc); err != nil {
			return fc, fmt.Errorf("parse toml: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays every value set in fc onto cfg. It runs before
// ApplyEnvOverrides and flags, so it only replaces defaults.
func ApplyFileConfig(cfg *Config, fc FileConfig) error {
	if cfg == nil {
		return nil
	}
	set := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&cfg.InputPath, fc.Input)
	set(&cfg.OutputPath, fc.Output)
	set(&cfg.Format, fc.Format)
	set(&cfg.EnvFile, fc.EnvFile)
	set(&cfg.Provider, fc.Provider)
	set(&cfg.FileAPIKey, fc.APIKey)
	set(&cfg.Model, fc.Model)
	set(&cfg.BaseURL, fc.BaseURL)
	set(&cfg.OpenRouterReferer, fc.OpenRouter.Referer)
	set(&cfg.OpenRouterTitle, fc.OpenRouter.Title)
	set(&cfg.LanguageHint, fc.Language)
	set(&cfg.CacheDir, fc.Cache.Dir)

	durations := []struct {
		dst  *time.Duration
		name string
		v    string
	}{
		{&cfg.Delay, "delay", fc.Delay},
		{&cfg.FetchTimeout, "fetchTimeout", fc.FetchTimeout},
		{&cfg.CacheMaxAge, "cache.maxAge", fc.Cache.MaxAge},
	}
	for _, d := range durations {
		if strings.TrimSpace(d.v) == "" {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.v))
		if err != nil {
			return fmt.Errorf("config: %s: %w", d.name, err)
		}
		*d.dst = v
	}
	if fc.TextBudget > 0 {
		cfg.TextBudget = fc.TextBudget
	}
	if fc.Verbose {
		cfg.Verbose = true
	}
	if fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}
	return nil
}

// ValidateConfig performs minimal validation of required settings.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.InputPath) == "" {
		return errors.New("config: input path is required")
	}
	if cfg.Delay < 0 || cfg.FetchTimeout < 0 || cfg.TextBudget < 0 || cfg.CacheMaxAge < 0 {
		return errors.New("config: negative durations or limits are not allowed")
	}
	if _, err := resolveFormat(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// resolveFormat returns the explicit format, else the one implied by the
// output extension, else PDF.
func resolveFormat(cfg Config) (report.Format, error) {
	if strings.TrimSpace(cfg.Format) != "" {
		return report.ParseFormat(cfg.Format)
	}
	if f, ok := report.FormatFromPath(cfg.OutputPath); ok {
		return f, nil
	}
	return report.PDF, nil
}
