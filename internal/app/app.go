// Package app wires configuration, providers, caches and the finder into a
// runnable pipeline shared by the CLI and the HTTP service.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/callfinder/internal/cache"
	"github.com/hyperifyio/callfinder/internal/calls"
	"github.com/hyperifyio/callfinder/internal/fetch"
	"github.com/hyperifyio/callfinder/internal/finder"
	"github.com/hyperifyio/callfinder/internal/llm"
	"github.com/hyperifyio/callfinder/internal/report"
	"github.com/hyperifyio/callfinder/internal/scrape"
)

// App is one configured run. Build a new App for every input so that
// diagnostics never leak between runs.
type App struct {
	cfg    Config
	format report.Format
	diag   *calls.Diagnostics
	finder *finder.Finder
}

// New validates cfg and assembles the pipeline. A missing API key is not an
// error: the run proceeds with AI disabled.
func New(ctx context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	format, err := resolveFormat(cfg)
	if err != nil {
		return nil, err
	}

	ks, err := ResolveAPIKey(cfg.APIKey, cfg.Provider, cfg.EnvFile, cfg.FileAPIKey)
	if err != nil {
		log.Warn().Err(err).Msg("AI disabled; URL rows will use heuristic extraction")
	} else {
		log.Debug().Str("provider", ks.Provider).Str("key_from", ks.From).Msg("API key resolved")
	}

	diag := calls.NewDiagnostics()
	backend := llm.Select(llm.Options{
		Provider: ks.Provider,
		APIKey:   ks.Key,
		Model:    cfg.Model,
		BaseURL:  cfg.BaseURL,
		Referer:  cfg.OpenRouterReferer,
		Title:    cfg.OpenRouterTitle,
	})
	diag.Provider = backend.Name()

	var llmCache *cache.LLMCache
	var httpCache *cache.HTTPCache
	if dir := strings.TrimSpace(cfg.CacheDir); dir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(dir); err != nil {
				log.Warn().Err(err).Str("dir", dir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeByAge(dir, cfg.CacheMaxAge); err != nil {
				log.Warn().Err(err).Msg("cache purge failed")
			} else if n > 0 {
				log.Info().Int("removed", n).Msg("purged stale cache entries")
			}
		}
		llmCache = &cache.LLMCache{Dir: dir, StrictPerms: cfg.CacheStrictPerms}
		httpCache = &cache.HTTPCache{Dir: dir}
	}

	ai := &llm.Client{
		Backend:      backend,
		Diagnostics:  diag,
		Cache:        llmCache,
		LanguageHint: cfg.LanguageHint,
		TextBudget:   cfg.TextBudget,
	}
	fetcher := &fetch.Client{
		HTTPClient:        newFetchHTTPClient(),
		PerRequestTimeout: cfg.FetchTimeout,
		Cache:             httpCache,
		RedirectMaxHops:   5,
	}
	f := &finder.Finder{
		Searcher:    ai,
		Scraper:     &scrape.Scraper{Fetcher: fetcher, AI: ai, Diagnostics: diag, TextBudget: cfg.TextBudget},
		Diagnostics: diag,
		Delay:       cfg.Delay,
	}
	log.Info().Str("run_id", diag.RunID).Str("provider", diag.Provider).Str("model", backend.Model()).Msg("pipeline ready")
	return &App{cfg: cfg, format: format, diag: diag, finder: f}, nil
}

// Diagnostics returns the counters of this run.
func (a *App) Diagnostics() *calls.Diagnostics { return a.diag }

// Format is the report format this run renders.
func (a *App) Format() report.Format { return a.format }

// Process runs the finder over the configured input.
func (a *App) Process(ctx context.Context) (finder.Result, error) {
	return a.finder.Process(ctx, a.cfg.InputPath)
}

// Run processes the input and writes the report to the output path,
// returning the path written.
func (a *App) Run(ctx context.Context) (finder.Result, string, error) {
	res, err := a.Process(ctx)
	if err != nil {
		return res, "", err
	}
	out := a.OutputPath()
	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return res, "", fmt.Errorf("create output dir: %w", err)
		}
	}
	file, err := os.Create(out)
	if err != nil {
		return res, "", fmt.Errorf("create output: %w", err)
	}
	if err := report.Render(file, a.format, a.Report(res)); err != nil {
		file.Close()
		return res, "", fmt.Errorf("render %s: %w", a.format, err)
	}
	if err := file.Close(); err != nil {
		return res, "", fmt.Errorf("write output: %w", err)
	}
	log.Info().Str("out", out).Int("records", len(res.Records)).Msg("wrote report")
	return res, out, nil
}

// Report packages a result for rendering.
func (a *App) Report(res finder.Result) report.Report {
	return report.Report{Records: res.Records, Diagnostics: res.Diagnostics, Warning: res.Warning, GeneratedAt: time.Now()}
}

// OutputPath is the configured output, or "<input>-calls.<ext>" next to
// the input.
func (a *App) OutputPath() string {
	if p := strings.TrimSpace(a.cfg.OutputPath); p != "" {
		return p
	}
	base := strings.TrimSuffix(a.cfg.InputPath, filepath.Ext(a.cfg.InputPath))
	return base + "-calls" + a.format.Extension()
}

// LogSummary writes the diagnostic surface of a run.
func LogSummary(d *calls.Diagnostics, warning string) {
	if d == nil {
		return
	}
	ev := log.Info()
	if warning != "" {
		ev = log.Warn().Str("warning", warning)
	}
	ev.Str("run_id", d.RunID).
		Str("provider", d.Provider).
		Int("ai_calls", d.AICalls).
		Int("ai_successes", d.AISuccesses).
		Int("heuristic_fallbacks", d.HeuristicFallbacks).
		Str("ai_errors", d.ErrorSummary(calls.DefaultErrorSummaryLimit)).
		Msg("run summary")
}
