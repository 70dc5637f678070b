// Package finder drives one run over an input table: every subject row goes
// to the model as a search and every URL row is scraped, strictly in order.
package finder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/callfinder/internal/calls"
	"github.com/hyperifyio/callfinder/internal/table"
)

// ErrInputUnreadable wraps any failure to load the input table.
var ErrInputUnreadable = errors.New("input table unreadable")

// DefaultDelay is the pause after each processed row.
const DefaultDelay = time.Second

// Searcher looks up calls for a free-text subject. *llm.Client satisfies it.
type Searcher interface {
	SearchBySubject(ctx context.Context, topic string) []calls.Record
}

// PageScraper produces at most one record per URL. *scrape.Scraper satisfies it.
type PageScraper interface {
	Scrape(ctx context.Context, url string) (calls.Record, bool)
}

// Result is the outcome of a run.
type Result struct {
	Records     []calls.Record
	Diagnostics *calls.Diagnostics
	Roles       table.Roles
	// Warning is set when the table had no recognizable column.
	Warning string
}

// Finder is single-use: build one per run so Diagnostics stay run-scoped.
type Finder struct {
	Searcher    Searcher
	Scraper     PageScraper
	Diagnostics *calls.Diagnostics
	// Delay follows every processed row; zero disables it. Callers normally
	// use DefaultDelay.
	Delay time.Duration
	// ReadTable loads the input; defaults to table.ReadFile.
	ReadTable func(path string) (*table.Table, error)
}

// Process reads the table at path and runs it.
func (f *Finder) Process(ctx context.Context, path string) (Result, error) {
	read := f.ReadTable
	if read == nil {
		read = table.ReadFile
	}
	t, err := read(path)
	if err != nil {
		return Result{Records: []calls.Record{}, Diagnostics: f.diagnostics()}, fmt.Errorf("%w: %v", ErrInputUnreadable, err)
	}
	return f.Run(ctx, t)
}

// Run processes every subject row, then every URL row. A row that fails
// contributes nothing and the loop continues; only ctx cancellation stops
// the run early, returning the records gathered so far with ctx.Err().
func (f *Finder) Run(ctx context.Context, t *table.Table) (Result, error) {
	res := Result{Records: []calls.Record{}, Diagnostics: f.diagnostics()}
	if t == nil {
		return res, fmt.Errorf("%w: nil table", ErrInputUnreadable)
	}
	res.Roles = table.Resolve(t.Columns)
	if res.Roles.Empty() {
		res.Warning = fmt.Sprintf("no subject or URL column found; expected one of [%s] or [%s]",
			strings.Join(table.SubjectSynonyms, ", "), strings.Join(table.URLSynonyms, ", "))
		log.Warn().Strs("columns", t.Columns).Msg(res.Warning)
		return res, nil
	}
	log.Info().Str("run_id", res.Diagnostics.RunID).Str("subject_column", res.Roles.Subject).Str("url_column", res.Roles.URL).Int("rows", len(t.Rows)).Msg("processing table")

	if res.Roles.Subject != "" && f.Searcher != nil {
		for i := range t.Rows {
			subject := t.Value(i, res.Roles.Subject)
			if subject == "" {
				continue
			}
			res.Records = append(res.Records, f.searchRow(ctx, i, subject)...)
			if err := f.pause(ctx); err != nil {
				return res, err
			}
		}
	}
	if res.Roles.URL != "" && f.Scraper != nil {
		for i := range t.Rows {
			url := t.Value(i, res.Roles.URL)
			if url == "" {
				continue
			}
			if rec, ok := f.scrapeRow(ctx, i, url); ok {
				res.Records = append(res.Records, rec)
			}
			if err := f.pause(ctx); err != nil {
				return res, err
			}
		}
	}
	log.Info().Str("run_id", res.Diagnostics.RunID).Int("records", len(res.Records)).Msg("run complete")
	return res, nil
}

func (f *Finder) searchRow(ctx context.Context, row int, subject string) (recs []calls.Record) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Int("row", row).Msg("subject row failed")
			recs = nil
		}
	}()
	log.Info().Int("row", row).Str("subject", subject).Msg("searching subject")
	return f.Searcher.SearchBySubject(ctx, subject)
}

func (f *Finder) scrapeRow(ctx context.Context, row int, url string) (rec calls.Record, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Int("row", row).Str("url", url).Msg("url row failed")
			rec, ok = calls.Record{}, false
		}
	}()
	log.Info().Int("row", row).Str("url", url).Msg("scraping url")
	return f.Scraper.Scrape(ctx, url)
}

func (f *Finder) pause(ctx context.Context) error {
	d := f.Delay
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (f *Finder) diagnostics() *calls.Diagnostics {
	if f.Diagnostics == nil {
		f.Diagnostics = calls.NewDiagnostics()
	}
	return f.Diagnostics
}
