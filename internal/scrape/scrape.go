// Package scrape turns one URL into at most one call record: the page text
// goes to the model first and the metadata heuristic covers any failure.
package scrape

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/callfinder/internal/calls"
	"github.com/hyperifyio/callfinder/internal/extract"
	"github.com/hyperifyio/callfinder/internal/fetch"
	"github.com/hyperifyio/callfinder/internal/prompt"
)

// Fetcher retrieves a page. *fetch.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, url string) (*fetch.Page, error)
}

// TextExtractor asks a model for a record. *llm.Client satisfies it.
type TextExtractor interface {
	ExtractFromText(ctx context.Context, text, sourceURL string) (calls.Record, bool)
}

// Scraper fetches a page, tries AI extraction on its visible text and falls
// back to Heuristic, counting the fallback in Diagnostics.
type Scraper struct {
	Fetcher     Fetcher
	AI          TextExtractor
	Heuristic   extract.Extractor
	Diagnostics *calls.Diagnostics
	// TextBudget caps the visible text handed to AI. Zero uses the default.
	TextBudget int
}

// Scrape returns the record for url. ok is false when the page could not be
// fetched or parsed; those failures are logged and never reach the heuristic.
func (s *Scraper) Scrape(ctx context.Context, url string) (rec calls.Record, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("url", url).Msg("scrape failed")
			rec, ok = calls.Record{}, false
		}
	}()

	page, err := s.Fetcher.Get(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("fetch failed")
		return calls.Record{}, false
	}
	doc, err := extract.Parse(page.Body)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("markup parse failed")
		return calls.Record{}, false
	}

	if s.AI != nil {
		text := prompt.Truncate(doc.Text, s.TextBudget)
		if r, found := s.AI.ExtractFromText(ctx, text, url); found {
			r.URL = url
			return r, true
		}
	}

	h := s.Heuristic
	if h == nil {
		h = extract.HeuristicExtractor{}
	}
	s.Diagnostics.RecordFallback()
	log.Info().Str("url", url).Msg("using heuristic extraction")
	return h.Extract(doc, url)
}
