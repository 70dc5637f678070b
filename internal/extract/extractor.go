package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/callfinder/internal/calls"
)

// Extractor produces a call record from a parsed page without a model.
// Implementations must be deterministic and free of side effects.
type Extractor interface {
	Extract(page *Page, sourceURL string) (calls.Record, bool)
}

// HeuristicExtractor reads common metadata tags and scans the visible text
// for French and English opening/closing date phrases.
type HeuristicExtractor struct{}

func (HeuristicExtractor) Extract(page *Page, sourceURL string) (calls.Record, bool) {
	if page == nil {
		return calls.Record{}, false
	}
	return Heuristic(page.Doc, page.Text, sourceURL)
}

const datePattern = `(\b\d{1,2}[./-]\d{1,2}[./-]\d{2,4}\b|\b\d{1,2}\s+(?:janvier|février|fevrier|mars|avril|mai|juin|juillet|août|aout|septembre|octobre|novembre|décembre|decembre)\s+\d{4}\b)`

var (
	closeDateRe = regexp.MustCompile(`(?is)(?:cl[ôo]ture|deadline|limite).{0,40}` + datePattern)
	startDateRe = regexp.MustCompile(`(?is)(?:d[ée]but|ouverture|start).{0,40}` + datePattern)
)

// Heuristic builds a record from page metadata and the visible text. The
// first matching source wins for each field; missing fields get sentinels
// and the URL is always sourceURL. It returns false only when extraction
// itself failed.
func Heuristic(doc *goquery.Document, text, sourceURL string) (rec calls.Record, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Str("url", sourceURL).Msg("heuristic extraction failed")
			rec, ok = calls.Record{}, false
		}
	}()
	if doc != nil {
		rec.Title = firstNonEmpty(
			metaContent(doc, `meta[property="og:title"]`),
			metaContent(doc, `meta[name="twitter:title"]`),
			collapseSpace(doc.Find("title").First().Text()),
			firstHeading(doc, "h1"),
			firstHeading(doc, "h2"),
		)
		rec.Description = firstNonEmpty(
			metaContent(doc, `meta[property="og:description"]`),
			metaContent(doc, `meta[name="description"]`),
			metaContent(doc, `meta[name="twitter:description"]`),
		)
		rec.Organization = metaContent(doc, `meta[property="og:site_name"]`)
	}
	rec.CloseDate = findDate(closeDateRe, text)
	rec.StartDate = findDate(startDateRe, text)
	rec = rec.Normalize()
	rec.URL = sourceURL
	return rec, true
}

func metaContent(doc *goquery.Document, selector string) string {
	return collapseSpace(doc.Find(selector).First().AttrOr("content", ""))
}

func firstHeading(doc *goquery.Document, tag string) string {
	var out string
	doc.Find(tag).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		out = collapseSpace(s.Text())
		return out == ""
	})
	return out
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func findDate(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
