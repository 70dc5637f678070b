// Package report renders the records of a run as PDF, Markdown or JSON.
package report

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperifyio/callfinder/internal/calls"
	"github.com/hyperifyio/callfinder/internal/table"
)

// Format selects a renderer.
type Format string

const (
	PDF      Format = "pdf"
	Markdown Format = "md"
	JSON     Format = "json"
)

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown report format")

// ParseFormat accepts pdf, md, markdown and json. Empty means PDF.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pdf":
		return PDF, nil
	case "md", "markdown":
		return Markdown, nil
	case "json":
		return JSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromPath infers the format from an output file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return PDF, true
	case ".md", ".markdown":
		return Markdown, true
	case ".json":
		return JSON, true
	}
	return "", false
}

// ContentType is the MIME type of the rendered output.
func (f Format) ContentType() string {
	switch f {
	case Markdown:
		return "text/markdown; charset=utf-8"
	case JSON:
		return "application/json"
	default:
		return "application/pdf"
	}
}

// Extension is the file extension including the dot.
func (f Format) Extension() string { return "." + string(f) }

// Report is everything a renderer needs.
type Report struct {
	Records     []calls.Record
	Diagnostics *calls.Diagnostics
	Warning     string
	GeneratedAt time.Time
}

// Render writes r in format f.
func Render(w io.Writer, f Format, r Report) error {
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now()
	}
	switch f {
	case PDF:
		return writePDF(w, r)
	case Markdown:
		return writeMarkdown(w, r)
	case JSON:
		return writeJSON(w, r)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}

const reportTitle = "Calls for proposals"

// NoResultsNotice explains an empty report, listing accepted column names.
func NoResultsNotice(warning string) []string {
	lines := []string{"No call for proposals was found."}
	if warning != "" {
		lines = append(lines, warning)
	}
	lines = append(lines,
		"Subject columns: "+strings.Join(table.SubjectSynonyms, ", "),
		"URL columns: "+strings.Join(table.URLSynonyms, ", "),
	)
	return lines
}
