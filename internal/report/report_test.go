package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/callfinder/internal/calls"
)

var fixed = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func sample() Report {
	d := calls.NewDiagnostics()
	d.Provider = "openai"
	d.AICalls = 2
	return Report{
		Records: []calls.Record{
			calls.Record{Title: "Appel à projets", Organization: "Région", CloseDate: "15/03/2026", URL: "https://example.org/a", Description: "Énergie"}.Normalize(),
			calls.Record{Title: "No deadline"}.Normalize(),
		},
		Diagnostics: d,
		GeneratedAt: fixed,
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": PDF, "PDF": PDF, "markdown": Markdown, "md": Markdown, " json ": JSON} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q)=%q,%v", in, got, err)
		}
	}
	if _, err := ParseFormat("docx"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	if f, ok := FormatFromPath("out/report.MD"); !ok || f != Markdown {
		t.Fatalf("FormatFromPath: %q %v", f, ok)
	}
}

func TestMarkdown_BoldCloseDateOnlyWhenSpecified(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, Markdown, sample()); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "- Closes: **15/03/2026**") {
		t.Fatalf("close date not emphasised:\n%s", out)
	}
	if !strings.Contains(out, "- Closes: Unspecified\n") {
		t.Fatalf("sentinel close date should be plain:\n%s", out)
	}
	if !strings.Contains(out, "## 1. Appel à projets") || !strings.Contains(out, "<https://example.org/a>") {
		t.Fatalf("unexpected markdown:\n%s", out)
	}
}

func TestMarkdown_NoResults(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, Markdown, Report{Warning: "no subject or URL column found", GeneratedAt: fixed}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"No call for proposals was found.", "no subject or URL column found", "sujet", "lien"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, JSON, sample()); err != nil {
		t.Fatalf("render: %v", err)
	}
	var got struct {
		Records     []calls.Record    `json:"records"`
		Diagnostics calls.Diagnostics `json:"diagnostics"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Records) != 2 || got.Records[0].CloseDate != "15/03/2026" || got.Diagnostics.AICalls != 2 {
		t.Fatalf("unexpected json: %s", buf.String())
	}
}

func TestJSON_EmptyRecordsIsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, JSON, Report{GeneratedAt: fixed}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), `"records": []`) {
		t.Fatalf("expected empty array: %s", buf.String())
	}
}

func TestPDF(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, PDF, sample()); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("not a PDF")
	}
	var empty bytes.Buffer
	if err := Render(&empty, PDF, Report{GeneratedAt: fixed}); err != nil {
		t.Fatalf("render empty: %v", err)
	}
	if empty.Len() == 0 {
		t.Fatalf("empty report should still produce a document")
	}
}
