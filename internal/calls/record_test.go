package calls

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFromObject_FrenchKeys(t *testing.T) {
	got := FromObject(map[string]any{
		"titre":        "X",
		"organisation": "Y",
		"date_debut":   "01/01/2026",
		"date_cloture": "31/01/2026",
		"url":          "https://x",
		"description":  "Z",
	})
	want := Record{Title: "X", Organization: "Y", StartDate: "01/01/2026", CloseDate: "31/01/2026", URL: "https://x", Description: "Z"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestFromObject_DefaultsAndScalars(t *testing.T) {
	got := FromObject(map[string]any{
		"Title":      2026.0,
		"close_date": nil,
		"url":        []any{"nested"},
		"extra":      "ignored",
	})
	want := Record{Title: "2026", Organization: Unspecified, StartDate: Unspecified, CloseDate: Unspecified}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestHasCloseDate(t *testing.T) {
	cases := map[string]bool{
		"15 mars 2026":  true,
		"":              false,
		Unspecified:     false,
		"Non spécifiée": false,
		"not specified": false,
	}
	for in, want := range cases {
		if got := (Record{CloseDate: in}).HasCloseDate(); got != want {
			t.Fatalf("HasCloseDate(%q)=%v, want %v", in, got, want)
		}
	}
}

func TestDiagnostics_ErrorSummaryBounded(t *testing.T) {
	d := NewDiagnostics()
	if d.RunID == "" {
		t.Fatalf("expected run id")
	}
	d.RecordError("first")
	d.RecordError("  ")
	d.RecordError("second")
	if got := d.ErrorSummary(0); got != "first; second" {
		t.Fatalf("summary=%q", got)
	}
	d.RecordError(strings.Repeat("é", 600))
	got := d.ErrorSummary(DefaultErrorSummaryLimit)
	if len(got) > DefaultErrorSummaryLimit {
		t.Fatalf("summary too long: %d", len(got))
	}
	if !strings.HasPrefix(got, "first; second; é") {
		t.Fatalf("unexpected prefix: %q", got[:20])
	}
	if strings.ToValidUTF8(got, "?") != got {
		t.Fatalf("summary split a rune")
	}
}

func TestDiagnostics_NilSafe(t *testing.T) {
	var d *Diagnostics
	d.RecordCall()
	d.RecordSuccess()
	d.RecordFallback()
	d.RecordError("x")
	if d.ErrorSummary(10) != "" {
		t.Fatalf("nil diagnostics should summarise to empty")
	}
}
