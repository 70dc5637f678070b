package parse

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hyperifyio/callfinder/internal/calls"
)

func TestObjects_ArrayInsideProse(t *testing.T) {
	text := `Here is the result: [{"titre":"X","organisation":"Y","date_debut":"01/01/2026","date_cloture":"31/01/2026","url":"https://x","description":"Z"}] Hope this helps!`
	objs := Objects(text)
	if len(objs) != 1 {
		t.Fatalf("expected exactly one object, got %d", len(objs))
	}
	if objs[0]["titre"] != "X" || objs[0]["url"] != "https://x" {
		t.Fatalf("unexpected object: %v", objs[0])
	}

	recs := Records(text)
	want := []calls.Record{{Title: "X", Organization: "Y", StartDate: "01/01/2026", CloseDate: "31/01/2026", URL: "https://x", Description: "Z"}}
	if diff := cmp.Diff(want, recs); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestObjects_MarkdownFence(t *testing.T) {
	text := "```json\n[\n  {\"title\": \"A\"},\n  {\"title\": \"B\"}\n]\n```"
	objs := Objects(text)
	if len(objs) != 2 || objs[1]["title"] != "B" {
		t.Fatalf("unexpected objects: %v", objs)
	}
}

func TestObjects_SingleObjectWrapped(t *testing.T) {
	text := "Sure!\n{\"title\": \"Only\", \"close_date\": \"15/03/2026\"}\nThanks"
	objs := Objects(text)
	if len(objs) != 1 || objs[0]["title"] != "Only" {
		t.Fatalf("expected one wrapped object, got %v", objs)
	}
}

func TestObjects_Unparsable(t *testing.T) {
	cases := []string{
		"",
		"no json here",
		"[not json]",
		"{broken: }",
		"] reversed [",
		"} reversed {",
		"[1, 2, 3]",
	}
	for _, in := range cases {
		got := Objects(in)
		if got == nil {
			t.Fatalf("Objects(%q) returned nil, want empty list", in)
		}
		if len(got) != 0 {
			t.Fatalf("Objects(%q)=%v, want empty", in, got)
		}
	}
}

func TestObjects_DropsNonObjectElements(t *testing.T) {
	got := Objects(`[{"title":"A"}, "noise", 3]`)
	if len(got) != 1 || got[0]["title"] != "A" {
		t.Fatalf("unexpected: %v", got)
	}
}
