package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperifyio/callfinder/internal/cache"
	"github.com/hyperifyio/callfinder/internal/calls"
	"github.com/hyperifyio/callfinder/internal/llmstub"
)

func newStub(t *testing.T, reply llmstub.ReplyFunc) (*llmstub.Stub, *httptest.Server) {
	t.Helper()
	s := llmstub.New(reply)
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return s, srv
}

func TestSelect(t *testing.T) {
	cases := []struct {
		provider, key, want string
	}{
		{"", "sk-abc", ProviderOpenAI},
		{" Anthropic ", "sk-ant-1", ProviderAnthropic},
		{"openai", "SK-OR-v1-xyz", ProviderOpenRouter},
		{"anthropic", "sk-or-1", ProviderOpenRouter},
		{"OPENROUTER", "k", ProviderOpenRouter},
	}
	for _, tc := range cases {
		b := Select(Options{Provider: tc.provider, APIKey: tc.key})
		if b.Name() != tc.want {
			t.Fatalf("Select(%q,%q)=%s want %s", tc.provider, tc.key, b.Name(), tc.want)
		}
	}
}

func TestSelect_UnknownOrMissingKeyIsUnavailable(t *testing.T) {
	if _, ok := Select(Options{Provider: "mistral", APIKey: "k"}).(Unavailable); !ok {
		t.Fatalf("unknown provider should be unavailable")
	}
	if _, ok := Select(Options{Provider: "openai"}).(Unavailable); !ok {
		t.Fatalf("missing key should be unavailable")
	}
}

func TestClient_Unavailable_NoCallsCounted(t *testing.T) {
	d := calls.NewDiagnostics()
	c := &Client{Backend: Select(Options{Provider: "mistral", APIKey: "k"}), Diagnostics: d}
	if recs := c.SearchBySubject(context.Background(), "renewable energy grants"); len(recs) != 0 {
		t.Fatalf("expected no records, got %v", recs)
	}
	if _, ok := c.ExtractFromText(context.Background(), "page", "https://x"); ok {
		t.Fatalf("expected no record")
	}
	if d.AICalls != 0 || len(d.AIErrors) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", d)
	}
}

func TestOpenAI_SearchBySubject(t *testing.T) {
	stub, srv := newStub(t, nil)
	d := calls.NewDiagnostics()
	c := &Client{Backend: Select(Options{Provider: "openai", APIKey: "sk-test", BaseURL: srv.URL + "/v1"}), Diagnostics: d}
	recs := c.SearchBySubject(context.Background(), "solar")
	if len(recs) != 2 || recs[0].Title != "Call on solar" || recs[1].CloseDate != calls.Unspecified {
		t.Fatalf("unexpected records: %+v", recs)
	}
	if d.AICalls != 1 || d.AISuccesses != 1 {
		t.Fatalf("unexpected counters: %+v", d)
	}
	reqs := stub.Requests()
	if len(reqs) != 1 || reqs[0].Model != DefaultOpenAIModel || reqs[0].System == "" {
		t.Fatalf("unexpected request: %+v", reqs)
	}
	if got := reqs[0].Header.Get("Authorization"); got != "Bearer sk-test" {
		t.Fatalf("auth header %q", got)
	}
}

func TestAnthropic_ExtractFromText(t *testing.T) {
	stub, srv := newStub(t, nil)
	d := calls.NewDiagnostics()
	c := &Client{Backend: Select(Options{Provider: "anthropic", APIKey: "sk-ant", BaseURL: srv.URL}), Diagnostics: d}
	rec, ok := c.ExtractFromText(context.Background(), "Some page text", "https://example.org/call")
	if !ok {
		t.Fatalf("expected a record")
	}
	if rec.Title != "Extracted call" || rec.URL != "https://example.org/call" || rec.CloseDate != "30/06/2026" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if d.AICalls != 1 || d.AISuccesses != 1 {
		t.Fatalf("unexpected counters: %+v", d)
	}
	reqs := stub.Requests()
	if len(reqs) != 1 || reqs[0].Model != DefaultAnthropicModel || !strings.Contains(reqs[0].User, "Some page text") {
		t.Fatalf("unexpected request: %+v", reqs)
	}
	if reqs[0].Header.Get("X-Api-Key") != "sk-ant" {
		t.Fatalf("api key header missing")
	}
}

func TestOpenRouter_HeadersAndModel(t *testing.T) {
	stub, srv := newStub(t, nil)
	d := calls.NewDiagnostics()
	b := Select(Options{APIKey: "sk-or-v1-abc", BaseURL: srv.URL + "/api/v1/", Referer: "https://callfinder.local"})
	c := &Client{Backend: b, Diagnostics: d}
	if recs := c.SearchBySubject(context.Background(), "health"); len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	r := stub.Requests()[0]
	if r.Path != "/api/v1/chat/completions" {
		t.Fatalf("path %q", r.Path)
	}
	if r.Model != DefaultOpenRouterModel {
		t.Fatalf("model %q", r.Model)
	}
	if r.Header.Get("HTTP-Referer") != "https://callfinder.local" || r.Header.Get("X-Title") != DefaultOpenRouterTitle {
		t.Fatalf("missing attribution headers: %v", r.Header)
	}
}

func TestOpenRouter_HTTPErrorRecorded(t *testing.T) {
	_, srv := newStub(t, llmstub.Fixed(strings.Repeat("q", 500), http.StatusTooManyRequests))
	d := calls.NewDiagnostics()
	c := &Client{Backend: Select(Options{APIKey: "sk-or-x", BaseURL: srv.URL}), Diagnostics: d}
	if recs := c.SearchBySubject(context.Background(), "x"); len(recs) != 0 {
		t.Fatalf("expected empty result")
	}
	if d.AICalls != 1 || d.AISuccesses != 0 || len(d.AIErrors) != 1 {
		t.Fatalf("unexpected counters: %+v", d)
	}
	msg := d.AIErrors[0]
	if !strings.Contains(msg, "OpenRouter HTTP 429") {
		t.Fatalf("unexpected error: %q", msg)
	}
	if strings.Count(msg, "q") > errorBodyLimit {
		t.Fatalf("error body not truncated: %d", len(msg))
	}
}

func TestClient_UnparsableReplyCountsCallNotSuccess(t *testing.T) {
	_, srv := newStub(t, llmstub.Fixed("I could not find anything.", 0))
	d := calls.NewDiagnostics()
	c := &Client{Backend: Select(Options{APIKey: "sk-x", BaseURL: srv.URL}), Diagnostics: d}
	if _, ok := c.ExtractFromText(context.Background(), "text", "u"); ok {
		t.Fatalf("expected no record")
	}
	if d.AICalls != 1 || d.AISuccesses != 0 || len(d.AIErrors) != 1 {
		t.Fatalf("unexpected counters: %+v", d)
	}
}

func TestClient_EmptyReplyRecorded(t *testing.T) {
	_, srv := newStub(t, llmstub.Fixed("", 0))
	d := calls.NewDiagnostics()
	c := &Client{Backend: Select(Options{APIKey: "sk-x", BaseURL: srv.URL}), Diagnostics: d}
	c.SearchBySubject(context.Background(), "x")
	if len(d.AIErrors) != 1 || !strings.Contains(d.AIErrors[0], "empty response") {
		t.Fatalf("unexpected errors: %v", d.AIErrors)
	}
}

func TestClient_CacheHitNotCounted(t *testing.T) {
	stub, srv := newStub(t, nil)
	d := calls.NewDiagnostics()
	c := &Client{
		Backend:     Select(Options{APIKey: "sk-x", BaseURL: srv.URL}),
		Diagnostics: d,
		Cache:       &cache.LLMCache{Dir: t.TempDir()},
	}
	first := c.SearchBySubject(context.Background(), "wind")
	second := c.SearchBySubject(context.Background(), "wind")
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected cached records to match, got %d and %d", len(first), len(second))
	}
	if n := len(stub.Requests()); n != 1 {
		t.Fatalf("expected 1 backend request, got %d", n)
	}
	if d.AICalls != 1 || d.AISuccesses != 1 {
		t.Fatalf("unexpected counters: %+v", d)
	}
}

func TestClient_UnparsableReplyNotCached(t *testing.T) {
	stub, srv := newStub(t, llmstub.Fixed("Sorry, the service is busy.", 0))
	dir := t.TempDir()
	run := func() *calls.Diagnostics {
		d := calls.NewDiagnostics()
		c := &Client{
			Backend:     Select(Options{APIKey: "sk-x", BaseURL: srv.URL}),
			Diagnostics: d,
			Cache:       &cache.LLMCache{Dir: dir},
		}
		if recs := c.SearchBySubject(context.Background(), "wind"); len(recs) != 0 {
			t.Fatalf("expected no records, got %v", recs)
		}
		return d
	}
	first, second := run(), run()
	if n := len(stub.Requests()); n != 2 {
		t.Fatalf("expected the unusable reply to be requested again, got %d requests", n)
	}
	for i, d := range []*calls.Diagnostics{first, second} {
		if d.AICalls != 1 || d.AISuccesses != 0 || len(d.AIErrors) != 1 {
			t.Fatalf("run %d: unexpected counters: %+v", i+1, d)
		}
	}
}

func TestClient_BlankTopicSkipped(t *testing.T) {
	stub, srv := newStub(t, nil)
	c := &Client{Backend: Select(Options{APIKey: "sk-x", BaseURL: srv.URL}), Diagnostics: calls.NewDiagnostics()}
	if recs := c.SearchBySubject(context.Background(), "   "); recs != nil {
		t.Fatalf("expected nil")
	}
	if len(stub.Requests()) != 0 {
		t.Fatalf("no request expected")
	}
}
