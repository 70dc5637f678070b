// Package llmstub serves canned chat completions in the wire formats of the
// OpenAI, OpenRouter and Anthropic APIs. Tests and local runs point the
// provider base URL at it to avoid real network calls.
package llmstub

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
)

// Request is one chat request as seen by the stub.
type Request struct {
	Path    string
	Header  http.Header
	Model   string
	System  string
	User    string
}

// ReplyFunc decides the assistant text for a request. A non-zero status
// makes the stub answer with that HTTP status and the text as body.
type ReplyFunc func(req Request) (content string, status int)

// Stub is an http.Handler recording every request it answers.
type Stub struct {
	Reply ReplyFunc

	mu       sync.Mutex
	requests []Request
}

// New returns a stub answering with DefaultReply when reply is nil.
func New(reply ReplyFunc) *Stub {
	if reply == nil {
		reply = DefaultReply
	}
	return &Stub{Reply: reply}
}

// Requests returns a copy of the recorded requests.
func (s *Stub) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

type chatMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type chatRequest struct {
	Model    string          `json:"model"`
	System   json.RawMessage `json:"system"`
	Messages []chatMessage   `json:"messages"`
}

func (s *Stub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	anthropic := strings.HasSuffix(r.URL.Path, "/messages")
	if !anthropic && !strings.HasSuffix(r.URL.Path, "/chat/completions") {
		http.NotFound(w, r)
		return
	}
	var body chatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	req := Request{Path: r.URL.Path, Header: r.Header.Clone(), Model: body.Model, System: textOf(body.System)}
	for _, m := range body.Messages {
		switch m.Role {
		case "system":
			req.System = textOf(m.Content)
		case "user":
			req.User = textOf(m.Content)
		}
	}
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	content, status := s.Reply(req)
	if status != 0 && status != http.StatusOK {
		http.Error(w, content, status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if anthropic {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            "msg_stub",
			"type":          "message",
			"role":          "assistant",
			"model":         body.Model,
			"content":       []map[string]any{{"type": "text", "text": content}},
			"stop_reason":   "end_turn",
			"stop_sequence": nil,
			"usage":         map[string]int{"input_tokens": 1, "output_tokens": 1},
		})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-stub",
		"object":  "chat.completion",
		"model":   body.Model,
		"choices": []map[string]any{{"index": 0, "finish_reason": "stop", "message": map[string]string{"role": "assistant", "content": content}}},
	})
}

// textOf accepts either a JSON string or an array of {"type":"text"} blocks.
func textOf(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var blocks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.Type == "text" || b.Type == "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// DefaultReply answers subject searches (requests with a system message)
// with a prose-wrapped array of two calls about the topic, and page
// extractions with a single object.
func DefaultReply(req Request) (string, int) {
	if req.System != "" {
		topic := "the topic"
		if i := strings.Index(req.User, "about: "); i >= 0 {
			topic = strings.TrimSpace(strings.SplitN(req.User[i+len("about: "):], "\n", 2)[0])
		}
		b, _ := json.Marshal([]map[string]string{
			{"title": "Call on " + topic, "organization": "Stub Agency", "start_date": "01/01/2026", "close_date": "31/03/2026", "url": "https://calls.example/1", "description": "First call about " + topic},
			{"title": "Second call on " + topic, "organization": "Stub Foundation", "url": "https://calls.example/2"},
		})
		return "Here are the calls I found:\n" + string(b), 0
	}
	return "```json\n{\"title\": \"Extracted call\", \"organization\": \"Stub Agency\", \"start_date\": \"Unspecified\", \"close_date\": \"30/06/2026\", \"description\": \"Extracted from page\"}\n```", 0
}

// Fixed returns a ReplyFunc that always answers with content and status.
func Fixed(content string, status int) ReplyFunc {
	return func(Request) (string, int) { return content, status }
}
