// Package parse recovers JSON payloads from free-form model output. Models
// routinely wrap the requested JSON in prose or markdown fences, so the
// parser searches for the payload instead of decoding the whole text.
package parse

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/callfinder/internal/calls"
)

// Objects returns the JSON objects embedded in text. It first looks for the
// span from the first '[' to the last ']' and decodes it as an array; when no
// such span exists it looks for the span from the first '{' to the last '}'
// and returns it as a single-element list. Malformed JSON or no match yields
// an empty list. Array elements that are not objects are dropped.
func Objects(text string) []map[string]any {
	if span, ok := outerSpan(text, '[', ']'); ok {
		var items []any
		if err := json.Unmarshal([]byte(span), &items); err != nil {
			log.Debug().Err(err).Int("len", len(text)).Msg("model output: array span is not valid JSON")
			return []map[string]any{}
		}
		out := make([]map[string]any, 0, len(items))
		for _, it := range items {
			if obj, ok := it.(map[string]any); ok {
				out = append(out, obj)
			}
		}
		return out
	}
	if span, ok := outerSpan(text, '{', '}'); ok {
		var obj map[string]any
		if err := json.Unmarshal([]byte(span), &obj); err != nil || obj == nil {
			log.Debug().Err(err).Int("len", len(text)).Msg("model output: object span is not valid JSON")
			return []map[string]any{}
		}
		return []map[string]any{obj}
	}
	return []map[string]any{}
}

// Records decodes the embedded objects into normalized call records.
func Records(text string) []calls.Record {
	objs := Objects(text)
	out := make([]calls.Record, 0, len(objs))
	for _, o := range objs {
		out = append(out, calls.FromObject(o))
	}
	return out
}

// outerSpan returns text from the first open byte to the last close byte,
// matching a greedy dot-all pattern such as `\[.*\]`.
func outerSpan(text string, open, close byte) (string, bool) {
	start := strings.IndexByte(text, open)
	if start < 0 {
		return "", false
	}
	end := strings.LastIndexByte(text, close)
	if end <= start {
		return "", false
	}
	return text[start : end+1], true
}
