package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/callfinder/internal/cache"
	"github.com/hyperifyio/callfinder/internal/calls"
	"github.com/hyperifyio/callfinder/internal/parse"
	"github.com/hyperifyio/callfinder/internal/prompt"
)

// Client runs the two call-finding modes against one Backend and records
// every attempt in the run's Diagnostics. Its methods never return errors:
// provider and parse failures become empty results and error log entries.
type Client struct {
	Backend     Backend
	Diagnostics *calls.Diagnostics
	// Cache, when set, stores raw completions. Hits are not counted as calls.
	Cache *cache.LLMCache
	// LanguageHint asks the model to write descriptions in this language.
	LanguageHint string
	// TextBudget caps page text sent for extraction. Zero uses the default.
	TextBudget int
}

// Available reports whether calls will reach a provider.
func (c *Client) Available() bool {
	if c == nil || c.Backend == nil {
		return false
	}
	_, off := c.Backend.(Unavailable)
	return !off
}

// SearchBySubject asks the model for open calls about topic.
func (c *Client) SearchBySubject(ctx context.Context, topic string) []calls.Record {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil
	}
	text, key, cached, ok := c.complete(ctx, prompt.SubjectSearch(topic, c.LanguageHint))
	if !ok {
		return nil
	}
	recs := parse.Records(text)
	if !cached {
		c.finish(ctx, key, len(recs), text)
	}
	return recs
}

// ExtractFromText asks the model to describe the call published on a page.
// The record URL is always sourceURL.
func (c *Client) ExtractFromText(ctx context.Context, text, sourceURL string) (calls.Record, bool) {
	reply, key, cached, ok := c.complete(ctx, prompt.PageExtraction(text, c.TextBudget, c.LanguageHint))
	if !ok {
		return calls.Record{}, false
	}
	recs := parse.Records(reply)
	if !cached {
		c.finish(ctx, key, len(recs), reply)
	}
	if len(recs) == 0 {
		return calls.Record{}, false
	}
	rec := recs[0]
	rec.URL = sourceURL
	return rec, true
}

// complete returns the raw reply, from cache or from the backend, and the
// cache key for it. ok is false when nothing usable came back; the failure is
// already recorded. Fresh replies are cached by finish once they parse.
func (c *Client) complete(ctx context.Context, p prompt.Prompt) (text, key string, cached, ok bool) {
	if !c.Available() {
		reason := "no backend"
		if u, isU := c.Backend.(Unavailable); isU {
			reason = u.Reason
		}
		log.Warn().Str("reason", reason).Msg("AI call skipped")
		return "", "", false, false
	}
	name, model := c.Backend.Name(), c.Backend.Model()

	if c.Cache != nil {
		key = cache.KeyFrom(name, model, p.System, p.User)
		if hit, found, err := c.Cache.Get(ctx, key); err == nil && found {
			log.Debug().Str("provider", name).Msg("completion cache hit")
			return hit, key, true, true
		}
	}

	c.Diagnostics.RecordCall()
	text, err := c.Backend.Complete(ctx, p)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return "", "", false, false
		}
		log.Warn().Err(err).Str("provider", name).Msg("AI call failed")
		c.Diagnostics.RecordError(fmt.Sprintf("%s: %v", name, err))
		return "", "", false, false
	}
	if strings.TrimSpace(text) == "" {
		log.Warn().Str("provider", name).Msg("AI returned an empty response")
		c.Diagnostics.RecordError(name + ": empty response")
		return "", "", false, false
	}
	return text, key, false, true
}

// finish records the outcome of a parsed reply. Only replies that yielded
// records are cached, so an unusable reply is retried on the next run.
func (c *Client) finish(ctx context.Context, key string, n int, reply string) {
	if n > 0 {
		c.Diagnostics.RecordSuccess()
		if c.Cache != nil && key != "" {
			if err := c.Cache.Save(ctx, key, reply); err != nil {
				log.Debug().Err(err).Msg("completion cache save failed")
			}
		}
		return
	}
	log.Warn().Str("provider", c.Backend.Name()).Int("len", len(reply)).Msg("no JSON records in AI response")
	c.Diagnostics.RecordError(c.Backend.Name() + ": no JSON records in response")
}
