package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// LLMCache stores raw completion text keyed by a digest of backend, model and
// prompt. Entries live under <Dir>/llm as <key>.txt.
type LLMCache struct {
	Dir string
	// StrictPerms, when true, creates directories 0700 and files 0600.
	StrictPerms bool
}

// KeyFrom builds a cache key from the backend name, model and prompt parts.
func KeyFrom(backend, model string, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(backend))
	h.Write([]byte{0})
	h.Write([]byte(model))
	for _, p := range parts {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *LLMCache) dir() string { return filepath.Join(c.Dir, "llm") }

func (c *LLMCache) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	perm := os.FileMode(0o755)
	if c.StrictPerms {
		perm = 0o700
	}
	return os.MkdirAll(c.dir(), perm)
}

func (c *LLMCache) pathFor(key string) string {
	return filepath.Join(c.dir(), key+".txt")
}

// Get returns the cached completion for key. A miss is not an error.
func (c *LLMCache) Get(_ context.Context, key string) (string, bool, error) {
	if err := c.ensureDir(); err != nil {
		return "", false, err
	}
	p := c.pathFor(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return "", false, nil
	}
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return string(b), true, nil
}

// Save stores a completion. Empty completions are not cached.
func (c *LLMCache) Save(_ context.Context, key string, completion string) error {
	if completion == "" {
		return nil
	}
	if err := c.ensureDir(); err != nil {
		return err
	}
	mode := os.FileMode(0o644)
	if c.StrictPerms {
		mode = 0o600
	}
	return os.WriteFile(c.pathFor(key), []byte(completion), mode)
}
