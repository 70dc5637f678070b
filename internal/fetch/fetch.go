package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"

	"github.com/hyperifyio/callfinder/internal/cache"
)

// Defaults matching what public funding portals expect from a browser.
const (
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	DefaultAcceptLanguage = "fr-FR,fr;q=0.9,en-US;q=0.8,en;q=0.7"
	DefaultTimeout        = 15 * time.Second
)

// maxBodyBytes bounds how much of a page is read into memory.
const maxBodyBytes = 8 << 20

// Page is a fetched document. Body is already converted to UTF-8.
type Page struct {
	URL         string
	Status      int
	ContentType string
	Body        []byte
	FromCache   bool
}

// OK reports whether the server answered with a 2xx status.
func (p *Page) OK() bool { return p != nil && p.Status >= 200 && p.Status <= 299 }

// Client wraps http.Client with browser-like headers, a per-request timeout
// and an optional on-disk cache. Failed requests are not retried.
type Client struct {
	HTTPClient     *http.Client
	UserAgent      string
	AcceptLanguage string
	// PerRequestTimeout bounds each request. Zero means DefaultTimeout.
	PerRequestTimeout time.Duration
	// Optional on-disk cache for page bodies and validators.
	Cache *cache.HTTPCache
	// If true, skip conditional requests but still save the fresh response.
	BypassCache bool
	// RedirectMaxHops caps redirect following to avoid loops. Zero means default (5).
	RedirectMaxHops int
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{CheckRedirect: c.checkRedirectFunc()}
}

func (c *Client) timeout() time.Duration {
	if c.PerRequestTimeout > 0 {
		return c.PerRequestTimeout
	}
	return DefaultTimeout
}

// Get fetches rawURL. Any HTTP status is returned as a Page; only transport
// failures, unsupported schemes and unreadable bodies are errors. Non-2xx
// statuses are logged as warnings and the body is still handed back.
func (c *Client) Get(ctx context.Context, rawURL string) (*Page, error) {
	var etag, lastMod string
	if c.Cache != nil && !c.BypassCache {
		if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && meta != nil {
			etag = meta.ETag
			lastMod = meta.LastModified
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if !isHTTPScheme(req.URL) {
		return nil, fmt.Errorf("unsupported URL scheme: %q", req.URL.String())
	}
	req.Header.Set("User-Agent", firstNonEmpty(c.UserAgent, DefaultUserAgent))
	req.Header.Set("Accept-Language", firstNonEmpty(c.AcceptLanguage, DefaultAcceptLanguage))
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	tctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()
	req = req.WithContext(tctx)

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode == http.StatusNotModified && c.Cache != nil {
		if cached, err := c.Cache.LoadBody(ctx, rawURL); err == nil {
			if meta, _ := c.Cache.LoadMeta(ctx, rawURL); meta != nil && meta.ContentType != "" {
				contentType = meta.ContentType
			}
			return &Page{URL: rawURL, Status: http.StatusOK, ContentType: contentType, Body: cached, FromCache: true}, nil
		}
	}

	body, err := readUTF8(resp.Body, contentType)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	page := &Page{URL: rawURL, Status: resp.StatusCode, ContentType: contentType, Body: body}
	if !page.OK() {
		log.Warn().Str("url", rawURL).Int("status", resp.StatusCode).Msg("non-2xx response; parsing body anyway")
		return page, nil
	}
	if c.Cache != nil {
		entry := cache.HTTPEntry{
			URL:          rawURL,
			Status:       resp.StatusCode,
			ContentType:  contentType,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := c.Cache.Save(ctx, entry, body); err != nil {
			log.Debug().Err(err).Str("url", rawURL).Msg("http cache save failed")
		}
	}
	return page, nil
}

// readUTF8 converts the body to UTF-8 using the declared or sniffed charset.
func readUTF8(r io.Reader, contentType string) ([]byte, error) {
	r = io.LimitReader(r, maxBodyBytes)
	cr, err := charset.NewReader(r, contentType)
	if errors.Is(err, io.EOF) {
		return []byte{}, nil
	}
	if err != nil {
		return nil, err
	}
	return io.ReadAll(cr)
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func firstNonEmpty(v, def string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return def
}
