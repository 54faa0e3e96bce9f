// Package fetch is the HTTP implementation of the converters' Fetcher
// collaborator, used to follow author links. Responses are cached and
// revalidated with conditional requests.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/karlseguin/ccache/v3"
	"github.com/snarfed/activitystreams-unofficial/convert/telemetry"
)

// ErrTooLarge is returned for responses over Config.MaxBytes.
var ErrTooLarge = errors.New("response too large")

type Config struct {
	Timeout   time.Duration
	MaxBytes  int64
	CacheSize int64 // entries; 0 disables the cache
	CacheTTL  time.Duration
	UserAgent string
}

func DefaultConfig() Config {
	return Config{
		Timeout:   10 * time.Second,
		MaxBytes:  1 << 20,
		CacheSize: 500,
		CacheTTL:  time.Hour,
		UserAgent: "activitystreams-unofficial (+https://github.com/snarfed/activitystreams-unofficial)",
	}
}

// Client fetches documents over HTTP. It's safe for concurrent use.
type Client struct {
	HTTP   http.Client
	config Config
	cache  *ccache.Cache[*response]
}

type response struct {
	body         []byte
	etag         string
	lastModified string
}

func NewClient(config Config) *Client {
	c := &Client{
		HTTP:   http.Client{Timeout: config.Timeout},
		config: config,
	}
	if config.CacheSize > 0 {
		c.cache = ccache.New(ccache.Configure[*response]().MaxSize(config.CacheSize))
	}
	return c
}

// Close stops the cache's background worker.
func (c *Client) Close() {
	if c.cache != nil {
		c.cache.Stop()
	}
}

// Fetch has the as1.Fetcher signature.
func (c *Client) Fetch(url string) ([]byte, error) {
	return c.FetchContext(context.Background(), url)
}

// FetchContext gets url, from the cache when fresh. Stale entries are
// revalidated with If-None-Match and If-Modified-Since.
func (c *Client) FetchContext(ctx context.Context, url string) ([]byte, error) {
	var stale *response
	if c.cache != nil {
		if item := c.cache.Get(url); item != nil {
			if !item.Expired() {
				telemetry.Increment("fetch.cache_hits", 1)
				return item.Value().body, nil
			}
			stale = item.Value()
		}
	}

	r, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	if c.config.UserAgent != "" {
		r.Header.Set("User-Agent", c.config.UserAgent)
	}
	if stale != nil {
		if stale.etag != "" {
			r.Header.Set("If-None-Match", stale.etag)
		}
		if stale.lastModified != "" {
			r.Header.Set("If-Modified-Since", stale.lastModified)
		}
	}

	telemetry.Request(r, "fetching")
	telemetry.Increment("fetch.requests", 1)
	resp, err := c.HTTP.Do(r)
	if err != nil {
		telemetry.Error(err, "fetching %s", url)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && stale != nil {
		// Not modified, keep what we have
		c.store(url, stale)
		return stale.body, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: response code %d", url, resp.StatusCode)
	}

	body, err := c.read(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	c.store(url, &response{
		body:         body,
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
	})
	return body, nil
}

func (c *Client) read(body io.Reader) ([]byte, error) {
	if c.config.MaxBytes <= 0 {
		return io.ReadAll(body)
	}
	b, err := io.ReadAll(io.LimitReader(body, c.config.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > c.config.MaxBytes {
		return nil, ErrTooLarge
	}
	return b, nil
}

func (c *Client) store(url string, r *response) {
	if c.cache != nil {
		c.cache.Set(url, r, c.config.CacheTTL)
	}
}
