package convert

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/snarfed/activitystreams-unofficial/convert/fetch"
)

// EnvPrefix marks environment variables that override the config file.
// Sections are separated by a double underscore, eg
// ACTIVITYSTREAMS_FEED__HOME_URL sets feed.home_url.
const EnvPrefix = "ACTIVITYSTREAMS_"

type feedConfig struct {
	Title       string `koanf:"title"`
	URL         string `koanf:"url"`
	HomeURL     string `koanf:"home_url"`
	Description string `koanf:"description"`
}

type atomConfig struct {
	Reader bool `koanf:"reader"`
}

type fetchConfig struct {
	Enabled         bool   `koanf:"enabled"`
	TimeoutSeconds  int    `koanf:"timeout_seconds"`
	MaxBytes        int64  `koanf:"max_bytes"`
	CacheSize       int64  `koanf:"cache_size"`
	CacheTTLSeconds int    `koanf:"cache_ttl_seconds"`
	UserAgent       string `koanf:"user_agent"`
}

type logConfig struct {
	Trace bool `koanf:"trace"`
}

type Config struct {
	Feed  feedConfig  `koanf:"feed"`
	Atom  atomConfig  `koanf:"atom"`
	Fetch fetchConfig `koanf:"fetch"`
	Log   logConfig   `koanf:"log"`
}

func defaults() map[string]any {
	fc := fetch.DefaultConfig()
	return map[string]any{
		"atom.reader":             true,
		"fetch.enabled":           false,
		"fetch.timeout_seconds":   int(fc.Timeout / time.Second),
		"fetch.max_bytes":         fc.MaxBytes,
		"fetch.cache_size":        fc.CacheSize,
		"fetch.cache_ttl_seconds": int(fc.CacheTTL / time.Second),
		"fetch.user_agent":        fc.UserAgent,
		"log.trace":               false,
	}
}

// ReadConfig parses TOML config bytes over the defaults. Environment
// variables are not consulted.
func ReadConfig(b []byte) (Config, error) {
	m, err := toml.Parser().Unmarshal(b)
	if err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return Config{}, err
	}
	if err := k.Load(confmap.Provider(m, ""), nil); err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}
	return unmarshal(k)
}

// LoadConfig reads defaults, then the TOML file at path if one is given,
// then ACTIVITYSTREAMS_ environment variables.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return Config{}, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return Config{}, fmt.Errorf("loading config %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}
	return unmarshal(k)
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func unmarshal(k *koanf.Koanf) (Config, error) {
	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks urls are absolute and limits aren't negative.
func (c Config) Validate() error {
	for name, u := range map[string]string{"feed.url": c.Feed.URL, "feed.home_url": c.Feed.HomeURL} {
		if u == "" {
			continue
		}
		if parsed, err := url.Parse(u); err != nil || !parsed.IsAbs() {
			return fmt.Errorf("%s must be an absolute url, got %q", name, u)
		}
	}
	if c.Fetch.TimeoutSeconds < 0 || c.Fetch.MaxBytes < 0 || c.Fetch.CacheSize < 0 || c.Fetch.CacheTTLSeconds < 0 {
		return fmt.Errorf("fetch limits can't be negative")
	}
	return nil
}

// Options converts the config to converter options. Fetch is left for
// the caller to supply.
func (c Config) Options() Options {
	return Options{
		Title:       c.Feed.Title,
		Description: c.Feed.Description,
		FeedURL:     c.Feed.URL,
		HomeURL:     c.Feed.HomeURL,
		Reader:      c.Atom.Reader,
		FetchAuthor: c.Fetch.Enabled,
		BaseURL:     c.Feed.HomeURL,
	}
}

// FetchConfig is the fetch client configuration.
func (c Config) FetchConfig() fetch.Config {
	return fetch.Config{
		Timeout:   time.Duration(c.Fetch.TimeoutSeconds) * time.Second,
		MaxBytes:  c.Fetch.MaxBytes,
		CacheSize: c.Fetch.CacheSize,
		CacheTTL:  time.Duration(c.Fetch.CacheTTLSeconds) * time.Second,
		UserAgent: c.Fetch.UserAgent,
	}
}
