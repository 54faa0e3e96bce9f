package convert

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snarfed/activitystreams-unofficial/convert/fetch"
)

const testConfig = `
[feed]
title = "Bob's notes"
url = "https://example.com/feed.xml"
home_url = "https://example.com/"
description = "short posts"

[atom]
reader = false

[fetch]
enabled = true
timeout_seconds = 3
cache_size = 10

[log]
trace = true
`

func TestReadConfig(t *testing.T) {
	c, err := ReadConfig([]byte(testConfig))
	require.NoError(t, err)

	assert.Equal(t, feedConfig{
		Title:       "Bob's notes",
		URL:         "https://example.com/feed.xml",
		HomeURL:     "https://example.com/",
		Description: "short posts",
	}, c.Feed)
	assert.False(t, c.Atom.Reader)
	assert.True(t, c.Fetch.Enabled)
	assert.Equal(t, 3, c.Fetch.TimeoutSeconds)
	assert.EqualValues(t, 10, c.Fetch.CacheSize)
	assert.EqualValues(t, 1<<20, c.Fetch.MaxBytes)
	assert.True(t, c.Log.Trace)
}

func TestReadConfig_Defaults(t *testing.T) {
	c, err := ReadConfig(nil)
	require.NoError(t, err)
	assert.True(t, c.Atom.Reader)
	assert.False(t, c.Fetch.Enabled)
	assert.Equal(t, fetch.DefaultConfig(), c.FetchConfig())
}

func TestReadConfig_Invalid(t *testing.T) {
	_, err := ReadConfig([]byte(`[feed`))
	assert.Error(t, err)

	_, err = ReadConfig([]byte("[feed]\nurl = \"/relative\"\n"))
	assert.ErrorContains(t, err, "feed.url must be an absolute url")

	_, err = ReadConfig([]byte("[fetch]\nmax_bytes = -1\n"))
	assert.Error(t, err)
}

func TestLoadConfig_FileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))
	t.Setenv("ACTIVITYSTREAMS_FEED__TITLE", "From the environment")
	t.Setenv("ACTIVITYSTREAMS_FETCH__TIMEOUT_SECONDS", "7")

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "From the environment", c.Feed.Title)
	assert.Equal(t, "https://example.com/", c.Feed.HomeURL)
	assert.Equal(t, 7*time.Second, c.FetchConfig().Timeout)
}

func TestLoadConfig_NoFile(t *testing.T) {
	c, err := LoadConfig("")
	require.NoError(t, err)
	assert.True(t, c.Atom.Reader)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestConfig_Options(t *testing.T) {
	c, err := ReadConfig([]byte(testConfig))
	require.NoError(t, err)

	assert.Equal(t, Options{
		Title:       "Bob's notes",
		Description: "short posts",
		FeedURL:     "https://example.com/feed.xml",
		HomeURL:     "https://example.com/",
		BaseURL:     "https://example.com/",
		FetchAuthor: true,
	}, c.Options())
}
