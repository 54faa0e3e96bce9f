package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snarfed/activitystreams-unofficial/convert"
	"github.com/snarfed/activitystreams-unofficial/convert/telemetry"
)

const note = `{"objectType": "note", "id": "tag:example.com,2024:1", "url": "https://example.com/1", "content": "hello world"}`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	telemetry.SetOutput(io.Discard)
	telemetry.ResetCounters()
	t.Cleanup(func() {
		telemetry.SetOutput(os.Stderr)
		telemetry.SetTrace(false)
	})

	var out bytes.Buffer
	err := newApp(strings.NewReader(stdin), &out).Run(append([]string{"activitystreams"}, args...))
	return out.String(), err
}

func TestConvert_StdinToAtom(t *testing.T) {
	out, err := run(t, note, "convert", "--from", "as1", "--to", "atom", "--title", "My notes")
	require.NoError(t, err)
	assert.Contains(t, out, `<feed xmlns="http://www.w3.org/2005/Atom"`)
	assert.Contains(t, out, "<title>My notes</title>")
	assert.Contains(t, out, "hello world")
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.Equal(t, 1, telemetry.GetCounter("converted"))
}

func TestConvert_DetectsInputFormat(t *testing.T) {
	const feed = `{"version": "https://jsonfeed.org/version/1", "title": "t", "items": [{"id": "1", "content_text": "from a json feed"}]}`
	out, err := run(t, feed, "convert", "-")
	require.NoError(t, err)

	objs, _, err := convert.Parse([]byte(out), convert.CanonicalJSON, convert.Options{})
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "from a json feed", objs[0].Content)
}

func TestConvert_ConfigFileAndWarnings(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(config, []byte("[feed]\nhome_url = \"https://example.com/\"\n"), 0o600))
	input := filepath.Join(dir, "post.json")
	require.NoError(t, os.WriteFile(input, []byte(`{
		"objectType": "note",
		"id": "https://example.com/2",
		"content": "two pictures",
		"attachments": [
			{"objectType": "image", "image": {"url": "https://example.com/a.jpg"}},
			{"objectType": "image", "image": {"url": "https://example.com/b.jpg"}}
		]
	}`), 0o600))

	out, err := run(t, "", "--config", config, "convert", "--to", "rss", input)
	require.NoError(t, err)
	assert.Contains(t, out, "<link>https://example.com/</link>")
	assert.Equal(t, 1, strings.Count(out, "<enclosure "))
	assert.Equal(t, 1, telemetry.GetCounter("warnings"))
}

func TestConvert_Errors(t *testing.T) {
	_, err := run(t, note, "convert", "--to", "yaml")
	assert.True(t, errors.Is(err, convert.ErrUnsupportedFormat))

	_, err = run(t, note, "convert", "--from", "xml")
	assert.True(t, errors.Is(err, convert.ErrUnsupportedFormat))

	_, err = run(t, "", "convert", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "reading")

	_, err = run(t, "[]", "convert", "--from", "canonical-json")
	assert.Error(t, err)
}

func TestFormats(t *testing.T) {
	out, err := run(t, "", "formats")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, len(convert.Formats))
	assert.Contains(t, out, "application/feed+json")
	for _, line := range lines {
		if strings.HasPrefix(line, "canonical-xml ") {
			assert.True(t, strings.HasSuffix(line, " write"))
		}
	}
}
