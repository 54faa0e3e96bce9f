package convert

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := map[string]Format{
		`<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"><title>t</title></feed>`: Atom,
		`<?xml version="1.0"?><rss version="2.0"><channel><title>t</title></channel></rss>`:      RSS,
		`<!DOCTYPE html><html><body><div class="h-entry">hi</div></body></html>`:                 HTML,
		`{"version": "https://jsonfeed.org/version/1", "title": "t", "items": []}`:               JSONFeed,
		`{"@context": "https://www.w3.org/ns/activitystreams", "type": "Note"}`:                  JSONLD,
		`{"items": [{"type": ["h-entry"], "properties": {}}]}`:                                   MF2JSON,
		`{"type": ["h-entry"], "properties": {}}`:                                                MF2JSON,
		`  {"objectType": "note", "content": "hi"}`:                                              CanonicalJSON,
		`{"items": [{"objectType": "note"}]}`:                                                    CanonicalJSON,
	}
	for doc, want := range tests {
		got, err := Detect([]byte(doc))
		require.NoError(t, err, doc)
		assert.Equal(t, want, got, doc)
	}
}

func TestDetect_Unrecognized(t *testing.T) {
	for _, doc := range []string{"", "   ", "plain text", "{not json"} {
		_, err := Detect([]byte(doc))
		assert.True(t, errors.Is(err, ErrUnsupportedFormat), doc)
	}
}
