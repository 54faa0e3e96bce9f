package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

// Detect guesses the format of a document from its content. Feeds are
// recognized by gofeed; other JSON by its distinctive keys.
func Detect(b []byte) (Format, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 {
		return "", fmt.Errorf("%w: empty document", ErrUnsupportedFormat)
	}

	if trimmed[0] == '{' {
		var m map[string]any
		if err := json.Unmarshal(trimmed, &m); err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		return detectJSON(m), nil
	}

	switch gofeed.DetectFeedType(bytes.NewReader(trimmed)) {
	case gofeed.FeedTypeAtom:
		return Atom, nil
	case gofeed.FeedTypeRSS:
		return RSS, nil
	}
	if trimmed[0] == '<' {
		return HTML, nil
	}
	return "", fmt.Errorf("%w: unrecognized document", ErrUnsupportedFormat)
}

func detectJSON(m map[string]any) Format {
	if v, ok := m["version"].(string); ok && strings.HasPrefix(v, "https://jsonfeed.org/") {
		return JSONFeed
	}
	if _, ok := m["@context"]; ok {
		return JSONLD
	}
	if items, ok := m["items"].([]any); ok && len(items) > 0 {
		if first, ok := items[0].(map[string]any); ok {
			if _, ok := first["type"].([]any); ok {
				return MF2JSON
			}
		}
	}
	if _, ok := m["type"].([]any); ok {
		return MF2JSON
	}
	return CanonicalJSON
}
