package convert

import (
	"errors"
	"fmt"
	"strings"

	"github.com/snarfed/activitystreams-unofficial/convert/as1"
	"github.com/snarfed/activitystreams-unofficial/convert/atom"
	"github.com/snarfed/activitystreams-unofficial/convert/jsonfeed"
	"github.com/snarfed/activitystreams-unofficial/convert/rss"
)

// Format identifies a document format.
type Format string

const (
	CanonicalJSON Format = "canonical-json"
	CanonicalXML  Format = "canonical-xml"
	JSONLD        Format = "external-json-ld"
	Atom          Format = "atom"
	HTML          Format = "html"
	JSONFeed      Format = "jsonfeed"
	MF2JSON       Format = "mf2-json"
	RSS           Format = "rss"
	XML           Format = "xml"
)

// ErrUnsupportedFormat is returned for unknown format names, and for
// formats that can't go in the requested direction.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Formats lists every format in a stable order.
var Formats = []Format{CanonicalJSON, CanonicalXML, JSONLD, Atom, HTML, JSONFeed, MF2JSON, RSS, XML}

// legacy names accepted by ParseFormat
var aliases = map[string]Format{
	"json":     CanonicalJSON,
	"as1":      CanonicalJSON,
	"as1-xml":  CanonicalXML,
	"as2":      JSONLD,
	"json-mf2": MF2JSON,
}

// ParseFormat looks up a format by name, case insensitively.
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range Formats {
		if string(f) == name {
			return f, nil
		}
	}
	if f, ok := aliases[name]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// ContentType is the media type of documents in this format.
func (f Format) ContentType() string {
	switch f {
	case CanonicalJSON:
		return as1.JSONContentType
	case CanonicalXML, XML:
		return "application/xml"
	case JSONLD:
		return "application/activity+json"
	case Atom:
		return atom.ContentType
	case HTML:
		return "text/html; charset=utf-8"
	case JSONFeed:
		return jsonfeed.ContentType
	case MF2JSON:
		return "application/mf2+json"
	case RSS:
		return rss.ContentType
	}
	return "application/octet-stream"
}

// CanParse reports whether documents in this format can be read.
func (f Format) CanParse() bool {
	return f != CanonicalXML && f != XML
}
