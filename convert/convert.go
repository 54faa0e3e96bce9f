// Package convert selects a converter by format and moves documents
// between formats through the canonical model.
package convert

import (
	"fmt"

	"github.com/snarfed/activitystreams-unofficial/convert/as1"
	"github.com/snarfed/activitystreams-unofficial/convert/as2"
	"github.com/snarfed/activitystreams-unofficial/convert/atom"
	"github.com/snarfed/activitystreams-unofficial/convert/jsonfeed"
	"github.com/snarfed/activitystreams-unofficial/convert/microformats2"
	"github.com/snarfed/activitystreams-unofficial/convert/rss"
)

// Options carries the settings of every converter. Each one reads the
// fields it understands and ignores the rest.
type Options struct {
	// Feed level metadata for atom, rss, jsonfeed and html.
	Title       string
	Description string
	FeedURL     string
	HomeURL     string
	Actor       *as1.Object

	// Reader renders atom locations into the content instead of GeoRSS.
	Reader bool

	// FetchAuthor follows author links when parsing html and rendering
	// atom. It needs Fetch; without one it's ignored.
	FetchAuthor bool
	Fetch       as1.Fetcher

	// BaseURL resolves relative links in html.
	BaseURL string
}

func DefaultOptions() Options {
	return Options{Reader: true}
}

// Render writes canonical objects as a document in format f.
func Render(objs []*as1.Object, f Format, opts Options) ([]byte, as1.Warnings, error) {
	switch f {
	case CanonicalJSON:
		b, err := renderJSON(objs)
		return b, nil, err
	case CanonicalXML, XML:
		b, err := renderXML(objs)
		return b, nil, err
	case JSONLD:
		b, err := as2.Render(objs)
		return b, nil, err
	case Atom:
		return atom.Render(objs, atom.Options{
			Reader:      opts.Reader,
			Title:       opts.Title,
			FeedURL:     opts.FeedURL,
			HomeURL:     opts.HomeURL,
			Actor:       opts.Actor,
			FetchAuthor: opts.FetchAuthor && opts.Fetch != nil,
			Fetch:       opts.Fetch,
		})
	case HTML:
		return microformats2.RenderHTML(objs, microformats2.HTMLOptions{Title: opts.Title})
	case JSONFeed:
		return jsonfeed.Render(objs, jsonfeed.Options{
			Title:       opts.Title,
			Description: opts.Description,
			HomeURL:     opts.HomeURL,
			FeedURL:     opts.FeedURL,
			Actor:       opts.Actor,
		})
	case MF2JSON:
		return microformats2.RenderJSON(objs)
	case RSS:
		return rss.Render(objs, rss.Options{
			Title:       opts.Title,
			Description: opts.Description,
			HomeURL:     opts.HomeURL,
			FeedURL:     opts.FeedURL,
			Actor:       opts.Actor,
		})
	}
	return nil, nil, fmt.Errorf("%w: rendering %q", ErrUnsupportedFormat, f)
}

// Parse reads a document in format f into canonical objects.
func Parse(b []byte, f Format, opts Options) ([]*as1.Object, as1.Warnings, error) {
	switch f {
	case CanonicalJSON:
		return parseJSON(b)
	case JSONLD:
		return as2.Parse(b)
	case Atom:
		return atom.Parse(b)
	case HTML:
		return microformats2.ParseHTML(b, microformats2.ParseOptions{
			BaseURL:     opts.BaseURL,
			FetchAuthor: opts.FetchAuthor && opts.Fetch != nil,
			Fetch:       opts.Fetch,
		})
	case JSONFeed:
		return jsonfeed.Parse(b)
	case MF2JSON:
		return microformats2.ParseJSON(b)
	case RSS:
		return rss.Parse(b)
	}
	return nil, nil, fmt.Errorf("%w: parsing %q", ErrUnsupportedFormat, f)
}

// Convert parses a document in one format and renders it in another.
// Warnings from both directions are returned together.
func Convert(b []byte, from, to Format, opts Options) ([]byte, as1.Warnings, error) {
	if !from.CanParse() {
		return nil, nil, fmt.Errorf("%w: parsing %q", ErrUnsupportedFormat, from)
	}
	objs, warnings, err := Parse(b, from, opts)
	if err != nil {
		return nil, warnings, fmt.Errorf("parsing %s: %w", from, err)
	}
	out, renderWarnings, err := Render(objs, to, opts)
	warnings = append(warnings, renderWarnings...)
	if err != nil {
		return nil, warnings, fmt.Errorf("rendering %s: %w", to, err)
	}
	return out, warnings, nil
}
