package microformats2

import (
	"bytes"
	"fmt"

	"github.com/snarfed/activitystreams-unofficial/convert/as1"
)

// ParseOptions configures ParseHTML.
type ParseOptions struct {
	// BaseURL resolves relative links, and is the page's own url.
	BaseURL string
	// FetchAuthor follows rel=author and url-only authors to their h-card.
	// It needs Fetch.
	FetchAuthor bool
	Fetch       as1.Fetcher
}

// ParseHTML reads the h-entry, h-event and h-cite root items of an HTML
// document. Other root items are skipped with a warning, so a page of only
// h-cards gives an empty result.
func ParseHTML(b []byte, opts ParseOptions) ([]*as1.Object, as1.Warnings, error) {
	doc, err := Parse(bytes.NewReader(b), opts.BaseURL)
	if err != nil {
		return nil, nil, err
	}
	objs, warnings := documentToObjects(doc)
	if opts.FetchAuthor && opts.Fetch != nil {
		for i, o := range objs {
			discoverAuthor(o, doc.Rels["author"], opts, as1.Index("items", i), &warnings)
		}
	}
	return objs, warnings, nil
}

// discoverAuthor replaces a missing or url-only author with the h-card found
// at its url. Failures leave the author as is.
func discoverAuthor(o *as1.Object, relAuthors []string, opts ParseOptions, path string, warnings *as1.Warnings) {
	author := o.Author
	if o.Verb != "" {
		author = o.Actor
	}
	if author == nil && len(relAuthors) > 0 {
		author = &as1.Object{URL: relAuthors[0]}
	}
	if author == nil || author.URL == "" || author.DisplayName != "" {
		return
	}

	path = as1.JoinPath(path, "author")
	found, err := FetchCard(opts.Fetch, author.URL)
	if err != nil {
		warnings.Add(path, "%s", err)
	} else {
		author = found
	}
	setAuthor(o, author)
}

// FetchCard fetches a page and returns its representative h-card as an
// actor. The actor's url defaults to the page's.
func FetchCard(fetch as1.Fetcher, url string) (*as1.Object, error) {
	body, err := fetch(url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	doc, err := Parse(bytes.NewReader(body), url)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	card := representativeCard(doc, url)
	if card == nil {
		return nil, fmt.Errorf("no h-card at %s", url)
	}
	actor := cardToObject(card)
	if actor.URL == "" {
		actor.URL = url
	}
	return actor, nil
}

func setAuthor(o *as1.Object, author *as1.Object) {
	if o.Verb != "" {
		o.Actor = author
	} else {
		o.Author = author
	}
}

// representativeCard picks the h-card whose url is the page's own url,
// falling back to the first top level h-card.
func representativeCard(doc *Document, pageURL string) *Item {
	var first *Item
	var walk func(items []*Item) *Item
	walk = func(items []*Item) *Item {
		for _, it := range items {
			if it.HasType("h-card") {
				if first == nil {
					first = it
				}
				if contains(it.Strings("url"), pageURL) || contains(it.Strings("uid"), pageURL) {
					return it
				}
			}
			if found := walk(it.Children); found != nil {
				return found
			}
		}
		return nil
	}
	if card := walk(doc.Items); card != nil {
		return card
	}
	return first
}
