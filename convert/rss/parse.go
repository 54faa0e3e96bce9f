package rss

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/snarfed/activitystreams-unofficial/convert/as1"
	"github.com/snarfed/activitystreams-unofficial/convert/textutil"
)

// Parse reads an RSS feed into objects, best effort. gofeed's universal
// parser is used, so Atom and JSON feeds are accepted too, without their
// activity extensions.
func Parse(b []byte) ([]*as1.Object, as1.Warnings, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(b))
	if err != nil {
		return nil, nil, fmt.Errorf("reading rss: %w", err)
	}

	feedActor := personToObject(feed.Author)
	if feedActor == nil && feed.ITunesExt != nil && feed.ITunesExt.Author != "" {
		feedActor = &as1.Object{ObjectType: as1.PersonType, DisplayName: feed.ITunesExt.Author}
	}
	if feedActor != nil && feedActor.URL == "" {
		feedActor.URL = feed.Link
	}

	var warnings as1.Warnings
	objs := make([]*as1.Object, 0, len(feed.Items))
	for i, it := range feed.Items {
		if it == nil {
			continue
		}
		objs = append(objs, itemToObject(it, feedActor, as1.Index("items", i), &warnings))
	}
	return objs, warnings, nil
}

func itemToObject(it *gofeed.Item, feedActor *as1.Object, at string, warnings *as1.Warnings) *as1.Object {
	o := &as1.Object{
		ID:          firstOf(it.GUID, it.Link),
		URL:         it.Link,
		DisplayName: strings.TrimSpace(it.Title),
		Content:     strings.TrimSpace(firstOf(it.Content, it.Description)),
		Published:   formatTime(it.PublishedParsed, it.Published),
		Updated:     formatTime(it.UpdatedParsed, it.Updated),
	}
	if o.ID == "" {
		warnings.Add(as1.JoinPath(at, as1.IDProperty), "item has neither guid nor link")
	}
	if it.Content != "" && it.Description != "" && it.Content != it.Description {
		o.Summary = strings.TrimSpace(it.Description)
	}

	o.Author = personToObject(it.Author)
	if o.Author == nil && it.DublinCoreExt != nil && len(it.DublinCoreExt.Creator) > 0 {
		o.Author = &as1.Object{ObjectType: as1.PersonType, DisplayName: it.DublinCoreExt.Creator[0]}
	}
	if o.Author == nil && it.ITunesExt != nil && it.ITunesExt.Author != "" {
		o.Author = &as1.Object{ObjectType: as1.PersonType, DisplayName: it.ITunesExt.Author}
	}
	if o.Author == nil && feedActor != nil {
		o.Author = feedActor.Clone()
	}

	if it.Image != nil && it.Image.URL != "" {
		o.Image = &as1.MediaLink{URL: it.Image.URL}
	} else if it.ITunesExt != nil && it.ITunesExt.Image != "" {
		o.Image = &as1.MediaLink{URL: it.ITunesExt.Image}
	}
	for _, e := range it.Enclosures {
		if e == nil || e.URL == "" {
			continue
		}
		o.Attachments = append(o.Attachments, enclosureToObject(e))
	}
	for _, c := range it.Categories {
		if c = strings.TrimSpace(c); c != "" {
			o.Tags = append(o.Tags, &as1.Object{ObjectType: as1.HashtagType, DisplayName: c})
		}
	}

	text := textutil.HTMLToText(o.Content)
	o.ObjectType = as1.ArticleType
	if textutil.IsImpliedName(o.DisplayName, text) {
		o.ObjectType = as1.NoteType
		o.DisplayName = ""
	}
	return o
}

func personToObject(p *gofeed.Person) *as1.Object {
	if p == nil || (p.Name == "" && p.Email == "") {
		return nil
	}
	return &as1.Object{ObjectType: as1.PersonType, DisplayName: p.Name, Email: p.Email}
}

func enclosureToObject(e *gofeed.Enclosure) *as1.Object {
	media := &as1.MediaLink{URL: e.URL, MimeType: e.Type}
	switch strings.SplitN(e.Type, "/", 2)[0] {
	case "image":
		return &as1.Object{ObjectType: as1.ImageType, Image: media}
	case "audio":
		return &as1.Object{ObjectType: as1.AudioType, Stream: media}
	case "video":
		return &as1.Object{ObjectType: as1.VideoType, Stream: media}
	default:
		return &as1.Object{ObjectType: as1.FileType, URL: e.URL}
	}
}

// formatTime normalizes a parsed date to RFC 3339. Some feeds have mangled
// dates, and those are kept as written.
func formatTime(parsed *time.Time, raw string) string {
	if parsed != nil {
		return parsed.UTC().Format(as1.TimeFormat)
	}
	return strings.TrimSpace(raw)
}
