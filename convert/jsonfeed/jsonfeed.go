// Package jsonfeed converts between canonical activities and JSON Feed
// version 1 documents.
package jsonfeed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/snarfed/activitystreams-unofficial/convert/as1"
	"github.com/snarfed/activitystreams-unofficial/convert/tags"
	"github.com/snarfed/activitystreams-unofficial/convert/textutil"
)

const (
	// ContentType is the JSON Feed media type
	ContentType = "application/feed+json"
	// Version identifies the JSON Feed format version we write
	Version = "https://jsonfeed.org/version/1"
)

// Options configures rendering.
type Options struct {
	Title       string
	Description string
	HomeURL     string
	FeedURL     string
	// Actor is the feed's author
	Actor *as1.Object
}

type Feed struct {
	Version     string  `json:"version"`
	Title       string  `json:"title"`
	HomePageURL string  `json:"home_page_url,omitempty"`
	FeedURL     string  `json:"feed_url,omitempty"`
	Description string  `json:"description,omitempty"`
	Icon        string  `json:"icon,omitempty"`
	Author      *Author `json:"author,omitempty"`
	Items       []Item  `json:"items"`
}

type Author struct {
	Name   string `json:"name,omitempty"`
	URL    string `json:"url,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

type Item struct {
	ID            string       `json:"id"`
	URL           string       `json:"url,omitempty"`
	Title         string       `json:"title,omitempty"`
	ContentHTML   string       `json:"content_html,omitempty"`
	ContentText   string       `json:"content_text,omitempty"`
	Summary       string       `json:"summary,omitempty"`
	Image         string       `json:"image,omitempty"`
	DatePublished string       `json:"date_published,omitempty"`
	DateModified  string       `json:"date_modified,omitempty"`
	Author        *Author      `json:"author,omitempty"`
	Tags          []string     `json:"tags,omitempty"`
	Attachments   []Attachment `json:"attachments,omitempty"`
}

type Attachment struct {
	URL               string `json:"url"`
	MimeType          string `json:"mime_type"`
	Title             string `json:"title,omitempty"`
	DurationInSeconds int    `json:"duration_in_seconds,omitempty"`
}

// Render writes activities as a JSON Feed. Every item needs an id or a url.
func Render(objs []*as1.Object, opts Options) ([]byte, as1.Warnings, error) {
	f := Feed{
		Version:     Version,
		Title:       opts.Title,
		HomePageURL: opts.HomeURL,
		FeedURL:     opts.FeedURL,
		Description: opts.Description,
		Author:      newAuthor(opts.Actor),
		Items:       make([]Item, 0, len(objs)),
	}
	if f.Title == "" && opts.Actor != nil {
		f.Title = as1.ActorName(opts.Actor)
	}
	if opts.Actor != nil {
		f.Icon = as1.ImageURL(opts.Actor)
		if f.HomePageURL == "" {
			f.HomePageURL = opts.Actor.URL
		}
	}

	var warnings as1.Warnings
	for i, o := range objs {
		at := as1.Index("items", i)
		if o == nil {
			warnings.Add(at, "missing activity")
			continue
		}
		it, err := newItem(o, at, &warnings)
		if err != nil {
			return nil, warnings, err
		}
		f.Items = append(f.Items, it)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return nil, warnings, fmt.Errorf("rendering json feed: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), warnings, nil
}

func newItem(o *as1.Object, at string, warnings *as1.Warnings) (Item, error) {
	obj := as1.Primary(o)
	it := Item{
		ID:            firstOf(obj.ID, o.ID, obj.URL, o.URL),
		URL:           firstOf(obj.URL, o.URL),
		Summary:       obj.Summary,
		DatePublished: firstOf(obj.Published, o.Published),
		DateModified:  firstOf(obj.Updated, o.Updated),
	}
	if it.ID == "" {
		return Item{}, as1.NewShapeError(as1.JoinPath(at, as1.IDProperty), "item needs an id or a url")
	}

	inline, separate, w := tags.Split(obj.Content, obj.Tags)
	warnings.Extend(at, w)
	text := obj.Content
	if obj.IsText() && len(inline) == 0 {
		it.ContentText = obj.Content
	} else {
		it.ContentHTML = tags.Linkify(obj.Content, inline, obj.IsText(), tags.Link)
		text = textutil.HTMLToText(obj.Content)
	}
	if name := textutil.HTMLToText(obj.DisplayName); !textutil.IsImpliedName(name, text) {
		it.Title = name
	}
	for _, t := range separate {
		if t.ObjectType == as1.MentionType || as1.IsActorType(t.ObjectType) {
			continue
		}
		if name := strings.TrimPrefix(t.DisplayName, "#"); name != "" {
			it.Tags = append(it.Tags, name)
		}
	}

	actor := as1.ActorOf(o)
	it.Author = newAuthor(actor)
	if images := as1.ImageURLs(obj, as1.ImageURL(actor)); len(images) > 0 {
		it.Image = images[0]
	}
	for _, att := range obj.Attachments {
		if att == nil {
			continue
		}
		if u := as1.MediaURL(att); u != "" {
			it.Attachments = append(it.Attachments, newAttachment(u, att))
		}
	}
	return it, nil
}

func newAuthor(actor *as1.Object) *Author {
	if actor == nil || actor.IsEmpty() {
		return nil
	}
	a := &Author{URL: actor.URL, Avatar: as1.ImageURL(actor)}
	if actor.DisplayName != "" || actor.Username != "" {
		a.Name = as1.ActorName(actor)
	}
	if *a == (Author{}) {
		return nil
	}
	return a
}

func newAttachment(u string, att *as1.Object) Attachment {
	a := Attachment{URL: u, Title: att.DisplayName}
	for _, m := range []*as1.MediaLink{att.Stream, att.Image} {
		if m != nil && m.URL == u {
			a.MimeType = m.MimeType
			a.DurationInSeconds = m.Duration
		}
	}
	if a.MimeType == "" {
		a.MimeType = mime.TypeByExtension(path.Ext(u))
	}
	if a.MimeType == "" {
		a.MimeType = "application/octet-stream"
		if att.ObjectType == as1.ImageType || att.ObjectType == as1.AudioType || att.ObjectType == as1.VideoType {
			a.MimeType = att.ObjectType + "/*"
		}
	}
	return a
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
