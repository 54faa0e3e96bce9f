// Package rss renders activities as an RSS 2.0 feed with the iTunes podcast
// extension, and reads RSS feeds back on a best effort basis.
package rss

import (
	"encoding/xml"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/snarfed/activitystreams-unofficial/convert/as1"
	"github.com/snarfed/activitystreams-unofficial/convert/tags"
	"github.com/snarfed/activitystreams-unofficial/convert/textutil"
)

const (
	// ContentType is the RSS media type
	ContentType = "application/rss+xml"

	AtomNamespace       = "http://www.w3.org/2005/Atom"
	DublinCoreNamespace = "http://purl.org/dc/elements/1.1/"
	ITunesNamespace     = "http://www.itunes.com/dtds/podcast-1.0.dtd"

	generatorName = "activitystreams-unofficial"
)

// Options configures rendering. The channel needs a link: HomeURL, or
// failing that the actor's url.
type Options struct {
	Title       string
	Description string
	HomeURL     string
	FeedURL     string
	// Actor is the feed's author, and the fallback author for items
	Actor *as1.Object
}

type document struct {
	XMLName     xml.Name `xml:"rss"`
	Version     string   `xml:"version,attr"`
	XmlnsAtom   string   `xml:"xmlns:atom,attr"`
	XmlnsDC     string   `xml:"xmlns:dc,attr"`
	XmlnsITunes string   `xml:"xmlns:itunes,attr"`
	Channel     channel  `xml:"channel"`
}

type channel struct {
	Title          string           `xml:"title"`
	Link           string           `xml:"link"`
	Description    string           `xml:"description"`
	AtomLink       *atomLink        `xml:"atom:link,omitempty"`
	Generator      string           `xml:"generator"`
	LastBuildDate  string           `xml:"lastBuildDate,omitempty"`
	Image          *image           `xml:"image,omitempty"`
	ITunesAuthor   string           `xml:"itunes:author,omitempty"`
	ITunesImage    *itunesImage     `xml:"itunes:image,omitempty"`
	ITunesCategory []itunesCategory `xml:"itunes:category"`
	Items          []item           `xml:"item"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
	Href string `xml:"href,attr"`
}

type image struct {
	URL   string `xml:"url"`
	Title string `xml:"title"`
	Link  string `xml:"link"`
}

type itunesImage struct {
	Href string `xml:"href,attr"`
}

type itunesCategory struct {
	Text string `xml:"text,attr"`
}

type item struct {
	Title       string       `xml:"title,omitempty"`
	Link        string       `xml:"link,omitempty"`
	Description cdata        `xml:"description"`
	Author      string       `xml:"author,omitempty"`
	Creator     string       `xml:"dc:creator,omitempty"`
	GUID        *guid        `xml:"guid,omitempty"`
	PubDate     string       `xml:"pubDate,omitempty"`
	Categories  []string     `xml:"category"`
	Enclosure   *enclosure   `xml:"enclosure,omitempty"`
	ITunesImage *itunesImage `xml:"itunes:image,omitempty"`
}

type cdata struct {
	Value string `xml:",cdata"`
}

type guid struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type enclosure struct {
	URL    string `xml:"url,attr"`
	Length string `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

// Render writes activities as an RSS 2.0 feed. Items keep at most one
// enclosure; extra attachments are dropped with a warning.
func Render(objs []*as1.Object, opts Options) ([]byte, as1.Warnings, error) {
	link := opts.HomeURL
	if link == "" && opts.Actor != nil {
		link = opts.Actor.URL
	}
	if link == "" {
		return nil, nil, as1.NewShapeError("link", "rss channel needs a home url or an actor url")
	}

	ch := channel{
		Title:       opts.Title,
		Link:        link,
		Description: opts.Description,
		Generator:   generatorName,
	}
	if ch.Title == "" {
		ch.Title = as1.ActorName(opts.Actor)
	}
	if ch.Description == "" && opts.Actor != nil {
		ch.Description = textutil.HTMLToText(opts.Actor.Summary)
	}
	if ch.Description == "" {
		ch.Description = ch.Title
	}
	if opts.FeedURL != "" {
		ch.AtomLink = &atomLink{Rel: "self", Type: ContentType, Href: opts.FeedURL}
	}
	if opts.Actor != nil {
		ch.ITunesAuthor = as1.ActorName(opts.Actor)
		if u := as1.ImageURL(opts.Actor); u != "" {
			ch.Image = &image{URL: u, Title: ch.Title, Link: link}
			ch.ITunesImage = &itunesImage{Href: u}
		}
	}

	var warnings as1.Warnings
	var latest time.Time
	seenCategory := map[string]bool{}
	for i, o := range objs {
		at := as1.Index("items", i)
		if o == nil {
			warnings.Add(at, "missing activity")
			continue
		}
		it, published := newItem(o, opts.Actor, at, &warnings)
		if published.After(latest) {
			latest = published
		}
		for _, c := range it.Categories {
			if !seenCategory[c] {
				seenCategory[c] = true
				ch.ITunesCategory = append(ch.ITunesCategory, itunesCategory{Text: c})
			}
		}
		ch.Items = append(ch.Items, it)
	}
	if !latest.IsZero() {
		ch.LastBuildDate = latest.Format(time.RFC1123Z)
	}

	b, err := xml.MarshalIndent(document{
		Version:     "2.0",
		XmlnsAtom:   AtomNamespace,
		XmlnsDC:     DublinCoreNamespace,
		XmlnsITunes: ITunesNamespace,
		Channel:     ch,
	}, "", "  ")
	if err != nil {
		return nil, warnings, fmt.Errorf("rendering rss: %w", err)
	}
	return append([]byte(xml.Header), b...), warnings, nil
}

func newItem(o, feedActor *as1.Object, at string, warnings *as1.Warnings) (item, time.Time) {
	obj := as1.Primary(o)
	it := item{Link: firstOf(obj.URL, o.URL)}

	text := obj.Content
	if !obj.IsText() {
		text = textutil.HTMLToText(text)
	}
	if name := textutil.HTMLToText(obj.DisplayName); name != "" {
		it.Title = name
	} else {
		it.Title = textutil.ImpliedName(text)
	}

	inline, separate, w := tags.Split(obj.Content, obj.Tags)
	warnings.Extend(at, w)
	description := tags.Linkify(obj.Content, inline, obj.IsText(), tags.Link)
	if description == "" {
		description = obj.Summary
	}
	it.Description = cdata{Value: description}
	for _, t := range separate {
		if t.ObjectType == as1.MentionType || as1.IsActorType(t.ObjectType) {
			continue
		}
		if c := strings.TrimPrefix(t.DisplayName, "#"); c != "" {
			it.Categories = append(it.Categories, c)
		}
	}

	actor := as1.ActorOf(o)
	if actor == nil {
		actor = feedActor
	}
	name := as1.ActorName(actor)
	if actor != nil && actor.Email != "" {
		it.Author = fmt.Sprintf("%s (%s)", actor.Email, name)
	} else {
		it.Creator = name
	}

	if id := firstOf(obj.ID, o.ID, it.Link); id != "" {
		it.GUID = &guid{Value: id, IsPermaLink: id == it.Link && strings.HasPrefix(id, "http")}
	}

	var published time.Time
	if date := firstOf(obj.Published, o.Published, obj.Updated, o.Updated); date != "" {
		t, err := time.Parse(time.RFC3339, date)
		if err != nil {
			warnings.Add(as1.JoinPath(at, as1.PublishedProperty), "unparseable date %q", date)
		} else {
			published = t
			it.PubDate = t.Format(time.RFC1123Z)
		}
	}

	it.Enclosure = enclosureOf(obj)
	if len(obj.Attachments) > 1 {
		warnings.Add(as1.JoinPath(at, as1.AttachmentsProperty), "rss allows one enclosure, dropped %d more attachments", len(obj.Attachments)-1)
	}
	if images := as1.ImageURLs(obj, as1.ImageURL(actor)); len(images) > 0 {
		it.ITunesImage = &itunesImage{Href: images[0]}
	}
	return it, published
}

// enclosureOf builds the enclosure from the first attachment, or from the
// object's own stream when it has no attachments.
func enclosureOf(obj *as1.Object) *enclosure {
	if len(obj.Attachments) > 0 {
		att := obj.Attachments[0]
		if att == nil {
			return nil
		}
		if u := as1.MediaURL(att); u != "" {
			e := newEnclosure(u, att)
			return &e
		}
		return nil
	}
	if obj.Stream != nil && obj.Stream.URL != "" {
		e := newEnclosure(obj.Stream.URL, obj)
		return &e
	}
	return nil
}

func newEnclosure(u string, att *as1.Object) enclosure {
	e := enclosure{URL: u, Length: "0"}
	for _, m := range []*as1.MediaLink{att.Stream, att.Image} {
		if m != nil && m.URL == u && m.MimeType != "" {
			e.Type = m.MimeType
		}
	}
	if e.Type == "" {
		e.Type = mime.TypeByExtension(path.Ext(u))
	}
	if e.Type == "" {
		switch att.ObjectType {
		case as1.AudioType:
			e.Type = "audio/mpeg"
		case as1.VideoType:
			e.Type = "video/mp4"
		case as1.ImageType:
			e.Type = "image/jpeg"
		default:
			e.Type = "application/octet-stream"
		}
	}
	return e
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
