package atom

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed/atom"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/snarfed/activitystreams-unofficial/convert/as1"
	"github.com/snarfed/activitystreams-unofficial/convert/textutil"
)

// Parse reads an Atom feed, or a single entry, into activities. It's best
// effort: inline tag offsets aren't recovered.
func Parse(b []byte) ([]*as1.Object, as1.Warnings, error) {
	root, offset, err := rootElement(b)
	if err != nil {
		return nil, nil, fmt.Errorf("reading atom: %w", err)
	}
	switch root.Name.Local {
	case "feed":
	case "entry":
		wrapped := []byte(`<feed xmlns="` + Namespace + `">`)
		wrapped = append(wrapped, b[offset:]...)
		b = append(wrapped, "</feed>"...)
	default:
		return nil, nil, as1.NewShapeError("$", "expected an atom feed or entry, got <%s>", root.Name.Local)
	}

	f, err := (&atom.Parser{}).Parse(bytes.NewReader(b))
	if err != nil {
		return nil, nil, fmt.Errorf("reading atom: %w", err)
	}
	var feedAuthor *atom.Person
	if len(f.Authors) > 0 {
		feedAuthor = f.Authors[0]
	}

	var warnings as1.Warnings
	objs := make([]*as1.Object, 0, len(f.Entries))
	for i, e := range f.Entries {
		objs = append(objs, entryToObject(e, feedAuthor, as1.Index("items", i), &warnings))
	}
	return objs, warnings, nil
}

// rootElement finds the document's first element and its byte offset.
func rootElement(b []byte) (xml.StartElement, int64, error) {
	d := xml.NewDecoder(bytes.NewReader(b))
	for {
		offset := d.InputOffset()
		tok, err := d.RawToken()
		if err != nil {
			return xml.StartElement{}, 0, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start, offset, nil
		}
	}
}

func entryToObject(e *atom.Entry, feedAuthor *atom.Person, at string, warnings *as1.Warnings) *as1.Object {
	o := &as1.Object{
		ID:          e.ID,
		DisplayName: strings.TrimSpace(e.Title),
		Summary:     strings.TrimSpace(e.Summary),
		Published:   e.Published,
		Updated:     e.Updated,
	}
	if c := e.Content; c != nil {
		o.Content = strings.TrimSpace(c.Value)
		if c.Type == "" || c.Type == "text" {
			o.ContentType = as1.ContentText
		}
	}

	author := feedAuthor
	if len(e.Authors) > 0 {
		author = e.Authors[0]
	}
	actor := personToObject(author)

	for _, l := range e.Links {
		switch l.Rel {
		case "", "alternate":
			if o.URL == "" {
				o.URL = l.Href
			}
		case "enclosure":
			o.Attachments = append(o.Attachments, enclosureToObject(l.Href, l.Type))
		case "mentioned":
			o.Tags = append(o.Tags, &as1.Object{ObjectType: as1.MentionType, URL: l.Href})
		}
	}
	for _, c := range e.Categories {
		if term := firstOf(c.Term, c.Label); term != "" {
			o.Tags = append(o.Tags, &as1.Object{ObjectType: as1.HashtagType, DisplayName: term})
		}
	}
	for _, x := range extensions(e.Extensions, "thr", ThreadNamespace, "in-reply-to") {
		ref, href := x.Attrs["ref"], x.Attrs["href"]
		if ref == "" && href == "" {
			warnings.Add(as1.JoinPath(at, "inReplyTo"), "thr:in-reply-to without ref or href")
			continue
		}
		o.InReplyTo = append(o.InReplyTo, &as1.Object{ID: ref, URL: href})
	}
	o.Location = location(e.Extensions, at, warnings)

	objectType := unqualify(firstValue(e.Extensions, "activity", ActivityNamespace, "object-type"))
	verb := unqualify(firstValue(e.Extensions, "activity", ActivityNamespace, "verb"))
	if verb == "" || verb == as1.PostVerb {
		o.ObjectType = objectType
		if o.ObjectType == "" {
			o.ObjectType = as1.NoteType
			if !isImplied(o) {
				o.ObjectType = as1.ArticleType
			}
		}
		if o.ObjectType != as1.ArticleType && isImplied(o) {
			o.DisplayName = ""
		}
		o.Author = actor
		return o
	}

	o.Verb = verb
	o.Actor = actor
	if objectType == as1.ActivityType {
		o.ObjectType = objectType
	}
	if xs := extensions(e.Extensions, "activity", ActivityNamespace, "object"); len(xs) > 0 {
		o.Object = extToObject(xs[0])
	} else if len(o.InReplyTo) > 0 && o.Verb != as1.ShareVerb {
		// likes and rsvps often only point at their object with thr:in-reply-to
		o.Object = o.InReplyTo[0]
	}
	if isImplied(o) {
		o.DisplayName = ""
	}
	return o
}

func isImplied(o *as1.Object) bool {
	text := o.Content
	if !o.IsText() {
		text = textutil.HTMLToText(text)
	}
	return o.DisplayName == defaultTitle || textutil.IsImpliedName(o.DisplayName, text)
}

func personToObject(p *atom.Person) *as1.Object {
	if p == nil || (p.Name == "" && p.URI == "" && p.Email == "") {
		return nil
	}
	return &as1.Object{
		ObjectType:  as1.PersonType,
		DisplayName: strings.TrimSpace(p.Name),
		URL:         strings.TrimSpace(p.URI),
		Email:       strings.TrimSpace(p.Email),
	}
}

func enclosureToObject(href, mimeType string) *as1.Object {
	media := &as1.MediaLink{URL: href, MimeType: mimeType}
	switch {
	case strings.HasPrefix(mimeType, "audio/"):
		return &as1.Object{ObjectType: as1.AudioType, Stream: media}
	case strings.HasPrefix(mimeType, "image/"):
		return &as1.Object{ObjectType: as1.ImageType, Image: media}
	default:
		return &as1.Object{ObjectType: as1.VideoType, Stream: media}
	}
}

// location reads georss:point and georss:featureName.
func location(exts ext.Extensions, at string, warnings *as1.Warnings) *as1.Object {
	point := firstValue(exts, "georss", GeoRSSNamespace, "point")
	name := firstValue(exts, "georss", GeoRSSNamespace, "featureName")
	if point == "" && name == "" {
		return nil
	}
	loc := &as1.Object{ObjectType: as1.PlaceType, DisplayName: name}
	if point != "" {
		fields := strings.Fields(point)
		var lat, long float64
		var err error
		if len(fields) != 2 {
			err = fmt.Errorf("want 2 coordinates")
		} else if lat, err = strconv.ParseFloat(fields[0], 64); err == nil {
			long, err = strconv.ParseFloat(fields[1], 64)
		}
		if err != nil {
			warnings.Add(as1.JoinPath(at, "location"), "bad georss:point %q: %s", point, err)
		} else {
			loc.Latitude, loc.Longitude = as1.Float(lat), as1.Float(long)
		}
	}
	if loc.DisplayName == "" && loc.Latitude == nil {
		return nil
	}
	return loc
}

// extensions finds extension elements by prefix, falling back to the
// namespace url for documents that declare an unusual prefix.
func extensions(exts ext.Extensions, prefix, namespace, name string) []ext.Extension {
	for _, key := range []string{prefix, namespace} {
		if xs := exts[key][name]; len(xs) > 0 {
			return xs
		}
	}
	return nil
}

func firstValue(exts ext.Extensions, prefix, namespace, name string) string {
	if xs := extensions(exts, prefix, namespace, name); len(xs) > 0 {
		return strings.TrimSpace(xs[0].Value)
	}
	return ""
}

func childValue(x ext.Extension, name string) string {
	if cs := x.Children[name]; len(cs) > 0 {
		return strings.TrimSpace(cs[0].Value)
	}
	return ""
}

func extToObject(x ext.Extension) *as1.Object {
	o := &as1.Object{
		ObjectType:  unqualify(childValue(x, "object-type")),
		ID:          childValue(x, "id"),
		DisplayName: childValue(x, "title"),
		Content:     childValue(x, "content"),
	}
	if cs := x.Children["content"]; len(cs) > 0 && (cs[0].Attrs["type"] == "" || cs[0].Attrs["type"] == "text") {
		o.ContentType = as1.ContentText
	}
	for _, l := range x.Children["link"] {
		if rel := l.Attrs["rel"]; (rel == "" || rel == "alternate") && o.URL == "" {
			o.URL = l.Attrs["href"]
		}
	}
	if authors := x.Children["author"]; len(authors) > 0 {
		o.Author = extToPerson(authors[0])
	}
	if o.DisplayName != "" && isImplied(o) {
		o.DisplayName = ""
	}
	return o
}

func extToPerson(x ext.Extension) *as1.Object {
	return personToObject(&atom.Person{
		Name:  childValue(x, "name"),
		URI:   childValue(x, "uri"),
		Email: childValue(x, "email"),
	})
}
