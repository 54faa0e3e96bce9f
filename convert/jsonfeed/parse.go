package jsonfeed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/snarfed/activitystreams-unofficial/convert/as1"
	"github.com/snarfed/activitystreams-unofficial/convert/textutil"
)

// document defers decoding of the parts that may be malformed, so one bad
// item or attachment doesn't sink the feed.
type document struct {
	Version     string          `json:"version"`
	HomePageURL string          `json:"home_page_url"`
	Author      json.RawMessage `json:"author"`
	Items       json.RawMessage `json:"items"`
}

type rawItem struct {
	Item
	Attachments []json.RawMessage `json:"attachments"`
}

// Parse reads a JSON Feed. Malformed items and attachments are skipped with
// a warning.
func Parse(b []byte) ([]*as1.Object, as1.Warnings, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		if !json.Valid(trimmed) {
			return nil, nil, fmt.Errorf("reading json feed: invalid json")
		}
		return nil, nil, as1.NewShapeError("$", "expected a json feed object")
	}
	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, nil, fmt.Errorf("reading json feed: %w", err)
	}

	var warnings as1.Warnings
	if !strings.HasPrefix(doc.Version, "https://jsonfeed.org/version/") {
		warnings.Add("version", "unexpected json feed version %q", doc.Version)
	}

	var feedAuthor *as1.Object
	if len(doc.Author) > 0 && string(doc.Author) != "null" {
		var a Author
		if err := json.Unmarshal(doc.Author, &a); err != nil {
			warnings.Add("author", "malformed author: %s", err)
		} else {
			feedAuthor = authorToObject(&a)
			if feedAuthor != nil && feedAuthor.URL == "" {
				feedAuthor.URL = doc.HomePageURL
			}
		}
	}

	var items []json.RawMessage
	if len(doc.Items) > 0 && string(doc.Items) != "null" {
		if err := json.Unmarshal(doc.Items, &items); err != nil {
			return nil, nil, as1.NewShapeError("items", "expected an array")
		}
	}

	objs := make([]*as1.Object, 0, len(items))
	for i, raw := range items {
		at := as1.Index("items", i)
		var it rawItem
		if err := json.Unmarshal(raw, &it); err != nil {
			warnings.Add(at, "skipped malformed item: %s", err)
			continue
		}
		objs = append(objs, itemToObject(&it, feedAuthor, at, &warnings))
	}
	return objs, warnings, nil
}

func itemToObject(it *rawItem, feedAuthor *as1.Object, at string, warnings *as1.Warnings) *as1.Object {
	o := &as1.Object{
		ID:          firstOf(it.ID, it.URL),
		URL:         it.URL,
		DisplayName: it.Title,
		Summary:     it.Summary,
		Published:   it.DatePublished,
		Updated:     it.DateModified,
		Content:     it.ContentHTML,
	}
	text := textutil.HTMLToText(it.ContentHTML)
	if o.Content == "" && it.ContentText != "" {
		o.Content = it.ContentText
		o.ContentType = as1.ContentText
		text = it.ContentText
	}
	if o.ID == "" {
		warnings.Add(as1.JoinPath(at, as1.IDProperty), "item has neither id nor url")
	}

	o.ObjectType = as1.ArticleType
	if textutil.IsImpliedName(o.DisplayName, text) {
		o.ObjectType = as1.NoteType
		o.DisplayName = ""
	}

	o.Author = authorToObject(it.Author)
	if o.Author == nil && feedAuthor != nil {
		o.Author = feedAuthor.Clone()
	}
	if it.Image != "" {
		o.Image = &as1.MediaLink{URL: it.Image}
	}
	for _, t := range it.Tags {
		if t = strings.TrimSpace(t); t != "" {
			o.Tags = append(o.Tags, &as1.Object{ObjectType: as1.HashtagType, DisplayName: t})
		}
	}

	for i, raw := range it.Attachments {
		path := as1.JoinPath(at, as1.Index(as1.AttachmentsProperty, i))
		var a Attachment
		if err := json.Unmarshal(raw, &a); err != nil {
			warnings.Add(path, "skipped malformed attachment: %s", err)
			continue
		}
		if a.URL == "" {
			warnings.Add(path, "skipped attachment without url")
			continue
		}
		o.Attachments = append(o.Attachments, attachmentToObject(a))
	}
	return o
}

func authorToObject(a *Author) *as1.Object {
	if a == nil || *a == (Author{}) {
		return nil
	}
	o := &as1.Object{ObjectType: as1.PersonType, DisplayName: a.Name, URL: a.URL}
	if a.Avatar != "" {
		o.Image = &as1.MediaLink{URL: a.Avatar}
	}
	return o
}

func attachmentToObject(a Attachment) *as1.Object {
	media := &as1.MediaLink{URL: a.URL, MimeType: a.MimeType, Duration: a.DurationInSeconds}
	o := &as1.Object{DisplayName: a.Title}
	switch strings.SplitN(a.MimeType, "/", 2)[0] {
	case "image":
		o.ObjectType = as1.ImageType
		o.Image = media
	case "audio":
		o.ObjectType = as1.AudioType
		o.Stream = media
	case "video":
		o.ObjectType = as1.VideoType
		o.Stream = media
	default:
		o.ObjectType = as1.FileType
		o.URL = a.URL
	}
	return o
}
