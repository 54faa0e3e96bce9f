package microformats2

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/snarfed/activitystreams-unofficial/convert/as1"
	"github.com/snarfed/activitystreams-unofficial/convert/textutil"
)

// HTMLContentType is the media type of rendered documents.
const HTMLContentType = "text/html; charset=utf-8"

const templates = `
{{define "card"}}<div class="{{.Classes}}">
{{- with .Photo}}
  <img class="u-photo" src="{{.}}" alt="" />{{end}}
{{- if .Name}}
  {{if .URL}}<a class="p-name u-url" href="{{.URL}}">{{.Name}}</a>{{else}}<span class="p-name">{{.Name}}</span>{{end}}
{{- else if .URL}}
  <a class="u-url" href="{{.URL}}"></a>{{end}}
{{- with .UID}}
  <span class="u-uid">{{.}}</span>{{end}}
{{- with .Nickname}}
  <span class="p-nickname">{{.}}</span>{{end}}
{{- with .Email}}
  <a class="u-email" href="mailto:{{.}}">{{.}}</a>{{end}}
{{- with .Note}}
  <span class="p-note">{{.}}</span>{{end}}
{{- with .Latitude}}
  <data class="p-latitude" value="{{.}}"></data>{{end}}
{{- with .Longitude}}
  <data class="p-longitude" value="{{.}}"></data>{{end}}
</div>{{end}}

{{define "entry"}}<article class="{{.Classes}}">
{{- with .UID}}
  <span class="u-uid">{{.}}</span>{{end}}
{{- if .Name}}
  <h2 class="p-name">{{if .URL}}<a class="u-url" href="{{.URL}}">{{.Name}}</a>{{else}}{{.Name}}{{end}}</h2>
{{- else if .URL}}
  <a class="u-url" href="{{.URL}}"></a>{{end}}
{{- with .Summary}}
  <p class="p-summary">{{.}}</p>{{end}}
{{- with .Published}}
  <time class="dt-published" datetime="{{.}}">{{.}}</time>{{end}}
{{- with .Updated}}
  <time class="dt-updated" datetime="{{.}}">{{.}}</time>{{end}}
{{- with .Start}}
  <time class="dt-start" datetime="{{.}}">{{.}}</time>{{end}}
{{- with .End}}
  <time class="dt-end" datetime="{{.}}">{{.}}</time>{{end}}
{{- with .Author}}
  {{template "card" .}}{{end}}
{{- with .RSVP}}
  <data class="p-rsvp" value="{{.}}">{{.}}</data>{{end}}
{{- range .Invitees}}
  {{template "card" .}}{{end}}
{{- range .InReplyTo}}
  <a class="u-in-reply-to" href="{{.}}"></a>{{end}}
{{- range .Targets}}
  <a class="{{.Class}}" href="{{.URL}}"></a>{{end}}
{{- range .Cites}}
  {{template "entry" .}}{{end}}
{{- if .HasContent}}
  <div class="e-content">{{.Content}}</div>{{end}}
{{- range .Photos}}
  <img class="u-photo" src="{{.}}" alt="" />{{end}}
{{- range .Videos}}
  <video class="u-video" src="{{.}}" controls></video>{{end}}
{{- range .Audios}}
  <audio class="u-audio" src="{{.}}" controls></audio>{{end}}
{{- with .Location}}
  {{template "card" .}}{{end}}
{{- if or .Hashtags .Cards}}
  <div class="categories">{{range .Hashtags}}<span class="p-category">{{.}}</span> {{end}}{{range .Cards}}{{template "card" .}}{{end}}</div>{{end}}
{{- range .Comments}}
  {{template "entry" .}}{{end}}
</article>{{end}}

{{define "document"}}<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
{{- with .Title}}
<title>{{.}}</title>{{end}}
</head>
<body>
{{range .Items}}{{.}}
{{end}}</body>
</html>
{{end}}`

var tmpl = template.Must(template.New("mf2").Parse(strings.TrimSpace(templates)))

type cardView struct {
	Classes               string
	Name, URL, UID, Photo string
	Nickname, Email, Note string
	Latitude, Longitude   string
}

type target struct {
	Class, URL string
}

type entryView struct {
	Classes                 string
	UID, Name, URL, Summary string
	Published, Updated      string
	Start, End              string
	Author, Location        *cardView
	RSVP                    string
	Invitees                []*cardView
	InReplyTo               []string
	Targets                 []target
	Cites                   []*entryView
	HasContent              bool
	Content                 template.HTML
	Photos, Videos, Audios  []string
	Hashtags                []string
	Cards                   []*cardView
	Comments                []*entryView
}

type documentView struct {
	Title string
	Items []template.HTML
}

// HTMLOptions configures RenderHTML.
type HTMLOptions struct {
	Title string
}

// ObjectToHTML renders a canonical object as microformats2 HTML: an
// h-entry, h-event or h-card.
func ObjectToHTML(o *as1.Object) (string, as1.Warnings, error) {
	it, warnings := ObjectToJSON(o)
	if it == nil {
		return "", warnings, nil
	}
	s, err := itemToHTML(it)
	return s, warnings, err
}

// RenderHTML renders objects as a complete HTML document.
func RenderHTML(objs []*as1.Object, opts HTMLOptions) ([]byte, as1.Warnings, error) {
	var warnings as1.Warnings
	doc := documentView{Title: opts.Title}
	for i, o := range objs {
		it := objectToJSON(o, as1.Index("items", i), &warnings)
		if it == nil {
			continue
		}
		s, err := itemToHTML(it)
		if err != nil {
			return nil, warnings, err
		}
		doc.Items = append(doc.Items, template.HTML(s))
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "document", doc); err != nil {
		return nil, warnings, fmt.Errorf("executing template: %w", err)
	}
	return buf.Bytes(), warnings, nil
}

func itemToHTML(it *Item) (string, error) {
	var buf bytes.Buffer
	var err error
	if it.HasType("h-card") {
		err = tmpl.ExecuteTemplate(&buf, "card", newCardView(it))
	} else {
		err = tmpl.ExecuteTemplate(&buf, "entry", newEntryView(it))
	}
	if err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

func newCardView(it *Item, classes ...string) *cardView {
	return &cardView{
		Classes:   strings.Join(append(classes, it.Type...), " "),
		Name:      it.First("name"),
		URL:       it.First("url"),
		UID:       it.First("uid"),
		Photo:     it.First("photo"),
		Nickname:  it.First("nickname"),
		Email:     it.First("email"),
		Note:      it.First("note"),
		Latitude:  it.First("latitude"),
		Longitude: it.First("longitude"),
	}
}

// cardFrom renders a property value that may be a plain string.
func cardFrom(v any, class string) *cardView {
	switch t := v.(type) {
	case *Item:
		return newCardView(t, class)
	case string:
		if t == "" {
			return nil
		}
		card := &cardView{Classes: class + " h-card"}
		if strings.HasPrefix(t, "http://") || strings.HasPrefix(t, "https://") {
			card.URL = t
		} else {
			card.Name = t
		}
		return card
	}
	return nil
}

func newEntryView(it *Item, classes ...string) *entryView {
	e := &entryView{
		Classes:   strings.Join(append(classes, it.Type...), " "),
		UID:       it.First("uid"),
		URL:       it.First("url"),
		Summary:   it.First("summary"),
		Published: it.First("published"),
		Updated:   it.First("updated"),
		Start:     it.First("start"),
		End:       it.First("end"),
		RSVP:      it.First("rsvp"),
		InReplyTo: it.Strings("in-reply-to"),
		Videos:    it.Strings("video"),
		Audios:    it.Strings("audio"),
	}

	value, isHTML := it.Content()
	if value != "" {
		e.HasContent = true
		if isHTML {
			e.Content = template.HTML(value)
		} else {
			e.Content = template.HTML(textEscaper.Replace(value))
		}
	}
	text := textutil.HTMLToText(string(e.Content))
	if name := it.First("name"); it.HasType("h-event") || !textutil.IsImpliedName(name, text) {
		e.Name = name
	}

	embedded := embeddedImages(string(e.Content))
	for _, p := range it.Strings("photo") {
		if !embedded[p] {
			e.Photos = append(e.Photos, p)
		}
	}

	if authors := it.Properties["author"]; len(authors) > 0 {
		e.Author = cardFrom(authors[0], "p-author")
	}
	if locs := it.Properties["location"]; len(locs) > 0 {
		e.Location = cardFrom(locs[0], "p-location")
	}
	for _, v := range it.Properties["invitee"] {
		if card := cardFrom(v, "p-invitee"); card != nil {
			e.Invitees = append(e.Invitees, card)
		}
	}
	for _, prop := range []string{"like-of", "repost-of", "follow-of"} {
		for _, v := range it.Properties[prop] {
			switch t := v.(type) {
			case string:
				e.Targets = append(e.Targets, target{Class: "u-" + prop, URL: t})
			case *Item:
				e.Cites = append(e.Cites, newEntryView(t, "u-"+prop))
			}
		}
	}
	for _, v := range it.Properties["category"] {
		switch t := v.(type) {
		case string:
			e.Hashtags = append(e.Hashtags, t)
		case *Item:
			e.Cards = append(e.Cards, newCardView(t, "p-category"))
		}
	}
	for _, c := range it.Items("comment") {
		e.Comments = append(e.Comments, newEntryView(c, "p-comment"))
	}
	return e
}
