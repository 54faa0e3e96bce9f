package microformats2

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/snarfed/activitystreams-unofficial/convert/as1"
	"github.com/snarfed/activitystreams-unofficial/convert/posttype"
	"github.com/snarfed/activitystreams-unofficial/convert/textutil"
)

// JSONContentType is the media type of microformats2 JSON.
const JSONContentType = "application/mf2+json"

// rootTypes are the item types parsed into objects. Other roots, eg h-card
// or h-feed, are skipped.
var rootTypes = []string{"h-entry", "h-event", "h-cite"}

// entryTypes maps object types and verbs to the item's type list.
var entryTypes = map[string][]string{
	as1.ArticleType:        {"h-entry", "h-as-article"},
	as1.NoteType:           {"h-entry", "h-as-note"},
	as1.CommentType:        {"h-entry", "h-as-reply"},
	as1.LikeVerb:           {"h-entry", "h-as-like"},
	as1.ShareVerb:          {"h-entry", "h-as-repost"},
	as1.RSVPYesVerb:        {"h-entry", "h-as-rsvp"},
	as1.RSVPNoVerb:         {"h-entry", "h-as-rsvp"},
	as1.RSVPMaybeVerb:      {"h-entry", "h-as-rsvp"},
	as1.RSVPInterestedVerb: {"h-entry", "h-as-rsvp"},
	as1.EventType:          {"h-event"},
}

// targetProps maps verbs to the property naming their object.
var targetProps = map[string]string{
	as1.LikeVerb:   "like-of",
	as1.ShareVerb:  "repost-of",
	as1.FollowVerb: "follow-of",
}

// ObjectToJSON converts a canonical object to a microformats2 item. Actors
// and places become h-cards, events h-events, everything else an h-entry.
func ObjectToJSON(o *as1.Object) (*Item, as1.Warnings) {
	var warnings as1.Warnings
	return objectToJSON(o, "", &warnings), warnings
}

func objectToJSON(o *as1.Object, path string, warnings *as1.Warnings) *Item {
	if o == nil {
		return nil
	}
	obj := as1.Primary(o)
	author := as1.ActorOf(o)
	objType := as1.ObjectTypeOf(obj)
	if as1.IsActorType(objType) || objType == as1.PlaceType {
		return cardToJSON(obj)
	}

	types, ok := entryTypes[objType]
	if !ok {
		types = []string{"h-entry"}
	}
	it := NewItem(types...)
	it.Add("uid", obj.ID)
	it.Add("url", obj.URL)
	it.Add("published", obj.Published)
	it.Add("updated", obj.Updated)
	it.Add("summary", obj.Summary)
	if objType == as1.EventType {
		it.Add("start", obj.StartTime)
		it.Add("end", obj.EndTime)
	}

	content, text, separate := renderContent(obj, path, warnings)
	name := obj.DisplayName
	if name == "" && text != "" && objType != as1.EventType {
		name = textutil.ImpliedName(text)
	}
	it.Add("name", name)
	if content != "" {
		it.Add("content", map[string]any{"html": content, "value": text})
	}

	var exclude []string
	if img := as1.ImageURL(author); img != "" {
		exclude = append(exclude, img)
	}
	photos := as1.ImageURLs(obj, exclude...)
	if len(photos) == 0 {
		if img := firstImage(content); img != "" {
			photos = append(photos, img)
		}
	}
	for _, p := range photos {
		it.Add("photo", p)
	}
	if obj.Stream != nil {
		it.Add(mediaProp(obj), obj.Stream.URL)
	}
	for _, a := range as1.MediaAttachments(obj) {
		it.Add(mediaProp(a), as1.MediaURL(a))
	}

	replies := obj.InReplyTo
	if obj != o {
		replies = as1.InReplyTo(o)
	}
	for _, r := range replies {
		it.Add("in-reply-to", refURL(r))
	}
	if card := cardToJSON(author); card != nil {
		it.Add("author", card)
	}
	if loc := cardToJSON(obj.Location); loc != nil {
		it.Add("location", loc)
	}
	for i, r := range obj.Replies {
		if r != nil {
			it.Add("comment", objectToJSON(r, as1.JoinPath(path, as1.Index(as1.RepliesProperty, i)), warnings))
		}
	}
	for _, t := range separate {
		if !t.IsActivity() {
			it.Add("category", categoryToJSON(t))
		}
	}

	switch verb := o.Verb; {
	case targetProps[verb] != "":
		if target := targetToJSON(o.Object); target != nil {
			it.Add(targetProps[verb], target)
		}
	case as1.IsRSVPVerb(verb):
		it.Add("rsvp", strings.TrimPrefix(verb, "rsvp-"))
		if o.Object != nil {
			it.Add("in-reply-to", refURL(o.Object))
		}
	case verb == as1.InviteVerb:
		if card := cardToJSON(o.Object); card != nil {
			it.Add("invitee", card)
		}
		if o.Target != nil {
			it.Add("in-reply-to", refURL(o.Target))
		}
	}
	return it
}

func mediaProp(o *as1.Object) string {
	if as1.ObjectTypeOf(o) == as1.AudioType {
		return "audio"
	}
	return "video"
}

// refURL is the url, or failing that the id, of a referenced object.
func refURL(o *as1.Object) string {
	if o == nil {
		return ""
	}
	if o.URL != "" {
		return o.URL
	}
	return o.ID
}

// targetToJSON returns the url of a liked, shared or followed object, or an
// h-cite when there's more to it than a url.
func targetToJSON(o *as1.Object) any {
	if o == nil {
		return nil
	}
	if o.Content == "" && o.DisplayName == "" && o.Author == nil {
		if u := refURL(o); u != "" {
			return u
		}
		return nil
	}
	cite := NewItem("h-cite")
	cite.Add("uid", o.ID)
	cite.Add("url", o.URL)
	cite.Add("name", o.DisplayName)
	cite.Add("published", o.Published)
	if o.Content != "" {
		var text string
		if o.IsText() {
			text = o.Content
		} else {
			text = textutil.HTMLToText(o.Content)
		}
		html := o.Content
		if o.IsText() {
			html = textEscaper.Replace(o.Content)
		}
		cite.Add("content", map[string]any{"html": html, "value": text})
	}
	if card := cardToJSON(o.Author); card != nil {
		cite.Add("author", card)
	}
	cite.Value = refURL(o)
	return cite
}

func cardToJSON(o *as1.Object) *Item {
	if o.IsEmpty() {
		return nil
	}
	it := NewItem("h-card")
	it.Add("name", o.DisplayName)
	it.Add("url", o.URL)
	it.Add("uid", o.ID)
	it.Add("photo", as1.ImageURL(o))
	it.Add("nickname", o.Username)
	it.Add("email", o.Email)
	it.Add("note", o.Summary)
	if o.Latitude != nil {
		it.Add("latitude", strconv.FormatFloat(*o.Latitude, 'f', -1, 64))
	}
	if o.Longitude != nil {
		it.Add("longitude", strconv.FormatFloat(*o.Longitude, 'f', -1, 64))
	}
	it.Value = refURL(o)
	if it.Value == "" {
		it.Value = o.DisplayName
	}
	return it
}

// categoryToJSON renders a separate tag: hashtags by name, others as h-cards.
func categoryToJSON(t *as1.Object) any {
	if t.ObjectType == as1.HashtagType || t.URL == "" {
		if name := strings.TrimPrefix(t.DisplayName, "#"); name != "" {
			return name
		}
		return refURL(t)
	}
	card := cardToJSON(t)
	return card
}

// JSONToObject converts a microformats2 item to a canonical object. The
// verb and object type of entries come from post type discovery.
func JSONToObject(it *Item) (*as1.Object, as1.Warnings) {
	var warnings as1.Warnings
	return itemToObject(it, "", &warnings), warnings
}

func itemToObject(it *Item, path string, warnings *as1.Warnings) *as1.Object {
	if it == nil {
		return nil
	}
	if it.HasType("h-card", "h-adr", "h-geo") {
		return cardToObject(it)
	}

	o := &as1.Object{
		ID:        it.First("uid"),
		URL:       it.First("url"),
		Published: it.First("published"),
		Updated:   it.First("updated"),
		Summary:   it.First("summary"),
	}
	value, isHTML := it.Content()
	content, contentType, inline := parseContent(strings.TrimSpace(value), isHTML)
	o.Content, o.ContentType = content, contentType
	text := content
	if contentType != as1.ContentText {
		text = textutil.HTMLToText(content)
	}

	if it.HasType("h-event") {
		o.ObjectType = as1.EventType
		o.StartTime = it.First("start")
		o.EndTime = it.First("end")
		o.DisplayName = it.First("name")
	} else {
		result := posttype.Discover(it.Properties)
		conflicts := result.Conflicts
		if as1.IsRSVPVerb(result.Verb) {
			// an rsvp is in reply to its event
			conflicts = without(conflicts, "in-reply-to")
		}
		if len(conflicts) > 0 {
			warnings.Add(path, "also has %s, using %s", strings.Join(conflicts, ", "),
				as1.ObjectTypeOf(&as1.Object{ObjectType: result.ObjectType, Verb: result.Verb}))
		}
		switch result.ObjectType {
		case as1.NoteType, as1.ArticleType:
			o.ObjectType = result.ObjectType
			if it.HasType("h-as-article") {
				o.ObjectType = as1.ArticleType
			} else if it.HasType("h-as-note") {
				o.ObjectType = as1.NoteType
			}
		case as1.CommentType:
			o.ObjectType = as1.CommentType
		default:
			o.Verb = result.Verb
		}
		if len(it.Properties["invitee"]) > 0 && o.Verb == "" {
			o.ObjectType, o.Verb = "", as1.InviteVerb
		}
		name := it.First("name")
		if o.ObjectType == as1.ArticleType || !textutil.IsImpliedName(name, text) {
			o.DisplayName = name
		}
	}

	photos := it.Strings("photo")
	if len(photos) == 0 && isHTML {
		if img := firstImage(value); img != "" {
			photos = append(photos, img)
		}
	}
	for i, p := range photos {
		if i == 0 {
			o.Image = &as1.MediaLink{URL: p}
			continue
		}
		o.Attachments = append(o.Attachments, &as1.Object{ObjectType: as1.ImageType, Image: &as1.MediaLink{URL: p}})
	}
	for _, prop := range []string{"video", "audio"} {
		for _, u := range it.Strings(prop) {
			o.Attachments = append(o.Attachments, &as1.Object{ObjectType: prop, Stream: &as1.MediaLink{URL: u}})
		}
	}

	author := personFrom(it.Properties["author"])
	if o.Verb != "" {
		o.Actor = author
	} else {
		o.Author = author
	}
	if locs := it.Properties["location"]; len(locs) > 0 {
		o.Location = placeFrom(locs[0])
	}

	replies := refsFrom(it.Properties["in-reply-to"], path, warnings)
	switch {
	case as1.IsRSVPVerb(o.Verb):
		if len(replies) > 0 {
			o.Object, replies = replies[0], replies[1:]
		}
	case o.Verb == as1.InviteVerb:
		o.Object = personFrom(it.Properties["invitee"])
		if len(replies) > 0 {
			o.Target, replies = replies[0], replies[1:]
		}
	case targetProps[o.Verb] != "":
		prop := targetProps[o.Verb]
		targets := refsFrom(it.Properties[prop], path, warnings)
		if len(targets) == 0 {
			targets = refsFrom(it.Properties[strings.TrimSuffix(prop, "-of")], path, warnings)
		}
		if len(targets) > 0 {
			o.Object = targets[0]
		}
		if len(targets) > 1 {
			warnings.Add(as1.JoinPath(path, prop), "keeping the first of %d targets", len(targets))
		}
	}
	if len(replies) > 0 {
		o.InReplyTo = replies
	}

	for i, c := range it.Properties["comment"] {
		cpath := as1.JoinPath(path, as1.Index("comment", i))
		switch t := c.(type) {
		case *Item:
			o.Replies = append(o.Replies, itemToObject(t, cpath, warnings))
		case string:
			o.Replies = append(o.Replies, &as1.Object{URL: t})
		default:
			warnings.Add(cpath, "skipping malformed comment")
		}
	}

	o.Tags = inline
	for i, c := range it.Properties["category"] {
		switch t := c.(type) {
		case *Item:
			o.Tags = append(o.Tags, cardToObject(t))
		case string:
			if t == "" {
				continue
			}
			if strings.HasPrefix(t, "http://") || strings.HasPrefix(t, "https://") {
				o.Tags = append(o.Tags, &as1.Object{URL: t})
			} else {
				o.Tags = append(o.Tags, &as1.Object{ObjectType: as1.HashtagType, DisplayName: t})
			}
		default:
			warnings.Add(as1.JoinPath(path, as1.Index("category", i)), "skipping malformed category")
		}
	}
	return o
}

func without(list []string, s string) []string {
	var out []string
	for _, e := range list {
		if e != s {
			out = append(out, e)
		}
	}
	return out
}

func cardToObject(it *Item) *as1.Object {
	o := &as1.Object{
		ObjectType:  as1.PersonType,
		ID:          it.First("uid"),
		URL:         it.First("url"),
		DisplayName: it.First("name"),
		Username:    it.First("nickname"),
		Email:       strings.TrimPrefix(it.First("email"), "mailto:"),
		Summary:     it.First("note"),
	}
	if it.HasType("h-adr", "h-geo") {
		o.ObjectType = as1.PlaceType
	}
	if photo := it.First("photo"); photo != "" {
		o.Image = &as1.MediaLink{URL: photo}
	}
	if f, err := strconv.ParseFloat(it.First("latitude"), 64); err == nil {
		o.Latitude = &f
	}
	if f, err := strconv.ParseFloat(it.First("longitude"), 64); err == nil {
		o.Longitude = &f
	}
	return o
}

func personFrom(values []any) *as1.Object {
	for _, v := range values {
		switch t := v.(type) {
		case *Item:
			return cardToObject(t)
		case string:
			if t == "" {
				continue
			}
			if strings.HasPrefix(t, "http://") || strings.HasPrefix(t, "https://") {
				return &as1.Object{URL: t}
			}
			return &as1.Object{DisplayName: t}
		}
	}
	return nil
}

func placeFrom(v any) *as1.Object {
	switch t := v.(type) {
	case *Item:
		place := cardToObject(t)
		place.ObjectType = as1.PlaceType
		return place
	case string:
		if t != "" {
			return &as1.Object{ObjectType: as1.PlaceType, DisplayName: t}
		}
	}
	return nil
}

// refsFrom converts url strings and h-cites to referenced objects.
func refsFrom(values []any, path string, warnings *as1.Warnings) []*as1.Object {
	var refs []*as1.Object
	for _, v := range values {
		switch t := v.(type) {
		case string:
			if t != "" {
				refs = append(refs, &as1.Object{URL: t})
			}
		case *Item:
			if t.HasType("h-cite", "h-entry", "h-event") {
				ref := itemToObject(t, path, warnings)
				if ref.URL == "" {
					ref.URL = t.Value
				}
				refs = append(refs, ref)
			} else if u := stringValue(t); u != "" {
				refs = append(refs, &as1.Object{URL: u})
			}
		}
	}
	return refs
}

// RenderJSON writes objects as a microformats2 JSON document.
func RenderJSON(objs []*as1.Object) ([]byte, as1.Warnings, error) {
	var warnings as1.Warnings
	doc := Document{Items: make([]*Item, 0, len(objs))}
	for i, o := range objs {
		if it := objectToJSON(o, as1.Index("items", i), &warnings); it != nil {
			doc.Items = append(doc.Items, it)
		}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, warnings, fmt.Errorf("encoding mf2 json: %w", err)
	}
	return buf.Bytes(), warnings, nil
}

// ParseJSON reads a microformats2 JSON document, {"items": [...]}, or a
// single item. Root items that aren't entries, events or citations are
// skipped with a warning.
func ParseJSON(b []byte) ([]*as1.Object, as1.Warnings, error) {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, nil, fmt.Errorf("decoding mf2 json: %w", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, nil, as1.NewShapeError("$", "expected an object")
	}

	doc := &Document{}
	if _, single := m["type"]; single {
		if it := itemFromMap(m); it != nil {
			doc.Items = append(doc.Items, it)
		}
	} else if items, present := m["items"]; present {
		list, ok := items.([]any)
		if !ok {
			return nil, nil, as1.NewShapeError("items", "expected an array")
		}
		for _, e := range list {
			em, _ := e.(map[string]any)
			doc.Items = append(doc.Items, itemFromMap(em))
		}
	}
	objs, warnings := documentToObjects(doc)
	return objs, warnings, nil
}

func documentToObjects(doc *Document) ([]*as1.Object, as1.Warnings) {
	var warnings as1.Warnings
	objs := []*as1.Object{}
	for i, it := range doc.Items {
		path := as1.Index("items", i)
		switch {
		case it == nil:
			warnings.Add(path, "skipping malformed item")
		case !it.HasType(rootTypes...):
			warnings.Add(path, "ignoring root item of type %s", it.rootType())
		default:
			objs = append(objs, itemToObject(it, path, &warnings))
		}
	}
	return objs, warnings
}
