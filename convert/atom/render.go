package atom

import (
	"encoding/xml"
	"fmt"
	"html"
	"mime"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/snarfed/activitystreams-unofficial/convert/as1"
	"github.com/snarfed/activitystreams-unofficial/convert/microformats2"
	"github.com/snarfed/activitystreams-unofficial/convert/tags"
	"github.com/snarfed/activitystreams-unofficial/convert/textutil"
)

const defaultTitle = "Untitled"

// Render writes activities as an Atom feed.
func Render(objs []*as1.Object, opts Options) ([]byte, as1.Warnings, error) {
	var warnings as1.Warnings
	f := feed{
		namespaces: allNamespaces(),
		Generator:  generator{URI: generatorURI, Value: generatorName},
		Title:      opts.Title,
		Author:     newPerson(opts.Actor),
	}
	if f.Title == "" && opts.Actor != nil {
		f.Title = as1.ActorName(opts.Actor)
	}
	if f.Title == "" {
		f.Title = "Activities"
	}
	if opts.Actor != nil {
		f.Subtitle = textutil.HTMLToText(opts.Actor.Summary)
		f.Logo = as1.ImageURL(opts.Actor)
	}
	if opts.HomeURL != "" {
		f.Links = append(f.Links, link{Rel: "alternate", Type: "text/html", Href: opts.HomeURL})
	}
	if opts.FeedURL != "" {
		f.Links = append(f.Links, link{Rel: "self", Type: ContentType, Href: opts.FeedURL})
	}

	var ids []string
	for i, o := range objs {
		if o == nil {
			warnings.Add(as1.Index("items", i), "missing activity")
			continue
		}
		e := newEntry(o, opts, as1.Index("items", i), &warnings)
		f.Entries = append(f.Entries, e)
		ids = append(ids, e.ID)
		if e.Updated > f.Updated {
			f.Updated = e.Updated
		}
	}

	f.ID = opts.FeedURL
	if f.ID == "" {
		f.ID = urn(opts.Title, opts.HomeURL, strings.Join(ids, " "))
	}

	b, err := marshal(f)
	return b, warnings, err
}

// RenderEntry writes a single activity as a standalone Atom entry.
func RenderEntry(o *as1.Object, opts Options) ([]byte, as1.Warnings, error) {
	if o == nil {
		return nil, nil, as1.NewShapeError("$", "missing activity")
	}
	var warnings as1.Warnings
	e := newEntry(o, opts, "", &warnings)
	e.namespaces = allNamespaces()
	b, err := marshal(e)
	return b, warnings, err
}

func marshal(v any) ([]byte, error) {
	b, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("rendering atom: %w", err)
	}
	return append([]byte(xml.Header), b...), nil
}

// urn derives a stable urn:uuid id from parts, so rendering the same input
// twice gives the same id.
func urn(parts ...string) string {
	return "urn:uuid:" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(strings.Join(parts, "\n"))).String()
}

func newEntry(o *as1.Object, opts Options, at string, warnings *as1.Warnings) *entry {
	obj := as1.Primary(o)
	actor := as1.ActorOf(o)
	if opts.FetchAuthor && opts.Fetch != nil && actor != nil && actor.URL != "" && actor.DisplayName == "" {
		found, err := microformats2.FetchCard(opts.Fetch, actor.URL)
		if err != nil {
			warnings.Add(as1.JoinPath(at, "author"), "%s", err)
		} else {
			actor = found
		}
	}

	e := &entry{
		Author:     newPerson(actor),
		ObjectType: qualify(obj.ObjectType),
		ID:         firstOf(obj.ID, o.ID, obj.URL, o.URL),
		Title:      entryTitle(o, obj),
		Summary:    textutil.HTMLToText(obj.Summary),
		Verb:       qualify(o.Verb),
		Published:  firstOf(obj.Published, o.Published),
		Updated:    firstOf(obj.Updated, o.Updated, obj.Published, o.Published),
	}
	if obj.ObjectType == as1.ActivityType {
		e.ObjectType = ""
	}
	if e.ID == "" {
		e.ID = urn(obj.Content, e.Published, e.Title)
	}

	body, separate := entryContent(o, obj, actor, opts, at, warnings)
	if body != "" {
		e.Content = &content{Type: "html", Value: body}
	}

	if u := firstOf(obj.URL, o.URL); u != "" {
		e.Links = append(e.Links, link{Rel: "alternate", Type: "text/html", Href: u})
	}
	e.Links = append(e.Links, enclosures(obj)...)
	// inline tags are already linked in the content
	for _, t := range separate {
		if t.ObjectType == as1.MentionType || as1.IsActorType(t.ObjectType) {
			if t.URL != "" {
				e.Links = append(e.Links, link{Rel: "mentioned", Href: t.URL, ObjectType: qualify(firstOf(t.ObjectType, as1.PersonType))})
			}
			continue
		}
		if term := strings.TrimPrefix(t.DisplayName, "#"); term != "" {
			e.Categories = append(e.Categories, category{Term: term})
		}
	}

	replies := obj.InReplyTo
	if len(replies) == 0 && obj != o {
		replies = o.InReplyTo
	}
	for _, r := range replies {
		if ref := firstOf(r.ID, r.URL); ref != "" {
			e.InReplyTo = append(e.InReplyTo, inReplyTo{Ref: ref, Href: r.URL})
		}
	}

	if !opts.Reader {
		e.Point, e.FeatureName = geo(obj)
	}

	if obj == o && o.IsActivity() && o.Object != nil {
		e.Object = newActivityObject(o.Object)
	}
	return e
}

func entryTitle(o, obj *as1.Object) string {
	candidates := []*as1.Object{obj}
	if o.Object != nil && obj == o {
		candidates = append(candidates, o.Object)
	}
	for _, c := range candidates {
		if c.DisplayName != "" {
			return textutil.HTMLToText(c.DisplayName)
		}
		if name := textutil.ImpliedName(textutil.HTMLToText(c.Content)); name != "" {
			return name
		}
	}
	if o.IsActivity() && o.Verb != "" {
		return fmt.Sprintf("%s %s %s", as1.ActorName(as1.ActorOf(o)), o.Verb, firstOf(as1.GetObject(o).URL, as1.GetObject(o).ID))
	}
	return defaultTitle
}

// entryContent renders the HTML body: linked inline tags, images that aren't
// already embedded, and in reader mode the location. It returns the tags that
// weren't rendered inline.
func entryContent(o, obj, actor *as1.Object, opts Options, at string, warnings *as1.Warnings) (string, []*as1.Object) {
	src := obj
	if obj == o && o.Verb == as1.ShareVerb && o.Content == "" && o.Object != nil {
		src = o.Object
	}
	inline, separate, w := tags.Split(src.Content, src.Tags)
	warnings.Extend(at, w)

	var b strings.Builder
	b.WriteString(tags.Linkify(src.Content, inline, src.IsText(), tags.Link))
	var exclude []string
	if actor != nil {
		exclude = append(exclude, as1.ImageURL(actor))
	}
	for _, u := range as1.ImageURLs(src, exclude...) {
		if strings.Contains(src.Content, u) {
			continue
		}
		b.WriteString(`<p><img src="` + html.EscapeString(u) + `" /></p>`)
	}
	if opts.Reader && src.Location != nil {
		b.WriteString(locationHTML(src.Location))
	}
	return strings.TrimSpace(b.String()), separate
}

func locationHTML(loc *as1.Object) string {
	name := html.EscapeString(firstOf(loc.DisplayName, loc.URL))
	if name == "" {
		return ""
	}
	if loc.URL != "" {
		name = `<a href="` + html.EscapeString(loc.URL) + `">` + name + `</a>`
	}
	return `<p class="location">` + name + `</p>`
}

// geo returns the georss point and feature name of an object's location.
func geo(obj *as1.Object) (point, name string) {
	lat, long := obj.Latitude, obj.Longitude
	if loc := obj.Location; loc != nil {
		name = loc.DisplayName
		if lat == nil || long == nil {
			lat, long = loc.Latitude, loc.Longitude
		}
	}
	if lat != nil && long != nil {
		point = strconv.FormatFloat(*lat, 'f', -1, 64) + " " + strconv.FormatFloat(*long, 'f', -1, 64)
	}
	return point, name
}

// enclosures links the object's stream and audio and video attachments.
func enclosures(obj *as1.Object) []link {
	var links []link
	seen := map[string]bool{}
	add := func(media *as1.MediaLink, fallback string) {
		u := fallback
		mimeType := ""
		if media != nil {
			u = firstOf(media.URL, fallback)
			mimeType = media.MimeType
		}
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		if mimeType == "" {
			mimeType = mime.TypeByExtension(path.Ext(u))
		}
		links = append(links, link{Rel: "enclosure", Type: mimeType, Href: u})
	}
	if obj.Stream != nil {
		add(obj.Stream, "")
	}
	for _, att := range as1.MediaAttachments(obj) {
		add(att.Stream, as1.MediaURL(att))
	}
	return links
}

func newPerson(actor *as1.Object) *person {
	if actor == nil || actor.IsEmpty() {
		return nil
	}
	return &person{
		ObjectType: qualify(firstOf(actor.ObjectType, as1.PersonType)),
		URI:        firstOf(actor.URL, actor.ID),
		Name:       as1.ActorName(actor),
		Email:      actor.Email,
	}
}

func newActivityObject(obj *as1.Object) *activityObject {
	ao := &activityObject{
		ObjectType: qualify(obj.ObjectType),
		ID:         firstOf(obj.ID, obj.URL),
		Title:      textutil.HTMLToText(obj.DisplayName),
		Author:     newPerson(obj.Author),
	}
	if obj.Content != "" {
		inline, _, _ := tags.Split(obj.Content, obj.Tags)
		ao.Content = &content{Type: "html", Value: tags.Linkify(obj.Content, inline, obj.IsText(), tags.Link)}
	}
	if obj.URL != "" {
		ao.Links = append(ao.Links, link{Rel: "alternate", Type: "text/html", Href: obj.URL})
	}
	return ao
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
