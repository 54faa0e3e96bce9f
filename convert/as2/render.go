package as2

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/snarfed/activitystreams-unofficial/convert/as1"
)

// maxObjectDepth is how many object/target/origin hops render in full.
// Anything further is written as an id reference.
const maxObjectDepth = 1

// FromAS1 converts a canonical object to an AS2 map, with @context.
func FromAS1(o *as1.Object) map[string]any {
	m := fromAS1(o, 0)
	if m != nil {
		m[ContextProperty] = Context
	}
	return m
}

// Render writes one object as a plain AS2 document, or several as an
// OrderedCollection. Nil objects are dropped.
func Render(objs []*as1.Object) ([]byte, error) {
	if len(objs) == 1 && objs[0] != nil {
		return marshal(FromAS1(objs[0]))
	}
	coll := OrderedCollection{
		Context:    Context,
		Type:       OrderedCollectionType,
		TotalItems: len(objs),
		Items:      make([]map[string]any, 0, len(objs)),
	}
	for _, o := range objs {
		if o != nil {
			coll.Items = append(coll.Items, fromAS1(o, 0))
		}
	}
	coll.TotalItems = len(coll.Items)
	return marshal(coll)
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding as2: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func fromAS1(o *as1.Object, depth int) map[string]any {
	if o == nil {
		return nil
	}
	m := make(map[string]any, len(o.Extra)+8)
	for k, v := range o.Extra {
		m[k] = v
	}

	typ := TypeOf(o)
	if typ != "" {
		m[TypeProperty] = typ
	}
	switch typ {
	case ActivityType:
		putString(m, VerbProperty, o.Verb)
	case ObjectType:
		putString(m, ObjectTypeProperty, o.ObjectType)
	}

	putString(m, IDProperty, o.ID)
	putString(m, NameProperty, o.DisplayName)
	putString(m, SummaryProperty, o.Summary)
	putString(m, ContentProperty, o.Content)
	if o.Content != "" {
		switch o.ContentType {
		case as1.ContentText:
			m[MediaTypeProperty] = "text/plain"
		case as1.ContentHTML:
			m[MediaTypeProperty] = "text/html"
		}
	}
	putString(m, PublishedProperty, o.Published)
	putString(m, UpdatedProperty, o.Updated)
	putString(m, StartTimeProperty, o.StartTime)
	putString(m, EndTimeProperty, o.EndTime)
	putString(m, UsernameProperty, o.Username)
	putString(m, as1.EmailProperty, o.Email)

	switch {
	case o.Stream != nil:
		link := Link{Type: LinkType, HRef: o.Stream.URL, MediaType: o.Stream.MimeType}.toMap()
		if o.URL == "" {
			m[URLProperty] = link
		} else {
			m[URLProperty] = []any{o.URL, link}
		}
	case o.URL != "":
		m[URLProperty] = o.URL
	}

	if o.Image != nil {
		key := ImageProperty
		if as1.IsActorType(o.ObjectType) {
			key = IconProperty
		}
		m[key] = imageFrom(o.Image)
	}

	putRef(m, ActorProperty, o.Actor, depth)
	putRef(m, AttributedToProperty, o.Author, depth)
	putRef(m, ObjectProperty, o.Object, depth+1)
	putRef(m, TargetProperty, o.Target, depth+1)
	putRef(m, OriginProperty, o.Origin, depth+1)
	if len(o.InReplyTo) > 0 {
		list := make([]any, 0, len(o.InReplyTo))
		for _, r := range o.InReplyTo {
			if v := ref(r, depth+1); v != nil {
				list = append(list, v)
			}
		}
		m[InReplyToProperty] = list
	}
	if o.Location != nil {
		m[LocationProperty] = fromAS1(o.Location, depth)
	}
	if o.Latitude != nil {
		m[LatitudeProperty] = *o.Latitude
	}
	if o.Longitude != nil {
		m[LongitudeProperty] = *o.Longitude
	}

	if len(o.Tags) > 0 {
		list := make([]any, 0, len(o.Tags))
		for _, t := range o.Tags {
			if t != nil {
				list = append(list, tagFrom(t, depth))
			}
		}
		m[TagProperty] = list
	}
	if len(o.Attachments) > 0 {
		list := make([]any, 0, len(o.Attachments))
		for _, a := range o.Attachments {
			if a != nil {
				list = append(list, fromAS1(a, depth))
			}
		}
		m[AttachmentProperty] = list
	}
	if len(o.Replies) > 0 {
		items := make([]any, 0, len(o.Replies))
		for _, r := range o.Replies {
			if r != nil {
				items = append(items, fromAS1(r, depth+1))
			}
		}
		m[RepliesProperty] = map[string]any{
			TypeProperty:       CollectionType,
			TotalItemsProperty: len(items),
			ItemsProperty:      items,
		}
	}
	if o.StartIndex != nil {
		m[as1.StartIndexProperty] = *o.StartIndex
	}
	if o.Length != nil {
		m[as1.LengthProperty] = *o.Length
	}

	mediaType, _ := m[MediaTypeProperty].(string)
	// a bare id reference parses back untyped
	target := ""
	if _, ok := m[ObjectProperty].(map[string]any); ok {
		target = as1.ObjectTypeOf(o.Object)
	}
	verb, objectType := implied(typ, o, mediaType, target)
	if verb != o.Verb {
		m[VerbProperty] = o.Verb
	}
	if objectType != o.ObjectType {
		m[ObjectTypeProperty] = o.ObjectType
	}
	return m
}

// tagFrom renders a tag. Links, mentions and hashtags point with href.
func tagFrom(t *as1.Object, depth int) map[string]any {
	m := fromAS1(t, depth)
	typ, _ := m[TypeProperty].(string)
	if typ == "" && t.Verb == "" {
		typ = LinkType
		m[TypeProperty] = typ
	}
	switch typ {
	case LinkType, MentionType, HashtagType:
		if u, ok := m[URLProperty].(string); ok {
			delete(m, URLProperty)
			m[HrefProperty] = u
		}
	}
	return m
}

func imageFrom(img *as1.MediaLink) map[string]any {
	m := map[string]any{TypeProperty: ImageType}
	putString(m, URLProperty, img.URL)
	putString(m, NameProperty, img.DisplayName)
	putString(m, MediaTypeProperty, img.MimeType)
	if img.Width > 0 {
		m[WidthProperty] = img.Width
	}
	if img.Height > 0 {
		m[HeightProperty] = img.Height
	}
	return m
}

// ref renders a nested object, collapsing it to its id when that's all it
// has or when it's past maxObjectDepth.
func ref(o *as1.Object, depth int) any {
	if o == nil {
		return nil
	}
	id := o.ID
	if id == "" {
		id = o.URL
	}
	if id != "" && (depth > maxObjectDepth || isBareID(o)) {
		return id
	}
	return fromAS1(o, depth)
}

func isBareID(o *as1.Object) bool {
	m := o.ToMap()
	_, ok := m[as1.IDProperty]
	return ok && len(m) == 1
}

func putRef(m map[string]any, k string, o *as1.Object, depth int) {
	if v := ref(o, depth); v != nil {
		m[k] = v
	}
}

func putString(m map[string]any, k, v string) {
	if v != "" {
		m[k] = v
	}
}
