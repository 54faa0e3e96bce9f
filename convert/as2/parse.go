package as2

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/snarfed/activitystreams-unofficial/convert/as1"
)

// maxParseDepth bounds how far nested AS2 objects are interpreted; deeper
// ones are reduced to their id.
const maxParseDepth = 8

// Parse decodes an AS2 document: a single object, or a Collection or
// OrderedCollection of them.
func Parse(b []byte) ([]*as1.Object, as1.Warnings, error) {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, nil, fmt.Errorf("decoding as2: %w", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, nil, as1.NewShapeError("$", "expected an object")
	}

	var warnings as1.Warnings
	switch firstString(m[TypeProperty]) {
	case CollectionType, OrderedCollectionType:
		items, key := m[OrderedItemsProperty], OrderedItemsProperty
		if items == nil {
			items, key = m[ItemsProperty], ItemsProperty
		}
		if items == nil {
			break
		}
		list, ok := items.([]any)
		if !ok {
			return nil, nil, as1.NewShapeError(key, "expected an array")
		}
		objs := make([]*as1.Object, 0, len(list))
		for i, item := range list {
			obj := objectFrom(item, 0)
			if obj == nil {
				warnings.Add(as1.Index(key, i), "skipped non-object item")
				continue
			}
			objs = append(objs, obj)
		}
		return objs, warnings, nil
	}
	return []*as1.Object{ToAS1(m)}, warnings, nil
}

// ToAS1 converts a decoded AS2 map to a canonical object. Properties with no
// canonical equivalent are kept in Extra.
func ToAS1(m map[string]any) *as1.Object {
	return toAS1(m, 0)
}

// props tracks which keys of an AS2 map have been consumed.
type props struct {
	m    map[string]any
	used map[string]bool
}

func (p *props) get(k string) any {
	v, ok := p.m[k]
	if ok {
		p.used[k] = true
	}
	return v
}

func (p *props) str(k string) string {
	s, ok := p.m[k].(string)
	if ok {
		p.used[k] = true
	}
	return s
}

func toAS1(m map[string]any, depth int) *as1.Object {
	if m == nil {
		return nil
	}
	p := &props{m: m, used: map[string]bool{ContextProperty: true}}
	o := &as1.Object{}

	typ := firstString(m[TypeProperty])
	mediaType, _ := m[MediaTypeProperty].(string)
	switch {
	case typ == ActivityType:
		p.used[TypeProperty] = true
		o.Verb = p.str(VerbProperty)
		if o.Verb == "" {
			o.ObjectType = as1.ActivityType
		}
	case typ == ObjectType:
		p.used[TypeProperty] = true
		o.ObjectType = p.str(ObjectTypeProperty)
	case typ == LinkType:
		p.used[TypeProperty] = true
	case typ == DocumentType:
		p.used[TypeProperty] = true
		o.ObjectType = documentType(mediaType)
	case typeVerbs[typ] != "":
		p.used[TypeProperty] = true
		o.Verb = typeVerbs[typ]
	case typeObjects[typ] != "":
		p.used[TypeProperty] = true
		o.ObjectType = typeObjects[typ]
	}

	o.ID = p.str(IDProperty)
	o.DisplayName = p.str(NameProperty)
	o.Summary = p.str(SummaryProperty)
	o.Content = p.str(ContentProperty)
	switch mediaType {
	case "text/plain":
		p.used[MediaTypeProperty] = true
		o.ContentType = as1.ContentText
	case "text/html":
		p.used[MediaTypeProperty] = true
		o.ContentType = as1.ContentHTML
	}
	o.Published = p.str(PublishedProperty)
	o.Updated = p.str(UpdatedProperty)
	o.StartTime = p.str(StartTimeProperty)
	o.EndTime = p.str(EndTimeProperty)
	o.Username = p.str(UsernameProperty)
	o.Email = p.str(as1.EmailProperty)

	if v, ok := m[URLProperty]; ok {
		p.used[URLProperty] = true
		if s, isString := v.(string); isString && isStreamMIME(mediaType) {
			p.used[MediaTypeProperty] = true
			o.Stream = &as1.MediaLink{URL: s, MimeType: mediaType}
		} else {
			o.URL, o.Stream = urlsFrom(v)
		}
	}
	if o.URL == "" {
		o.URL = p.str(HrefProperty)
	}
	if typ == DocumentType && mediaType != "" {
		p.used[MediaTypeProperty] = true
	}

	first, second := ImageProperty, IconProperty
	if as1.IsActorType(o.ObjectType) {
		first, second = IconProperty, ImageProperty
	}
	if o.Image = imageTo(m[first]); o.Image != nil {
		p.used[first] = true
	} else if o.Image = imageTo(m[second]); o.Image != nil {
		p.used[second] = true
	}

	next := depth + 1
	o.Actor = objectFrom(p.get(ActorProperty), next)
	o.Author = objectFrom(p.get(AttributedToProperty), next)
	o.Object = objectFrom(p.get(ObjectProperty), next)
	o.Target = objectFrom(p.get(TargetProperty), next)
	o.Origin = objectFrom(p.get(OriginProperty), next)
	o.InReplyTo = objectsFrom(p.get(InReplyToProperty), next)
	o.Location = objectFrom(p.get(LocationProperty), next)
	o.Tags = objectsFrom(p.get(TagProperty), next)
	o.Attachments = objectsFrom(p.get(AttachmentProperty), next)
	if r := p.get(RepliesProperty); r != nil {
		if coll, ok := r.(map[string]any); ok {
			items := coll[ItemsProperty]
			if items == nil {
				items = coll[OrderedItemsProperty]
			}
			o.Replies = objectsFrom(items, next)
		} else {
			o.Replies = objectsFrom(r, next)
		}
	}

	if f := floatFrom(m[LatitudeProperty]); f != nil {
		p.used[LatitudeProperty] = true
		o.Latitude = f
	}
	if f := floatFrom(m[LongitudeProperty]); f != nil {
		p.used[LongitudeProperty] = true
		o.Longitude = f
	}
	if i := intFrom(m[as1.StartIndexProperty]); i != nil {
		p.used[as1.StartIndexProperty] = true
		o.StartIndex = i
	}
	if i := intFrom(m[as1.LengthProperty]); i != nil {
		p.used[as1.LengthProperty] = true
		o.Length = i
	}

	switch o.Verb {
	case as1.AcceptVerb:
		if as1.ObjectTypeOf(o.Object) == as1.EventType {
			o.Verb = as1.RSVPYesVerb
		}
	case as1.RejectVerb:
		if as1.ObjectTypeOf(o.Object) == as1.EventType {
			o.Verb = as1.RSVPNoVerb
		}
	}
	if o.ObjectType == as1.NoteType && len(o.InReplyTo) > 0 {
		o.ObjectType = as1.CommentType
	}
	// explicit canonical values win over the type's
	if v, ok := m[VerbProperty].(string); ok {
		p.used[VerbProperty] = true
		o.Verb = v
	}
	if v, ok := m[ObjectTypeProperty].(string); ok {
		p.used[ObjectTypeProperty] = true
		o.ObjectType = v
	}

	for k, v := range m {
		if !p.used[k] {
			if o.Extra == nil {
				o.Extra = make(map[string]any)
			}
			o.Extra[k] = v
		}
	}
	return o
}

func objectFrom(v any, depth int) *as1.Object {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return &as1.Object{ID: t}
	case map[string]any:
		if depth >= maxParseDepth {
			if id := as1.ParseID(t); id != "" {
				return &as1.Object{ID: id}
			}
			return nil
		}
		return toAS1(t, depth)
	case []any:
		for _, e := range t {
			if o := objectFrom(e, depth); o != nil {
				return o
			}
		}
	}
	return nil
}

func objectsFrom(v any, depth int) []*as1.Object {
	if v == nil {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		list = []any{v}
	}
	var objs []*as1.Object
	for _, e := range list {
		if o := objectFrom(e, depth); o != nil {
			objs = append(objs, o)
		}
	}
	return objs
}

// urlsFrom splits a url value into a page URL and an audio or video stream.
func urlsFrom(v any) (page string, stream *as1.MediaLink) {
	switch t := v.(type) {
	case string:
		page = t
	case map[string]any:
		href := as1.GetURL(t)
		mt, _ := t[MediaTypeProperty].(string)
		if isStreamMIME(mt) {
			stream = &as1.MediaLink{URL: href, MimeType: mt}
		} else {
			page = href
		}
	case []any:
		for _, e := range t {
			p, s := urlsFrom(e)
			if page == "" {
				page = p
			}
			if stream == nil {
				stream = s
			}
		}
	}
	return page, stream
}

func imageTo(v any) *as1.MediaLink {
	switch t := v.(type) {
	case string:
		if t != "" {
			return &as1.MediaLink{URL: t}
		}
	case []any:
		for _, e := range t {
			if img := imageTo(e); img != nil {
				return img
			}
		}
	case map[string]any:
		img := &as1.MediaLink{URL: as1.GetURL(t[URLProperty])}
		if img.URL == "" {
			img.URL, _ = t[HrefProperty].(string)
		}
		if img.URL == "" {
			return nil
		}
		img.DisplayName, _ = t[NameProperty].(string)
		img.MimeType, _ = t[MediaTypeProperty].(string)
		if i := intFrom(t[WidthProperty]); i != nil {
			img.Width = *i
		}
		if i := intFrom(t[HeightProperty]); i != nil {
			img.Height = *i
		}
		return img
	}
	return nil
}

func firstString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok {
				return s
			}
		}
	}
	return ""
}

func intFrom(v any) *int {
	switch t := v.(type) {
	case int:
		return &t
	case float64:
		i := int(t)
		return &i
	case string:
		if i, err := strconv.Atoi(t); err == nil {
			return &i
		}
	}
	return nil
}

func floatFrom(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case int:
		f := float64(t)
		return &f
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return &f
		}
	}
	return nil
}
