package as1

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// maxDepth bounds how far FromMap interprets nested objects. Anything
// deeper is kept as raw JSON in Extra.
const maxDepth = 8

// FromJSON decodes a canonical JSON object.
func FromJSON(b []byte) (*Object, error) {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("decoding canonical json: %w", err)
	}
	return FromValue(v)
}

// FromValue converts a decoded JSON value. Anything but an object is a ShapeError.
func FromValue(v any) (*Object, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, NewShapeError("$", "expected an object, got %s", describe(v))
	}
	return FromMap(m), nil
}

// FromMap builds an Object from a decoded JSON map. Fields may be loosely
// shaped, eg object may be a URL string or a full object, image may be a
// list; unrecognized keys land in Extra.
func FromMap(m map[string]any) *Object {
	return fromMap(m, 0)
}

func fromMap(m map[string]any, depth int) *Object {
	if m == nil {
		return nil
	}
	o := &Object{}
	for k, v := range m {
		if !o.set(k, v, depth) {
			if o.Extra == nil {
				o.Extra = make(map[string]any)
			}
			o.Extra[k] = cloneValue(v)
		}
	}
	return o
}

// set assigns one known property and reports whether it was recognized.
func (o *Object) set(k string, v any, depth int) bool {
	if v == nil {
		return false
	}
	nested := depth+1 < maxDepth
	switch k {
	case IDProperty:
		return setString(&o.ID, v)
	case ObjectTypeProperty:
		return setString(&o.ObjectType, v)
	case VerbProperty:
		return setString(&o.Verb, v)
	case PublishedProperty:
		return setString(&o.Published, v)
	case UpdatedProperty:
		return setString(&o.Updated, v)
	case StartTimeProperty:
		return setString(&o.StartTime, v)
	case EndTimeProperty:
		return setString(&o.EndTime, v)
	case ContentProperty:
		return setString(&o.Content, v)
	case ContentTypeProperty:
		return setString(&o.ContentType, v)
	case DisplayNameProperty:
		return setString(&o.DisplayName, v)
	case SummaryProperty:
		return setString(&o.Summary, v)
	case UsernameProperty:
		return setString(&o.Username, v)
	case EmailProperty:
		return setString(&o.Email, v)
	case URLProperty:
		o.URL = GetURL(v)
		if o.URL == "" {
			return false
		}
		o.keepList(k, v)
		return true
	case ActorProperty, AuthorProperty, ObjectProperty, TargetProperty, OriginProperty, LocationProperty:
		if !nested {
			return false
		}
		obj := objectFrom(v, depth+1)
		if obj == nil {
			return false
		}
		switch k {
		case ActorProperty:
			o.Actor = obj
		case AuthorProperty:
			o.Author = obj
		case ObjectProperty:
			o.Object = obj
		case TargetProperty:
			o.Target = obj
		case OriginProperty:
			o.Origin = obj
		case LocationProperty:
			o.Location = obj
		}
		return true
	case InReplyToProperty, TagsProperty, AttachmentsProperty, RepliesProperty:
		if !nested {
			return false
		}
		if k == RepliesProperty {
			// {"totalItems": n, "items": [...]} collection form
			if coll, ok := v.(map[string]any); ok {
				v = coll["items"]
			}
		}
		objs := objectsFrom(v, depth+1)
		switch k {
		case InReplyToProperty:
			o.InReplyTo = objs
		case TagsProperty:
			o.Tags = objs
		case AttachmentsProperty:
			o.Attachments = objs
		case RepliesProperty:
			o.Replies = objs
		}
		return objs != nil
	case ImageProperty:
		o.Image = mediaFrom(v)
		if o.Image == nil {
			return false
		}
		o.keepList(k, v)
		return true
	case StreamProperty:
		o.Stream = mediaFrom(v)
		return o.Stream != nil
	case LatitudeProperty:
		o.Latitude = floatFrom(v)
		return o.Latitude != nil
	case LongitudeProperty:
		o.Longitude = floatFrom(v)
		return o.Longitude != nil
	case StartIndexProperty:
		o.StartIndex = intFrom(v)
		return o.StartIndex != nil
	case LengthProperty:
		o.Length = intFrom(v)
		return o.Length != nil
	}
	return false
}

// keepList stores a multi-valued url or image whole in Extra. The field
// only holds the first value.
func (o *Object) keepList(k string, v any) {
	if l, ok := v.([]any); ok && len(l) > 1 {
		if o.Extra == nil {
			o.Extra = make(map[string]any)
		}
		o.Extra[k] = cloneValue(v)
	}
}

// extraHolds reports whether Extra has a value for k that still agrees with
// the typed field, so ToMap writes it back instead of the field.
func (o *Object) extraHolds(k string) bool {
	v, ok := o.Extra[k]
	if !ok {
		return false
	}
	switch k {
	case URLProperty:
		return GetURL(v) == o.URL
	case ImageProperty:
		m := mediaFrom(v)
		if m == nil || o.Image == nil {
			return m == o.Image
		}
		return *m == *o.Image
	}
	return false
}

// ToMap converts back to the canonical JSON shape, omitting empty fields.
func (o *Object) ToMap() map[string]any {
	if o == nil {
		return nil
	}
	m := make(map[string]any, len(o.Extra)+8)
	for k, v := range o.Extra {
		m[k] = cloneValue(v)
	}
	putString(m, IDProperty, o.ID)
	putString(m, ObjectTypeProperty, o.ObjectType)
	putString(m, VerbProperty, o.Verb)
	putString(m, PublishedProperty, o.Published)
	putString(m, UpdatedProperty, o.Updated)
	putString(m, StartTimeProperty, o.StartTime)
	putString(m, EndTimeProperty, o.EndTime)
	putString(m, ContentProperty, o.Content)
	putString(m, ContentTypeProperty, o.ContentType)
	putString(m, DisplayNameProperty, o.DisplayName)
	putString(m, SummaryProperty, o.Summary)
	if !o.extraHolds(URLProperty) {
		delete(m, URLProperty)
		putString(m, URLProperty, o.URL)
	}
	putString(m, UsernameProperty, o.Username)
	putString(m, EmailProperty, o.Email)
	putObject(m, ActorProperty, o.Actor)
	putObject(m, AuthorProperty, o.Author)
	putObject(m, ObjectProperty, o.Object)
	putObject(m, TargetProperty, o.Target)
	putObject(m, OriginProperty, o.Origin)
	putObject(m, LocationProperty, o.Location)
	putObjects(m, InReplyToProperty, o.InReplyTo)
	putObjects(m, TagsProperty, o.Tags)
	putObjects(m, AttachmentsProperty, o.Attachments)
	if len(o.Replies) > 0 {
		items := make([]any, len(o.Replies))
		for i, r := range o.Replies {
			items[i] = r.ToMap()
		}
		m[RepliesProperty] = map[string]any{"totalItems": len(items), "items": items}
	}
	if !o.extraHolds(ImageProperty) {
		delete(m, ImageProperty)
		if o.Image != nil {
			m[ImageProperty] = o.Image.toMap()
		}
	}
	if o.Stream != nil {
		m[StreamProperty] = o.Stream.toMap()
	}
	if o.Latitude != nil {
		m[LatitudeProperty] = *o.Latitude
	}
	if o.Longitude != nil {
		m[LongitudeProperty] = *o.Longitude
	}
	if o.StartIndex != nil {
		m[StartIndexProperty] = *o.StartIndex
	}
	if o.Length != nil {
		m[LengthProperty] = *o.Length
	}
	return m
}

// MarshalJSON implements json.Marshaler with the canonical JSON shape.
func (o *Object) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.ToMap())
}

// UnmarshalJSON implements json.Unmarshaler. Non-objects are a ShapeError.
func (o *Object) UnmarshalJSON(b []byte) error {
	parsed, err := FromJSON(b)
	if err != nil {
		return err
	}
	*o = *parsed
	return nil
}

func (m *MediaLink) toMap() map[string]any {
	out := make(map[string]any)
	putString(out, URLProperty, m.URL)
	putString(out, DisplayNameProperty, m.DisplayName)
	putString(out, "mimeType", m.MimeType)
	if m.Width > 0 {
		out["width"] = m.Width
	}
	if m.Height > 0 {
		out["height"] = m.Height
	}
	if m.Duration > 0 {
		out["duration"] = m.Duration
	}
	return out
}

// ParseID extracts an id from a value that may be a plain string or an
// object with an id (or url) field, eg { "actor": "https://id" } or
// { "actor": { "name": "Alice", "id": "https://id" } }.
func ParseID(v any) (val string) {
	switch t := v.(type) {
	case string:
		val = t
	case map[string]any:
		switch s := t[IDProperty].(type) {
		case string:
			val = s
		case fmt.Stringer:
			val = s.String()
		}
		if val == "" {
			val = GetURL(t[URLProperty])
		}
	case []any:
		if len(t) > 0 {
			val = ParseID(t[0])
		}
	case *Object:
		if t != nil {
			val = t.ID
			if val == "" {
				val = t.URL
			}
		}
	}
	return val
}

// GetURL returns the first url in a value that may be a string, a list, or
// an object with a value or href field.
func GetURL(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		for _, e := range t {
			if u := GetURL(e); u != "" {
				return u
			}
		}
	case map[string]any:
		for _, key := range []string{"value", "href", URLProperty} {
			if s, ok := t[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func objectFrom(v any, depth int) *Object {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return &Object{ID: t}
	case map[string]any:
		return fromMap(t, depth)
	case []any:
		if len(t) > 0 {
			return objectFrom(t[0], depth)
		}
	}
	return nil
}

func objectsFrom(v any, depth int) []*Object {
	var list []any
	switch t := v.(type) {
	case []any:
		list = t
	default:
		list = []any{t}
	}
	var objs []*Object
	for _, e := range list {
		if obj := objectFrom(e, depth); obj != nil {
			objs = append(objs, obj)
		}
	}
	return objs
}

func mediaFrom(v any) *MediaLink {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return &MediaLink{URL: t}
	case []any:
		for _, e := range t {
			if m := mediaFrom(e); m != nil {
				return m
			}
		}
	case map[string]any:
		m := &MediaLink{URL: GetURL(t[URLProperty])}
		setString(&m.DisplayName, t[DisplayNameProperty])
		setString(&m.MimeType, t["mimeType"])
		if i := intFrom(t["width"]); i != nil {
			m.Width = *i
		}
		if i := intFrom(t["height"]); i != nil {
			m.Height = *i
		}
		if i := intFrom(t["duration"]); i != nil {
			m.Duration = *i
		}
		if m.URL == "" && m.MimeType == "" && m.DisplayName == "" {
			return nil
		}
		return m
	}
	return nil
}

func setString(dst *string, v any) bool {
	s, ok := v.(string)
	if ok {
		*dst = s
	}
	return ok
}

func intFrom(v any) *int {
	switch t := v.(type) {
	case int:
		return &t
	case int64:
		i := int(t)
		return &i
	case float64:
		i := int(t)
		return &i
	case json.Number:
		if i, err := t.Int64(); err == nil {
			n := int(i)
			return &n
		}
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
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return &f
		}
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return &f
		}
	}
	return nil
}

func putString(m map[string]any, k, v string) {
	if v != "" {
		m[k] = v
	}
}

func putObject(m map[string]any, k string, o *Object) {
	if o != nil {
		m[k] = o.ToMap()
	}
}

func putObjects(m map[string]any, k string, objs []*Object) {
	if len(objs) == 0 {
		return
	}
	list := make([]any, len(objs))
	for i, o := range objs {
		list[i] = o.ToMap()
	}
	m[k] = list
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case float64, json.Number:
		return "number"
	case bool:
		return "boolean"
	}
	return fmt.Sprintf("%T", v)
}
