package as1

import "unicode/utf8"

// MediaLink is an image, audio or video reference.
type MediaLink struct {
	URL         string
	Width       int
	Height      int
	Duration    int
	MimeType    string
	DisplayName string
}

// Object is the canonical ActivityStreams 1.0 object. Activities, actors,
// tags and attachments all share this shape; an activity is an Object with a Verb.
type Object struct {
	ID          string
	ObjectType  string
	Verb        string
	Actor       *Object
	Author      *Object
	Object      *Object
	Target      *Object
	Origin      *Object
	InReplyTo   []*Object
	Published   string
	Updated     string
	StartTime   string
	EndTime     string
	Content     string
	ContentType string // ContentHTML (the default when empty) or ContentText
	DisplayName string
	Summary     string
	URL         string
	Username    string
	Email       string
	Image       *MediaLink
	Stream      *MediaLink
	Location    *Object
	Latitude    *float64
	Longitude   *float64
	Tags        []*Object
	Attachments []*Object
	Replies     []*Object
	StartIndex  *int // tag offset into the parent's Content, in runes
	Length      *int // tag length, in runes

	// Extra holds properties this model doesn't interpret, passed through untouched.
	Extra map[string]any
}

// IsActivity reports whether the object is an activity, ie has a verb.
func (o *Object) IsActivity() bool {
	return o != nil && (o.Verb != "" || o.ObjectType == ActivityType)
}

// IsText reports whether Content is plain text rather than HTML.
func (o *Object) IsText() bool {
	return o != nil && o.ContentType == ContentText
}

// HasOffsets reports whether a tag carries both startIndex and length.
func (o *Object) HasOffsets() bool {
	return o != nil && o.StartIndex != nil && o.Length != nil
}

// ValidOffsets reports whether a tag's offsets fit inside content.
func (o *Object) ValidOffsets(content string) bool {
	if !o.HasOffsets() {
		return false
	}
	start, length := *o.StartIndex, *o.Length
	return start >= 0 && length >= 0 && start+length <= utf8.RuneCountInString(content)
}

// IsEmpty reports whether nothing at all is set.
func (o *Object) IsEmpty() bool {
	if o == nil {
		return true
	}
	return len(o.ToMap()) == 0
}

// Clone returns a deep copy. Converters work on clones, never on caller input.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	c := *o
	c.Actor = o.Actor.Clone()
	c.Author = o.Author.Clone()
	c.Object = o.Object.Clone()
	c.Target = o.Target.Clone()
	c.Origin = o.Origin.Clone()
	c.Location = o.Location.Clone()
	c.InReplyTo = cloneAll(o.InReplyTo)
	c.Tags = cloneAll(o.Tags)
	c.Attachments = cloneAll(o.Attachments)
	c.Replies = cloneAll(o.Replies)
	c.Image = o.Image.clone()
	c.Stream = o.Stream.clone()
	c.Latitude = cloneFloat(o.Latitude)
	c.Longitude = cloneFloat(o.Longitude)
	c.StartIndex = cloneInt(o.StartIndex)
	c.Length = cloneInt(o.Length)
	if o.Extra != nil {
		c.Extra = make(map[string]any, len(o.Extra))
		for k, v := range o.Extra {
			c.Extra[k] = cloneValue(v)
		}
	}
	return &c
}

func (m *MediaLink) clone() *MediaLink {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}

func cloneAll(objs []*Object) []*Object {
	if objs == nil {
		return nil
	}
	c := make([]*Object, len(objs))
	for i, o := range objs {
		c[i] = o.Clone()
	}
	return c
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

// cloneValue deep copies decoded JSON values.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		c := make(map[string]any, len(t))
		for k, e := range t {
			c[k] = cloneValue(e)
		}
		return c
	case []any:
		c := make([]any, len(t))
		for i, e := range t {
			c[i] = cloneValue(e)
		}
		return c
	}
	return v
}

// Int returns a pointer to i, for tag offsets.
func Int(i int) *int {
	return &i
}

// Float returns a pointer to f, for coordinates.
func Float(f float64) *float64 {
	return &f
}
