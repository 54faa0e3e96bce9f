package as1

// ObjectTypeOf returns the object type, or the verb if it's an activity.
func ObjectTypeOf(o *Object) string {
	if o == nil {
		return ""
	}
	if o.ObjectType != "" && o.ObjectType != ActivityType {
		return o.ObjectType
	}
	return o.Verb
}

// GetObject returns the activity's object, or an empty object. Never nil.
func GetObject(o *Object) *Object {
	if o == nil || o.Object == nil {
		return &Object{}
	}
	return o.Object
}

// Primary returns the object that carries an activity's content: the
// object of a post or update activity, otherwise the activity itself.
func Primary(o *Object) *Object {
	if o == nil {
		return &Object{}
	}
	if o.Object != nil && (o.Verb == PostVerb || o.Verb == UpdateVerb) {
		return o.Object
	}
	return o
}

// ActorOf returns the actor of an activity or the author of an object,
// falling back to the inner object's author.
func ActorOf(o *Object) *Object {
	if o == nil {
		return nil
	}
	if o.Actor != nil {
		return o.Actor
	}
	if o.Author != nil {
		return o.Author
	}
	if o.Object != nil && o.IsActivity() {
		return o.Object.Author
	}
	return nil
}

// ActorName returns a human readable name for an actor.
func ActorName(actor *Object) string {
	if actor != nil {
		if actor.DisplayName != "" {
			return actor.DisplayName
		}
		if actor.Username != "" {
			return actor.Username
		}
	}
	return "Unknown"
}

// ImageURL returns the object's image url, if any.
func ImageURL(o *Object) string {
	if o == nil || o.Image == nil {
		return ""
	}
	return o.Image.URL
}

// StreamURL returns the object's audio or video stream url, if any.
func StreamURL(o *Object) string {
	if o == nil || o.Stream == nil {
		return ""
	}
	return o.Stream.URL
}

// MediaURL returns the most specific media url for an attachment: its
// stream, then its image, then its url.
func MediaURL(o *Object) string {
	if u := StreamURL(o); u != "" {
		return u
	}
	if u := ImageURL(o); u != "" {
		return u
	}
	if o == nil {
		return ""
	}
	return o.URL
}

// ImageURLs returns the object's image followed by its image attachments'
// urls, de-duplicated, in order, skipping any url in exclude (typically the
// actor's avatar).
func ImageURLs(o *Object, exclude ...string) []string {
	if o == nil {
		return nil
	}
	seen := make(map[string]bool)
	for _, e := range exclude {
		if e != "" {
			seen[e] = true
		}
	}
	var urls []string
	add := func(u string) {
		if u != "" && !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}
	add(ImageURL(o))
	for _, att := range o.Attachments {
		if att == nil {
			continue
		}
		if att.ObjectType == ImageType {
			if u := ImageURL(att); u != "" {
				add(u)
			} else {
				add(att.URL)
			}
		}
	}
	return urls
}

// MediaAttachments returns the attachments with an audio or video stream.
func MediaAttachments(o *Object) []*Object {
	if o == nil {
		return nil
	}
	var media []*Object
	for _, att := range o.Attachments {
		if att == nil {
			continue
		}
		if (att.ObjectType == AudioType || att.ObjectType == VideoType) && MediaURL(att) != "" {
			media = append(media, att)
		}
	}
	return media
}

// InReplyTo returns the in-reply-to objects of an activity or its object.
func InReplyTo(o *Object) []*Object {
	if o == nil {
		return nil
	}
	if len(o.InReplyTo) > 0 {
		return o.InReplyTo
	}
	if o.Object != nil {
		return o.Object.InReplyTo
	}
	return nil
}

// Check validates a canonical object beyond its top level shape and returns
// warnings for malformed children, eg tags whose offsets don't fit the content.
func Check(o *Object) Warnings {
	var warnings Warnings
	if o == nil {
		return warnings
	}
	for i, t := range o.Tags {
		path := Index(TagsProperty, i)
		switch {
		case t == nil:
			warnings.Add(path, "empty tag")
		case (t.StartIndex == nil) != (t.Length == nil):
			warnings.Add(path, "tag has only one of startIndex and length")
		case t.HasOffsets() && !t.ValidOffsets(o.Content):
			warnings.Add(path, "tag offsets %d+%d out of range", *t.StartIndex, *t.Length)
		}
	}
	for i, a := range o.Attachments {
		if a == nil {
			warnings.Add(Index(AttachmentsProperty, i), "empty attachment")
		}
	}
	if o.Object != nil {
		warnings.Extend(ObjectProperty, Check(o.Object))
	}
	return warnings
}
