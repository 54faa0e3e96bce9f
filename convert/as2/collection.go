package as2

// OrderedCollection wraps more than one rendered object.
type OrderedCollection struct {
	Context    string           `json:"@context,omitempty"`
	Type       string           `json:"type"`
	TotalItems int              `json:"totalItems"`
	Items      []map[string]any `json:"orderedItems"`
}

// Link is a typed reference to a media resource, eg a video stream.
type Link struct {
	Type      string `json:"type"`
	HRef      string `json:"href"`
	MediaType string `json:"mediaType,omitempty"`
}

func (l Link) toMap() map[string]any {
	m := map[string]any{TypeProperty: l.Type, HrefProperty: l.HRef}
	if l.MediaType != "" {
		m[MediaTypeProperty] = l.MediaType
	}
	return m
}
