// Package microformats2 converts between canonical objects and
// microformats2, both the HTML markup and its JSON property-bag form.
//
// http://microformats.org/wiki/microformats2
package microformats2

import (
	"strings"
)

// Item is one microformats2 object in its JSON shape. Property values are
// always slices; each value is a string, an embedded *Item, or a
// map[string]any with "html" and "value" for e-* properties.
type Item struct {
	Type       []string         `json:"type"`
	Properties map[string][]any `json:"properties"`
	Children   []*Item          `json:"children,omitempty"`
	// Value is the plain value of an item embedded as a property, eg its url.
	Value string `json:"value,omitempty"`
}

// Document is a parsed page: its root items and rel links.
type Document struct {
	Items []*Item             `json:"items"`
	Rels  map[string][]string `json:"rels,omitempty"`
}

// NewItem returns an empty item of the given types.
func NewItem(types ...string) *Item {
	return &Item{Type: types, Properties: make(map[string][]any)}
}

// HasType reports whether the item has any of the given types.
func (it *Item) HasType(types ...string) bool {
	if it == nil {
		return false
	}
	for _, have := range it.Type {
		for _, want := range types {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Add appends non-empty values to a property.
func (it *Item) Add(prop string, values ...any) {
	for _, v := range values {
		switch t := v.(type) {
		case nil:
			continue
		case string:
			if t == "" {
				continue
			}
		case *Item:
			if t == nil {
				continue
			}
		}
		it.Properties[prop] = append(it.Properties[prop], v)
	}
}

// First returns a property's first value as a string. Embedded items give
// their value, and e-* values their text.
func (it *Item) First(prop string) string {
	if it == nil {
		return ""
	}
	for _, v := range it.Properties[prop] {
		if s := stringValue(v); s != "" {
			return s
		}
	}
	return ""
}

// Strings returns all of a property's values as strings.
func (it *Item) Strings(prop string) []string {
	if it == nil {
		return nil
	}
	var out []string
	for _, v := range it.Properties[prop] {
		if s := stringValue(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Items returns the embedded items of a property.
func (it *Item) Items(prop string) []*Item {
	if it == nil {
		return nil
	}
	var out []*Item
	for _, v := range it.Properties[prop] {
		if sub, ok := v.(*Item); ok {
			out = append(out, sub)
		}
	}
	return out
}

// Content returns the first content value's HTML and whether it was markup
// rather than a plain string.
func (it *Item) Content() (value string, isHTML bool) {
	if it == nil {
		return "", false
	}
	for _, v := range it.Properties["content"] {
		switch t := v.(type) {
		case string:
			return t, false
		case map[string]any:
			if h, ok := t["html"].(string); ok {
				return h, true
			}
			if s, ok := t["value"].(string); ok {
				return s, false
			}
		}
	}
	return "", false
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case *Item:
		if t.Value != "" {
			return t.Value
		}
		if u := t.First("url"); u != "" {
			return u
		}
		return t.First("name")
	case map[string]any:
		if s, ok := t["value"].(string); ok {
			return s
		}
	}
	return ""
}

// itemFromMap converts a decoded JSON item, turning embedded items into
// *Item values. Anything without a type list is not an item.
func itemFromMap(m map[string]any) *Item {
	types, ok := m["type"].([]any)
	if !ok {
		return nil
	}
	it := NewItem()
	for _, t := range types {
		if s, ok := t.(string); ok {
			it.Type = append(it.Type, s)
		}
	}
	it.Value, _ = m["value"].(string)
	if props, ok := m["properties"].(map[string]any); ok {
		for name, vals := range props {
			list, ok := vals.([]any)
			if !ok {
				list = []any{vals}
			}
			for _, v := range list {
				if sub, ok := v.(map[string]any); ok {
					if _, isItem := sub["type"]; isItem {
						if child := itemFromMap(sub); child != nil {
							it.Properties[name] = append(it.Properties[name], child)
						}
						continue
					}
				}
				it.Properties[name] = append(it.Properties[name], v)
			}
		}
	}
	if children, ok := m["children"].([]any); ok {
		for _, c := range children {
			if cm, ok := c.(map[string]any); ok {
				if child := itemFromMap(cm); child != nil {
					it.Children = append(it.Children, child)
				}
			}
		}
	}
	return it
}

// rootType returns the first h-* type.
func (it *Item) rootType() string {
	for _, t := range it.Type {
		if strings.HasPrefix(t, "h-") {
			return t
		}
	}
	return ""
}
