package convert

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/snarfed/activitystreams-unofficial/convert/as1"
)

// Response is the canonical activity stream envelope around a list of
// objects.
type Response struct {
	StartIndex   int              `json:"startIndex"`
	ItemsPerPage int              `json:"itemsPerPage"`
	TotalResults int              `json:"totalResults"`
	Items        []map[string]any `json:"items"`
	Filtered     bool             `json:"filtered"`
	Sorted       bool             `json:"sorted"`
	UpdatedSince bool             `json:"updatedSince"`
	Updated      string           `json:"updated,omitempty"`
}

// NewResponse wraps objects in an envelope. Updated is the latest
// updated or published time among them.
func NewResponse(objs []*as1.Object) Response {
	r := Response{Items: make([]map[string]any, 0, len(objs))}
	var latest time.Time
	for _, o := range objs {
		if o == nil {
			continue
		}
		r.Items = append(r.Items, o.ToMap())
		for _, s := range []string{o.Updated, o.Published} {
			if t, err := time.Parse(as1.TimeFormat, s); err == nil && t.After(latest) {
				latest = t
			}
		}
	}
	r.ItemsPerPage = len(r.Items)
	r.TotalResults = len(r.Items)
	if !latest.IsZero() {
		r.Updated = latest.UTC().Format(as1.TimeFormat)
	}
	return r
}

func renderJSON(objs []*as1.Object) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewResponse(objs)); err != nil {
		return nil, fmt.Errorf("encoding canonical json: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// parseJSON accepts either an envelope with items or a single object.
func parseJSON(b []byte) ([]*as1.Object, as1.Warnings, error) {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, nil, fmt.Errorf("decoding canonical json: %w", err)
	}

	items, ok := envelopeItems(v)
	if !ok {
		o, err := as1.FromValue(v)
		if err != nil {
			return nil, nil, err
		}
		return []*as1.Object{o}, nil, nil
	}

	var warnings as1.Warnings
	objs := make([]*as1.Object, 0, len(items))
	for i, item := range items {
		o, err := as1.FromValue(item)
		if err != nil {
			warnings.Add(as1.Index("items", i), "skipped: expected an object")
			continue
		}
		objs = append(objs, o)
	}
	return objs, warnings, nil
}

func envelopeItems(v any) ([]any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	if _, typed := m[as1.ObjectTypeProperty]; typed {
		return nil, false
	}
	if _, verb := m[as1.VerbProperty]; verb {
		return nil, false
	}
	items, ok := m["items"].([]any)
	return items, ok
}

// renderXML writes the envelope as <response>. Lists repeat their
// element, eg one <items> per object.
func renderXML(objs []*as1.Object) ([]byte, error) {
	r := NewResponse(objs)
	fields := map[string]any{
		"startIndex":   r.StartIndex,
		"itemsPerPage": r.ItemsPerPage,
		"totalResults": r.TotalResults,
		"filtered":     r.Filtered,
		"sorted":       r.Sorted,
		"updatedSince": r.UpdatedSince,
	}
	if r.Updated != "" {
		fields["updated"] = r.Updated
	}
	items := make([]any, len(r.Items))
	for i, item := range r.Items {
		items[i] = item
	}
	fields["items"] = items

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := writeXML(enc, "response", fields); err != nil {
		return nil, fmt.Errorf("encoding canonical xml: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("encoding canonical xml: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func writeXML(enc *xml.Encoder, name string, v any) error {
	if list, ok := v.([]any); ok {
		for _, elem := range list {
			if err := writeXML(enc, name, elem); err != nil {
				return err
			}
		}
		return nil
	}

	start := xml.StartElement{Name: xml.Name{Local: xmlName(name)}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := writeXML(enc, k, val[k]); err != nil {
				return err
			}
		}
	case nil:
	default:
		if err := enc.EncodeToken(xml.CharData(scalar(val))); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

func scalar(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// xmlName replaces characters that can't appear in an element name, eg
// "@context" becomes "_context".
func xmlName(key string) string {
	if key == "" {
		return "_"
	}
	b := []byte(key)
	for i, c := range b {
		letter := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
		other := c >= '0' && c <= '9' || c == '-' || c == '.'
		if !letter && (i == 0 || !other) {
			b[i] = '_'
		}
	}
	return string(b)
}
