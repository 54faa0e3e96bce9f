// Package tags maps inline text spans in content to tag objects and back.
//
// Offsets are counted in runes (Unicode code points), so a span can never
// split a multi-byte character such as an emoji. Offsets are authoritative:
// content is sliced at them, never searched.
package tags

import (
	"html"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/snarfed/activitystreams-unofficial/convert/as1"
)

// RenderFunc renders one inline tag around text, which has already been
// escaped when the content is plain text.
type RenderFunc func(tag *as1.Object, text string) string

// Split partitions tags into inline tags, which have valid offsets into
// content, and separate tags, which have no offsets. The two sets are
// disjoint: an inline tag must only be rendered inline.
//
// Inline tags are sorted by start offset. Tags are de-duplicated by id.
// Tags with malformed or out of range offsets are skipped with a warning,
// and when spans overlap the earliest one wins.
func Split(content string, tags []*as1.Object) (inline, separate []*as1.Object, warnings as1.Warnings) {
	// inline candidates with their index in tags
	type candidate struct {
		tag   *as1.Object
		index int
	}
	var candidates []candidate

	seen := make(map[string]bool)
	for i, t := range tags {
		path := as1.Index(as1.TagsProperty, i)
		if t == nil {
			warnings.Add(path, "skipping empty tag")
			continue
		}
		if t.ID != "" {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
		}
		switch {
		case t.StartIndex == nil && t.Length == nil:
			separate = append(separate, t)
		case !t.ValidOffsets(content):
			warnings.Add(path, "skipping tag with invalid offsets")
		default:
			candidates = append(candidates, candidate{t, i})
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return *candidates[a].tag.StartIndex < *candidates[b].tag.StartIndex
	})

	end := 0
	for _, c := range candidates {
		start := *c.tag.StartIndex
		if start < end {
			warnings.Add(as1.Index(as1.TagsProperty, c.index), "skipping tag at %d, it overlaps an earlier tag", start)
			continue
		}
		inline = append(inline, c.tag)
		end = start + *c.tag.Length
	}
	return inline, separate, warnings
}

// Linkify returns content with each inline tag's span wrapped by render.
// inline must come from Split. When escapeText is true, content is plain
// text and every segment is HTML escaped.
func Linkify(content string, inline []*as1.Object, escapeText bool, render RenderFunc) string {
	if render == nil {
		render = Link
	}
	esc := func(s string) string {
		if escapeText {
			return html.EscapeString(s)
		}
		return s
	}
	if len(inline) == 0 {
		return esc(content)
	}

	runes := []rune(content)
	var b strings.Builder
	last := 0
	for _, t := range inline {
		start, end := *t.StartIndex, *t.StartIndex+*t.Length
		if start < last || end > len(runes) {
			continue
		}
		b.WriteString(esc(string(runes[last:start])))
		b.WriteString(render(t, esc(string(runes[start:end]))))
		last = end
	}
	b.WriteString(esc(string(runes[last:])))
	return b.String()
}

// Link is the default RenderFunc: a plain link to the tag's url.
func Link(tag *as1.Object, text string) string {
	if tag.URL == "" {
		return text
	}
	return `<a href="` + html.EscapeString(tag.URL) + `">` + text + `</a>`
}

// Builder reassembles content from text runs and linked spans, recording
// each link as a tag with rune offsets. It's the inverse of Linkify.
type Builder struct {
	b    strings.Builder
	n    int
	tags []*as1.Object
}

// Text appends plain text.
func (b *Builder) Text(s string) {
	b.b.WriteString(s)
	b.n += utf8.RuneCountInString(s)
}

// Tag appends text covered by tag and records the tag's offsets.
func (b *Builder) Tag(tag *as1.Object, text string) {
	tag.StartIndex = as1.Int(b.n)
	tag.Length = as1.Int(utf8.RuneCountInString(text))
	b.Text(text)
	b.tags = append(b.tags, tag)
}

// Len returns the content length so far, in runes.
func (b *Builder) Len() int {
	return b.n
}

// String returns the content so far.
func (b *Builder) String() string {
	return b.b.String()
}

// Tags returns the recorded tags in order.
func (b *Builder) Tags() []*as1.Object {
	return b.tags
}
