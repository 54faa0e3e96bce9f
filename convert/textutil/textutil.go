// Package textutil has small text helpers shared by the converters:
// stripping HTML, collapsing whitespace and deriving implied names.
package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// NameLength is the rune limit for names implied from content.
const NameLength = 60

// Ellipsis marks truncated text.
const Ellipsis = "…"

// HTMLToText returns the text content of an HTML fragment with whitespace
// collapsed. Input that doesn't parse is returned with whitespace collapsed.
func HTMLToText(html string) string {
	if !strings.ContainsAny(html, "<&") {
		return CollapseSpace(html)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return CollapseSpace(html)
	}
	doc.Find("br").ReplaceWithHtml(" ")
	return CollapseSpace(doc.Text())
}

// CollapseSpace trims s and replaces each run of whitespace with one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// Ellipsize truncates s to at most n runes, preferring a word boundary, and
// appends an ellipsis when anything was cut.
func Ellipsize(s string, n int) string {
	s = CollapseSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	cut := runes[:n-1]
	if i := lastSpace(cut); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimRightFunc(string(cut), unicode.IsSpace) + Ellipsis
}

// ImpliedName derives a name from content: its first line, ellipsized.
func ImpliedName(content string) string {
	text := strings.TrimSpace(content)
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		text = text[:i]
	}
	return Ellipsize(text, NameLength)
}

// IsImpliedName reports whether name adds nothing over content: it's empty,
// equal to content, or a truncation of it, modulo whitespace and a trailing
// ellipsis.
func IsImpliedName(name, content string) bool {
	name = CollapseSpace(name)
	content = CollapseSpace(content)
	if name == "" || name == content {
		return true
	}
	for _, suffix := range []string{Ellipsis, "..."} {
		name = strings.TrimSuffix(name, suffix)
	}
	name = strings.TrimSpace(name)
	return name != "" && strings.HasPrefix(content, name)
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return -1
}
