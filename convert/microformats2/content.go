package microformats2

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/snarfed/activitystreams-unofficial/convert/as1"
	"github.com/snarfed/activitystreams-unofficial/convert/tags"
	"github.com/snarfed/activitystreams-unofficial/convert/textutil"
)

// tagClass marks inline tag links in rendered content.
const tagClass = "tag"

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "meta": true, "source": true,
	"track": true, "wbr": true,
}

// renderContent returns the object's content as HTML with inline tags
// linked, its plain text, and the tags that must be rendered separately.
func renderContent(o *as1.Object, path string, warnings *as1.Warnings) (htmlContent, text string, separate []*as1.Object) {
	inline, separate, w := tags.Split(o.Content, o.Tags)
	warnings.Extend(path, w)
	htmlContent = tags.Linkify(o.Content, inline, o.IsText(), inlineTag)
	if o.IsText() {
		text = o.Content
	} else {
		text = textutil.HTMLToText(o.Content)
	}
	return htmlContent, text, separate
}

func inlineTag(t *as1.Object, text string) string {
	var b strings.Builder
	b.WriteString(`<a class="` + tagClass + `"`)
	if t.ObjectType != "" {
		b.WriteString(` data-type="` + html.EscapeString(t.ObjectType) + `"`)
	}
	if t.URL != "" {
		b.WriteString(` href="` + html.EscapeString(t.URL) + `"`)
	}
	if t.DisplayName != "" {
		b.WriteString(` title="` + html.EscapeString(t.DisplayName) + `"`)
	}
	b.WriteString(">" + text + "</a>")
	return b.String()
}

// parseContent recovers content and inline tags from an e-content value.
// Content that is only text and tag links comes back as text; anything with
// other markup stays HTML.
func parseContent(value string, isHTML bool) (content, contentType string, inline []*as1.Object) {
	if !isHTML {
		return value, textType(value), nil
	}
	nodes, err := xhtml.ParseFragment(strings.NewReader(value),
		&xhtml.Node{Type: xhtml.ElementNode, Data: "div", DataAtom: atom.Div})
	if err != nil {
		return value, "", nil
	}

	var markup, text tags.Builder
	plain, found := true, false
	var walk func(n *xhtml.Node)
	walk = func(n *xhtml.Node) {
		switch n.Type {
		case xhtml.TextNode:
			markup.Text(textEscaper.Replace(n.Data))
			text.Text(n.Data)
		case xhtml.ElementNode:
			if isTagLink(n) {
				found = true
				s := nodeText(n)
				markup.Tag(linkTag(n, s), textEscaper.Replace(s))
				text.Tag(linkTag(n, s), s)
				return
			}
			plain = false
			markup.Text(startTag(n))
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
			if !voidElements[n.Data] {
				markup.Text("</" + n.Data + ">")
			}
		default:
			plain = false
		}
	}
	for _, n := range nodes {
		walk(n)
	}

	switch {
	case plain:
		return text.String(), textType(text.String()), text.Tags()
	case found:
		return markup.String(), "", markup.Tags()
	}
	return value, "", nil
}

// textType marks text that would be misread as HTML.
func textType(s string) string {
	if strings.ContainsAny(s, "<>&") {
		return as1.ContentText
	}
	return ""
}

func isTagLink(n *xhtml.Node) bool {
	if n.DataAtom != atom.A {
		return false
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		switch c {
		case tagClass, "mention", "hashtag":
			return true
		}
	}
	return false
}

func linkTag(n *xhtml.Node, text string) *as1.Object {
	t := &as1.Object{
		URL:         attr(n, "href"),
		ObjectType:  attr(n, "data-type"),
		DisplayName: attr(n, "title"),
	}
	classes := strings.Fields(attr(n, "class"))
	for _, c := range classes {
		if c == tagClass {
			return t
		}
	}
	// links from other sources, eg Mastodon's mention and hashtag classes
	for _, c := range classes {
		switch c {
		case "mention":
			t.ObjectType = as1.MentionType
		case "hashtag":
			t.ObjectType = as1.HashtagType
		}
	}
	if t.DisplayName == "" {
		t.DisplayName = text
	}
	return t
}

func attr(n *xhtml.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *xhtml.Node) string {
	if n.Type == xhtml.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}

func startTag(n *xhtml.Node) string {
	var b strings.Builder
	b.WriteString("<" + n.Data)
	for _, a := range n.Attr {
		key := a.Key
		if a.Namespace != "" {
			key = a.Namespace + ":" + key
		}
		b.WriteString(" " + key + `="` + html.EscapeString(a.Val) + `"`)
	}
	b.WriteString(">")
	return b.String()
}

// firstImage returns the src of the first <img> in an HTML fragment.
func firstImage(fragment string) string {
	if !strings.Contains(fragment, "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img[src]").First().Attr("src")
	return src
}

// embeddedImages returns the srcs of every <img> in an HTML fragment.
func embeddedImages(fragment string) map[string]bool {
	found := make(map[string]bool)
	if !strings.Contains(fragment, "<img") {
		return found
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return found
	}
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		found[src] = true
	})
	return found
}
