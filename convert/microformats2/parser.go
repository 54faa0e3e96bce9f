package microformats2

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Parse extracts the microformats2 items and rel links from an HTML
// document. Relative urls are resolved against base, or the document's
// <base href>, when either is an absolute url.
//
// It covers the parts of the parsing rules the converters use: p-, u-, dt-
// and e- properties, nested items and implied h-card properties. Value class
// patterns aren't supported.
func Parse(r io.Reader, base string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	p := &parser{}
	if base != "" {
		p.base, _ = url.Parse(base)
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		p.base = p.resolveURL(href)
	}

	d := &Document{Items: []*Item{}, Rels: make(map[string][]string)}
	p.roots(doc.Selection, &d.Items)
	doc.Find("a[rel][href], link[rel][href]").Each(func(_ int, s *goquery.Selection) {
		href := p.resolve(s.AttrOr("href", ""))
		for _, rel := range strings.Fields(s.AttrOr("rel", "")) {
			if !contains(d.Rels[rel], href) {
				d.Rels[rel] = append(d.Rels[rel], href)
			}
		}
	})
	return d, nil
}

type parser struct {
	base *url.URL
}

// found records which kinds of properties an item has, for the implied
// property rules.
type found struct {
	p, u, e, nested bool
}

func (p *parser) roots(s *goquery.Selection, out *[]*Item) {
	s.Children().Each(func(_ int, c *goquery.Selection) {
		if len(rootClasses(c)) > 0 {
			*out = append(*out, p.item(c))
			return
		}
		p.roots(c, out)
	})
}

func (p *parser) item(s *goquery.Selection) *Item {
	it := NewItem(rootClasses(s)...)
	var f found
	p.properties(s, it, &f)
	if it.HasType("h-card") {
		p.implied(s, it, f)
	}
	return it
}

func (p *parser) properties(s *goquery.Selection, it *Item, f *found) {
	s.Children().Each(func(_ int, c *goquery.Selection) {
		props := propertyClasses(c)
		if len(rootClasses(c)) > 0 {
			f.nested = true
			sub := p.item(c)
			if len(props) == 0 {
				it.Children = append(it.Children, sub)
				return
			}
			sub.Value = sub.First("url")
			if sub.Value == "" {
				sub.Value = sub.First("name")
			}
			for _, prop := range props {
				it.Properties[prop.name] = append(it.Properties[prop.name], sub)
			}
			return
		}
		for _, prop := range props {
			switch prop.prefix {
			case "p":
				f.p = true
			case "u":
				f.u = true
			case "e":
				f.e = true
			}
			it.Properties[prop.name] = append(it.Properties[prop.name], p.value(c, prop.prefix))
		}
		p.properties(c, it, f)
	})
}

func (p *parser) value(s *goquery.Selection, prefix string) any {
	tag := goquery.NodeName(s)
	switch prefix {
	case "u":
		for _, a := range urlAttrs[tag] {
			if v, ok := s.Attr(a); ok {
				return p.resolve(v)
			}
		}
	case "dt":
		switch tag {
		case "time", "ins", "del":
			if v, ok := s.Attr("datetime"); ok {
				return v
			}
		case "abbr":
			if v, ok := s.Attr("title"); ok {
				return v
			}
		}
	case "e":
		inner, _ := s.Html()
		return map[string]any{
			"html":  strings.TrimSpace(inner),
			"value": strings.TrimSpace(s.Text()),
		}
	case "p":
		switch tag {
		case "img", "area":
			if v, ok := s.Attr("alt"); ok {
				return v
			}
		case "abbr", "link":
			if v, ok := s.Attr("title"); ok {
				return v
			}
		}
	}
	switch tag {
	case "data", "input":
		if v, ok := s.Attr("value"); ok {
			return v
		}
	}
	return strings.TrimSpace(s.Text())
}

var urlAttrs = map[string][]string{
	"a":      {"href"},
	"area":   {"href"},
	"link":   {"href"},
	"img":    {"src"},
	"audio":  {"src"},
	"video":  {"src", "poster"},
	"source": {"src"},
	"iframe": {"src"},
	"object": {"data"},
}

// implied fills in name, photo and url for an h-card that doesn't have them.
func (p *parser) implied(s *goquery.Selection, it *Item, f found) {
	if len(it.Properties["name"]) == 0 && !f.p && !f.e && !f.nested {
		var name string
		switch goquery.NodeName(s) {
		case "img", "area":
			name = s.AttrOr("alt", "")
		case "abbr":
			name = s.AttrOr("title", "")
		default:
			name = strings.TrimSpace(s.Text())
		}
		it.Add("name", name)
	}
	if len(it.Properties["photo"]) == 0 && !f.u && !f.nested {
		if src := p.impliedAttr(s, "img", "src"); src != "" {
			it.Add("photo", src)
		}
	}
	if len(it.Properties["url"]) == 0 && !f.u && !f.nested {
		if href := p.impliedAttr(s, "a", "href"); href != "" {
			it.Add("url", href)
		}
	}
}

// impliedAttr reads attr from s itself, or from its only child, if that
// element is a tag and not an item itself.
func (p *parser) impliedAttr(s *goquery.Selection, tag, attr string) string {
	if goquery.NodeName(s) == tag {
		return p.resolve(s.AttrOr(attr, ""))
	}
	children := s.Children()
	if children.Length() == 1 && goquery.NodeName(children) == tag && len(rootClasses(children)) == 0 {
		return p.resolve(children.AttrOr(attr, ""))
	}
	return ""
}

func (p *parser) resolveURL(ref string) *url.URL {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return p.base
	}
	if p.base != nil {
		u = p.base.ResolveReference(u)
	}
	if !u.IsAbs() {
		return p.base
	}
	return u
}

func (p *parser) resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || p.base == nil || !p.base.IsAbs() {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return p.base.ResolveReference(u).String()
}

type property struct {
	prefix, name string
}

func rootClasses(s *goquery.Selection) []string {
	var types []string
	for _, c := range strings.Fields(s.AttrOr("class", "")) {
		if strings.HasPrefix(c, "h-") && len(c) > 2 && !contains(types, c) {
			types = append(types, c)
		}
	}
	return types
}

func propertyClasses(s *goquery.Selection) []property {
	var props []property
	for _, c := range strings.Fields(s.AttrOr("class", "")) {
		for _, prefix := range []string{"p", "u", "dt", "e"} {
			if name := strings.TrimPrefix(c, prefix+"-"); name != c && name != "" {
				props = append(props, property{prefix: prefix, name: name})
				break
			}
		}
	}
	return props
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
