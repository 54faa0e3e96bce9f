// Package atom converts between canonical activities and Atom feeds with the
// Activity Streams, threading, GeoRSS and OStatus extensions.
package atom

import (
	"encoding/xml"
	"strings"

	"github.com/snarfed/activitystreams-unofficial/convert/as1"
)

const (
	// ContentType is the Atom media type
	ContentType = "application/atom+xml"

	Namespace         = "http://www.w3.org/2005/Atom"
	ActivityNamespace = "http://activitystrea.ms/spec/1.0/"
	GeoRSSNamespace   = "http://www.georss.org/georss"
	OStatusNamespace  = "http://ostatus.org/schema/1.0"
	ThreadNamespace   = "http://purl.org/syndication/thread/1.0"

	// schemaPrefix qualifies activity:verb and activity:object-type values
	schemaPrefix = "http://activitystrea.ms/schema/1.0/"

	generatorName = "activitystreams-unofficial"
	generatorURI  = "https://github.com/snarfed/activitystreams-unofficial"
)

// Options configures rendering.
type Options struct {
	// Reader renders location into the content for feed readers. Otherwise
	// it's written as GeoRSS.
	Reader  bool
	Title   string
	FeedURL string
	HomeURL string
	// Actor is the feed's author.
	Actor *as1.Object
	// FetchAuthor resolves url-only entry authors to their h-card. It needs Fetch.
	FetchAuthor bool
	Fetch       as1.Fetcher
}

// DefaultOptions returns options for a reader-friendly feed.
func DefaultOptions() Options {
	return Options{Reader: true}
}

// namespaces declares the extension prefixes on a root element.
type namespaces struct {
	Xmlns         string `xml:"xmlns,attr,omitempty"`
	XmlnsActivity string `xml:"xmlns:activity,attr,omitempty"`
	XmlnsGeoRSS   string `xml:"xmlns:georss,attr,omitempty"`
	XmlnsOStatus  string `xml:"xmlns:ostatus,attr,omitempty"`
	XmlnsThr      string `xml:"xmlns:thr,attr,omitempty"`
}

func allNamespaces() namespaces {
	return namespaces{
		Xmlns:         Namespace,
		XmlnsActivity: ActivityNamespace,
		XmlnsGeoRSS:   GeoRSSNamespace,
		XmlnsOStatus:  OStatusNamespace,
		XmlnsThr:      ThreadNamespace,
	}
}

type feed struct {
	XMLName xml.Name `xml:"feed"`
	namespaces
	Generator generator `xml:"generator"`
	ID        string    `xml:"id"`
	Title     string    `xml:"title"`
	Subtitle  string    `xml:"subtitle,omitempty"`
	Logo      string    `xml:"logo,omitempty"`
	Updated   string    `xml:"updated,omitempty"`
	Author    *person   `xml:"author,omitempty"`
	Links     []link    `xml:"link"`
	Entries   []*entry  `xml:"entry"`
}

type generator struct {
	URI   string `xml:"uri,attr"`
	Value string `xml:",chardata"`
}

type entry struct {
	XMLName xml.Name `xml:"entry"`
	namespaces
	Author      *person         `xml:"author,omitempty"`
	ObjectType  string          `xml:"activity:object-type,omitempty"`
	ID          string          `xml:"id"`
	Title       string          `xml:"title"`
	Summary     string          `xml:"summary,omitempty"`
	Content     *content        `xml:"content,omitempty"`
	Links       []link          `xml:"link"`
	Verb        string          `xml:"activity:verb,omitempty"`
	Object      *activityObject `xml:"activity:object,omitempty"`
	Published   string          `xml:"published,omitempty"`
	Updated     string          `xml:"updated,omitempty"`
	InReplyTo   []inReplyTo     `xml:"thr:in-reply-to"`
	Point       string          `xml:"georss:point,omitempty"`
	FeatureName string          `xml:"georss:featureName,omitempty"`
	Categories  []category      `xml:"category"`
}

type person struct {
	ObjectType string `xml:"activity:object-type,omitempty"`
	URI        string `xml:"uri,omitempty"`
	Name       string `xml:"name,omitempty"`
	Email      string `xml:"email,omitempty"`
}

type content struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type link struct {
	Rel        string `xml:"rel,attr,omitempty"`
	Type       string `xml:"type,attr,omitempty"`
	Href       string `xml:"href,attr"`
	Title      string `xml:"title,attr,omitempty"`
	ObjectType string `xml:"ostatus:object-type,attr,omitempty"`
}

type inReplyTo struct {
	Ref  string `xml:"ref,attr"`
	Href string `xml:"href,attr,omitempty"`
}

type category struct {
	Term string `xml:"term,attr"`
}

// activityObject is the object of a non-post activity, eg the shared post.
type activityObject struct {
	ObjectType string   `xml:"activity:object-type,omitempty"`
	ID         string   `xml:"id,omitempty"`
	Title      string   `xml:"title,omitempty"`
	Content    *content `xml:"content,omitempty"`
	Links      []link   `xml:"link"`
	Author     *person  `xml:"author,omitempty"`
}

func qualify(value string) string {
	if value == "" {
		return ""
	}
	return schemaPrefix + value
}

// unqualify strips the schema prefix from verb and object type values.
// Bare values are accepted too.
func unqualify(value string) string {
	value = strings.TrimSpace(value)
	for _, prefix := range []string{schemaPrefix, "http://activitystrea.ms/schema/1.0", "http://ostatus.org/schema/1.0/"} {
		value = strings.TrimPrefix(value, prefix)
	}
	return strings.Trim(value, "/")
}
