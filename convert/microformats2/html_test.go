package microformats2

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snarfed/activitystreams-unofficial/convert/as1"
)

func TestObjectToHTML_InlineTagIsExclusive(t *testing.T) {
	obj := &as1.Object{
		ObjectType: as1.NoteType,
		Content:    "foo bar baz",
		Tags: []*as1.Object{{
			ObjectType: as1.MentionType,
			URL:        "https://example.com/bar",
			StartIndex: as1.Int(4),
			Length:     as1.Int(3),
		}},
	}
	html, warnings, err := ObjectToHTML(obj)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Contains(t, html, `<div class="e-content">foo <a class="tag" data-type="mention" href="https://example.com/bar">bar</a> baz</div>`)
	assert.Equal(t, 1, strings.Count(html, "https://example.com/bar"))
	assert.NotContains(t, html, "p-category")
}

func TestObjectToHTML_Emoji(t *testing.T) {
	obj := &as1.Object{
		Content: "foo 😀 bar",
		Tags:    []*as1.Object{{URL: "https://example.com/bar", StartIndex: as1.Int(6), Length: as1.Int(3)}},
	}
	html, _, err := ObjectToHTML(obj)
	require.NoError(t, err)
	assert.Contains(t, html, `foo 😀 <a class="tag" href="https://example.com/bar">bar</a>`)
}

func TestHTML_RoundTrip(t *testing.T) {
	obj := &as1.Object{
		ObjectType: as1.NoteType,
		ID:         "tag:example.com,2024:1",
		URL:        "https://example.com/1",
		Published:  "2024-01-02T03:04:05Z",
		Content:    "hi @alice and #go folks",
		Author: &as1.Object{
			ObjectType:  as1.PersonType,
			DisplayName: "Bob",
			URL:         "https://example.com/bob",
		},
		Tags: []*as1.Object{
			{ObjectType: as1.MentionType, URL: "https://example.com/alice", StartIndex: as1.Int(3), Length: as1.Int(6)},
			{ObjectType: as1.HashtagType, URL: "https://example.com/tags/go", DisplayName: "#go", StartIndex: as1.Int(14), Length: as1.Int(3)},
			{ObjectType: as1.HashtagType, DisplayName: "indieweb"},
		},
	}
	html, _, err := ObjectToHTML(obj)
	require.NoError(t, err)

	objs, warnings, err := ParseHTML([]byte(html), ParseOptions{})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, objs, 1)
	if diff := cmp.Diff(obj, objs[0]); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestHTML_RoundTripTextContent(t *testing.T) {
	obj := &as1.Object{
		ObjectType:  as1.NoteType,
		Content:     "1 < 2 & @bob",
		ContentType: as1.ContentText,
		Tags:        []*as1.Object{{URL: "https://example.com/bob", StartIndex: as1.Int(8), Length: as1.Int(4)}},
	}
	html, _, err := ObjectToHTML(obj)
	require.NoError(t, err)
	assert.Contains(t, html, `1 &lt; 2 &amp; <a class="tag" href="https://example.com/bob">@bob</a>`)

	objs, _, err := ParseHTML([]byte(html), ParseOptions{})
	require.NoError(t, err)
	require.Len(t, objs, 1)
	if diff := cmp.Diff(obj, objs[0]); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestObjectToHTML_DedupesImages(t *testing.T) {
	const avatar = "https://example.com/alice.jpg"
	obj := &as1.Object{
		ObjectType: as1.NoteType,
		Content:    "pics",
		Author:     &as1.Object{ObjectType: as1.PersonType, DisplayName: "Alice", Image: &as1.MediaLink{URL: avatar}},
		Image:      &as1.MediaLink{URL: avatar},
		Attachments: []*as1.Object{
			{ObjectType: as1.ImageType, Image: &as1.MediaLink{URL: avatar}},
			{ObjectType: as1.ImageType, Image: &as1.MediaLink{URL: "https://example.com/cat.jpg"}},
			{ObjectType: as1.ImageType, URL: "https://example.com/cat.jpg"},
		},
	}
	html, _, err := ObjectToHTML(obj)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(html, avatar))
	assert.Equal(t, 1, strings.Count(html, "https://example.com/cat.jpg"))
}

func TestObjectToHTML_PhotoEmbeddedInContent(t *testing.T) {
	obj := &as1.Object{
		Content: `look <img src="https://example.com/cat.jpg">`,
	}
	html, _, err := ObjectToHTML(obj)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(html, "https://example.com/cat.jpg"))

	objs, _, err := ParseHTML([]byte(html), ParseOptions{})
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, &as1.MediaLink{URL: "https://example.com/cat.jpg"}, objs[0].Image)
}

func TestObjectToHTML_Card(t *testing.T) {
	html, _, err := ObjectToHTML(&as1.Object{
		ObjectType:  as1.PersonType,
		DisplayName: "Alice",
		URL:         "https://example.com/alice",
	})
	require.NoError(t, err)
	assert.Contains(t, html, `<div class="h-card">`)
	assert.Contains(t, html, `<a class="p-name u-url" href="https://example.com/alice">Alice</a>`)
}

func TestObjectToHTML_Like(t *testing.T) {
	html, _, err := ObjectToHTML(&as1.Object{
		Verb:   as1.LikeVerb,
		Actor:  &as1.Object{ObjectType: as1.PersonType, DisplayName: "Alice"},
		Object: &as1.Object{URL: "https://example.com/post"},
	})
	require.NoError(t, err)
	assert.Contains(t, html, `class="h-entry h-as-like"`)
	assert.Contains(t, html, `<a class="u-like-of" href="https://example.com/post"></a>`)

	objs, _, err := ParseHTML([]byte(html), ParseOptions{})
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, as1.LikeVerb, objs[0].Verb)
	assert.Equal(t, "Alice", objs[0].Actor.DisplayName)
	assert.Equal(t, "https://example.com/post", objs[0].Object.URL)
}

func TestRenderHTML_Document(t *testing.T) {
	b, _, err := RenderHTML([]*as1.Object{
		{Content: "one"},
		{ObjectType: as1.ArticleType, DisplayName: "Two", Content: "the second"},
	}, HTMLOptions{Title: "Posts & more"})
	require.NoError(t, err)
	html := string(b)
	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "<title>Posts &amp; more</title>")
	assert.Contains(t, html, `<h2 class="p-name">Two</h2>`)

	objs, warnings, err := ParseHTML(b, ParseOptions{})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, objs, 2)
	assert.Equal(t, as1.NoteType, objs[0].ObjectType)
	assert.Equal(t, "", objs[0].DisplayName)
	assert.Equal(t, as1.ArticleType, objs[1].ObjectType)
	assert.Equal(t, "Two", objs[1].DisplayName)
}

func TestParseHTML_IgnoresOtherRoots(t *testing.T) {
	const page = `<div class="h-feed">
		<div class="h-entry"><p class="e-content">inside a feed</p></div>
	</div>
	<div class="h-card"><a class="p-name u-url" href="https://example.com/">Me</a></div>`
	objs, warnings, err := ParseHTML([]byte(page), ParseOptions{})
	require.NoError(t, err)
	assert.Empty(t, objs)
	assert.Len(t, warnings, 2)
}

func TestParseHTML_Mastodon(t *testing.T) {
	const page = `<div class="h-entry">
		<div class="e-content"><p>hi <span class="h-card"><a href="https://m.example/@bob" class="u-url mention">@<span>bob</span></a></span></p></div>
	</div>`
	objs, _, err := ParseHTML([]byte(page), ParseOptions{})
	require.NoError(t, err)
	require.Len(t, objs, 1)
	o := objs[0]
	assert.Equal(t, `<p>hi <span class="h-card">@bob</span></p>`, o.Content)
	require.Len(t, o.Tags, 1)
	tag := o.Tags[0]
	assert.Equal(t, as1.MentionType, tag.ObjectType)
	assert.Equal(t, "@bob", tag.DisplayName)
	assert.True(t, tag.ValidOffsets(o.Content))
	runes := []rune(o.Content)
	assert.Equal(t, "@bob", string(runes[*tag.StartIndex:*tag.StartIndex+*tag.Length]))
}

func TestParseHTML_FetchAuthor(t *testing.T) {
	const page = `<html><head><link rel="author" href="/about"></head><body>
		<article class="h-entry"><div class="e-content">hello</div></article>
	</body></html>`
	const about = `<div class="h-card"><a class="p-name u-url" href="/about">Alice</a><img class="u-photo" src="/alice.jpg" alt=""></div>`

	var fetched []string
	fetch := func(url string) ([]byte, error) {
		fetched = append(fetched, url)
		return []byte(about), nil
	}
	objs, warnings, err := ParseHTML([]byte(page), ParseOptions{
		BaseURL:     "https://example.com/post",
		FetchAuthor: true,
		Fetch:       fetch,
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, []string{"https://example.com/about"}, fetched)
	require.Len(t, objs, 1)
	assert.Equal(t, &as1.Object{
		ObjectType:  as1.PersonType,
		DisplayName: "Alice",
		URL:         "https://example.com/about",
		Image:       &as1.MediaLink{URL: "https://example.com/alice.jpg"},
	}, objs[0].Author)
}

func TestParseHTML_FetchAuthorFails(t *testing.T) {
	const page = `<article class="h-entry">
		<a class="p-author h-card" href="https://example.com/alice"></a>
		<div class="e-content">hello</div>
	</article>`
	fetch := func(string) ([]byte, error) {
		return nil, errors.New("boom")
	}
	objs, warnings, err := ParseHTML([]byte(page), ParseOptions{FetchAuthor: true, Fetch: fetch})
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "https://example.com/alice", objs[0].Author.URL)
	require.Len(t, warnings, 1)
	assert.Equal(t, "items[0].author", warnings[0].Path)
	assert.Contains(t, warnings[0].Message, "boom")
}

func TestParseHTML_NoFetchWithoutOption(t *testing.T) {
	const page = `<article class="h-entry"><a class="p-author h-card" href="https://example.com/alice"></a></article>`
	fetch := func(string) ([]byte, error) {
		t.Fatal("unexpected fetch")
		return nil, nil
	}
	_, _, err := ParseHTML([]byte(page), ParseOptions{Fetch: fetch})
	require.NoError(t, err)
}
