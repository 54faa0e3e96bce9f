package atom

import (
	"encoding/xml"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snarfed/activitystreams-unofficial/convert/as1"
)

func testNote() *as1.Object {
	return &as1.Object{
		ObjectType:  as1.NoteType,
		ID:          "tag:example.com,2024:1",
		URL:         "https://example.com/1",
		Content:     "hi @bob #go",
		ContentType: as1.ContentText,
		Published:   "2024-01-02T03:04:05Z",
		Author: &as1.Object{
			DisplayName: "Alice",
			URL:         "https://example.com/?a=1&b=2",
			Email:       "alice@example.com",
		},
		Tags: []*as1.Object{
			{ObjectType: as1.MentionType, URL: "https://example.com/bob", StartIndex: as1.Int(3), Length: as1.Int(4)},
			{ObjectType: as1.HashtagType, DisplayName: "#go"},
			{ObjectType: as1.MentionType, URL: "https://example.com/carol"},
		},
		Image:     &as1.MediaLink{URL: "https://example.com/cat.jpg"},
		InReplyTo: []*as1.Object{{URL: "https://example.com/0"}},
	}
}

func TestRender_Note(t *testing.T) {
	b, warnings, err := Render([]*as1.Object{testNote()}, Options{
		Reader:  true,
		Title:   "Alice's posts",
		FeedURL: "https://example.com/feed",
		HomeURL: "https://example.com/",
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	out := string(b)
	assert.True(t, strings.HasPrefix(out, xml.Header))
	assert.Contains(t, out, `xmlns="http://www.w3.org/2005/Atom"`)
	assert.Contains(t, out, `xmlns:thr="http://purl.org/syndication/thread/1.0"`)
	assert.Contains(t, out, `<id>https://example.com/feed</id>`)
	assert.Contains(t, out, `<link rel="self" type="application/atom+xml" href="https://example.com/feed"></link>`)
	assert.Contains(t, out, `<updated>2024-01-02T03:04:05Z</updated>`)
	assert.Contains(t, out, `<uri>https://example.com/?a=1&amp;b=2</uri>`)
	assert.Contains(t, out, `<email>alice@example.com</email>`)
	assert.Contains(t, out, `<activity:object-type>http://activitystrea.ms/schema/1.0/note</activity:object-type>`)
	assert.NotContains(t, out, "activity:verb")
	assert.Contains(t, out, `<thr:in-reply-to ref="https://example.com/0" href="https://example.com/0"></thr:in-reply-to>`)
	assert.Contains(t, out, `<link rel="mentioned" href="https://example.com/carol" ostatus:object-type="http://activitystrea.ms/schema/1.0/mention"></link>`)
	assert.Equal(t, 1, strings.Count(out, "https://example.com/bob"))
	assert.Contains(t, out, `<category term="go"></category>`)
	assert.Equal(t, 1, strings.Count(out, "<category"))
}

func TestRender_ParseRoundTrip(t *testing.T) {
	b, _, err := Render([]*as1.Object{testNote()}, DefaultOptions())
	require.NoError(t, err)

	objs, warnings, err := Parse(b)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, objs, 1)

	got := objs[0]
	assert.Equal(t, "tag:example.com,2024:1", got.ID)
	assert.Equal(t, "https://example.com/1", got.URL)
	assert.Equal(t, as1.NoteType, got.ObjectType)
	assert.Empty(t, got.DisplayName)
	assert.Equal(t, "2024-01-02T03:04:05Z", got.Published)
	assert.Contains(t, got.Content, `hi <a href="https://example.com/bob">@bob</a> #go`)
	assert.Contains(t, got.Content, `<img src="https://example.com/cat.jpg" />`)

	require.NotNil(t, got.Author)
	assert.Equal(t, "Alice", got.Author.DisplayName)
	assert.Equal(t, "https://example.com/?a=1&b=2", got.Author.URL)
	assert.Equal(t, "alice@example.com", got.Author.Email)

	if diff := cmp.Diff([]*as1.Object{{ID: "https://example.com/0", URL: "https://example.com/0"}}, got.InReplyTo); diff != "" {
		t.Errorf("in-reply-to mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]*as1.Object{
		{ObjectType: as1.MentionType, URL: "https://example.com/carol"},
		{ObjectType: as1.HashtagType, DisplayName: "go"},
	}, got.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderEntry_Share(t *testing.T) {
	share := &as1.Object{
		Verb:  as1.ShareVerb,
		ID:    "tag:example.com,2024:share",
		Actor: &as1.Object{DisplayName: "Alice", URL: "https://alice.example/"},
		Object: &as1.Object{
			ObjectType: as1.NoteType,
			ID:         "https://bob.example/1",
			URL:        "https://bob.example/1",
			Content:    "original <b>post</b>",
			Author:     &as1.Object{DisplayName: "Bob"},
		},
	}
	b, warnings, err := RenderEntry(share, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, warnings)

	out := string(b)
	assert.Contains(t, out, `<entry xmlns="http://www.w3.org/2005/Atom"`)
	assert.Contains(t, out, `<activity:verb>http://activitystrea.ms/schema/1.0/share</activity:verb>`)
	assert.Contains(t, out, `<activity:object>`)
	assert.Contains(t, out, `<title>original post</title>`)

	objs, warnings, err := Parse(b)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, objs, 1)

	got := objs[0]
	assert.Equal(t, as1.ShareVerb, got.Verb)
	assert.Equal(t, "tag:example.com,2024:share", got.ID)
	require.NotNil(t, got.Actor)
	assert.Equal(t, "Alice", got.Actor.DisplayName)
	require.NotNil(t, got.Object)
	assert.Equal(t, "https://bob.example/1", got.Object.ID)
	assert.Equal(t, "https://bob.example/1", got.Object.URL)
	assert.Equal(t, as1.NoteType, got.Object.ObjectType)
	assert.Equal(t, "original <b>post</b>", got.Object.Content)
	require.NotNil(t, got.Object.Author)
	assert.Equal(t, "Bob", got.Object.Author.DisplayName)
}

func TestRender_Location(t *testing.T) {
	checkin := &as1.Object{
		ObjectType: as1.NoteType,
		ID:         "tag:example.com,2024:checkin",
		Content:    "coffee time",
		Location: &as1.Object{
			DisplayName: "Cafe",
			URL:         "https://cafe.example/",
			Latitude:    as1.Float(37.5),
			Longitude:   as1.Float(-122.25),
		},
	}

	reader, _, err := RenderEntry(checkin, Options{Reader: true})
	require.NoError(t, err)
	assert.NotContains(t, string(reader), "georss:point")
	objs, _, err := Parse(reader)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Contains(t, objs[0].Content, `<p class="location"><a href="https://cafe.example/">Cafe</a></p>`)
	assert.Nil(t, objs[0].Location)

	geo, _, err := RenderEntry(checkin, Options{})
	require.NoError(t, err)
	assert.Contains(t, string(geo), `<georss:point>37.5 -122.25</georss:point>`)
	assert.Contains(t, string(geo), `<georss:featureName>Cafe</georss:featureName>`)
	objs, _, err = Parse(geo)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "coffee time", objs[0].Content)
	if diff := cmp.Diff(&as1.Object{
		ObjectType:  as1.PlaceType,
		DisplayName: "Cafe",
		Latitude:    as1.Float(37.5),
		Longitude:   as1.Float(-122.25),
	}, objs[0].Location); diff != "" {
		t.Errorf("location mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_FeedIDWithoutURL(t *testing.T) {
	objs := []*as1.Object{testNote()}
	first, _, err := Render(objs, Options{Title: "posts"})
	require.NoError(t, err)
	second, _, err := Render(objs, Options{Title: "posts"})
	require.NoError(t, err)

	assert.Contains(t, string(first), "<id>urn:uuid:")
	assert.Equal(t, string(first), string(second))

	other, _, err := Render(objs, Options{Title: "other posts"})
	require.NoError(t, err)
	assert.NotEqual(t, string(first), string(other))
}

func TestRender_Enclosures(t *testing.T) {
	podcast := &as1.Object{
		ObjectType: as1.NoteType,
		ID:         "tag:example.com,2024:ep1",
		Content:    "episode one",
		Stream:     &as1.MediaLink{URL: "https://example.com/ep1.mp3", MimeType: "audio/mpeg"},
		Attachments: []*as1.Object{
			{ObjectType: as1.VideoType, Stream: &as1.MediaLink{URL: "https://example.com/ep1.mp4", MimeType: "video/mp4"}},
			{ObjectType: as1.AudioType, Stream: &as1.MediaLink{URL: "https://example.com/ep1.mp3", MimeType: "audio/mpeg"}},
			{ObjectType: as1.ArticleType, URL: "https://example.com/notes"},
		},
	}
	b, _, err := RenderEntry(podcast, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(b), `rel="enclosure"`))

	objs, _, err := Parse(b)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	if diff := cmp.Diff([]*as1.Object{
		{ObjectType: as1.AudioType, Stream: &as1.MediaLink{URL: "https://example.com/ep1.mp3", MimeType: "audio/mpeg"}},
		{ObjectType: as1.VideoType, Stream: &as1.MediaLink{URL: "https://example.com/ep1.mp4", MimeType: "video/mp4"}},
	}, objs[0].Attachments); diff != "" {
		t.Errorf("attachments mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_ImagesNotRepeated(t *testing.T) {
	post := &as1.Object{
		ObjectType: as1.NoteType,
		ID:         "tag:example.com,2024:pics",
		Content:    `<p>look <img src="https://example.com/a.jpg"></p>`,
		Image:      &as1.MediaLink{URL: "https://example.com/a.jpg"},
		Author:     &as1.Object{DisplayName: "Alice", Image: &as1.MediaLink{URL: "https://example.com/alice.jpg"}},
		Attachments: []*as1.Object{
			{ObjectType: as1.ImageType, Image: &as1.MediaLink{URL: "https://example.com/b.jpg"}},
			{ObjectType: as1.ImageType, Image: &as1.MediaLink{URL: "https://example.com/alice.jpg"}},
		},
	}
	b, _, err := RenderEntry(post, DefaultOptions())
	require.NoError(t, err)
	objs, _, err := Parse(b)
	require.NoError(t, err)
	require.Len(t, objs, 1)

	assert.Equal(t, 1, strings.Count(objs[0].Content, "a.jpg"))
	assert.Equal(t, 1, strings.Count(objs[0].Content, "b.jpg"))
	assert.NotContains(t, objs[0].Content, "alice.jpg")
}

func TestRender_FetchAuthor(t *testing.T) {
	note := &as1.Object{ObjectType: as1.NoteType, ID: "x", Content: "hi", Author: &as1.Object{URL: "https://alice.example/"}}
	fetch := func(url string) ([]byte, error) {
		assert.Equal(t, "https://alice.example/", url)
		return []byte(`<div class="h-card"><a class="u-url p-name" href="https://alice.example/">Alice Smith</a></div>`), nil
	}
	b, warnings, err := Render([]*as1.Object{note}, Options{FetchAuthor: true, Fetch: fetch})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Contains(t, string(b), "<name>Alice Smith</name>")

	failing := func(string) ([]byte, error) { return nil, errors.New("boom") }
	b, warnings, err = Render([]*as1.Object{note}, Options{FetchAuthor: true, Fetch: failing})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "items[0].author", warnings[0].Path)
	assert.Contains(t, warnings[0].Message, "boom")
	assert.Contains(t, string(b), "<uri>https://alice.example/</uri>")
}

func TestParse_LikeWithInReplyTo(t *testing.T) {
	const like = `<?xml version="1.0" encoding="UTF-8"?>
<entry xmlns="http://www.w3.org/2005/Atom" xmlns:activity="http://activitystrea.ms/spec/1.0/" xmlns:thr="http://purl.org/syndication/thread/1.0">
  <id>tag:example.com,2024:like</id>
  <title>Alice likes this</title>
  <author><name>Alice</name><uri>https://alice.example/</uri></author>
  <activity:verb>http://activitystrea.ms/schema/1.0/like</activity:verb>
  <thr:in-reply-to ref="tag:bob.example,2024:1" href="https://bob.example/1"/>
  <updated>2024-01-02T03:04:05Z</updated>
</entry>`
	objs, warnings, err := Parse([]byte(like))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, objs, 1)

	want := &as1.Object{
		ID:          "tag:example.com,2024:like",
		Verb:        as1.LikeVerb,
		DisplayName: "Alice likes this",
		Updated:     "2024-01-02T03:04:05Z",
		Actor:       &as1.Object{ObjectType: as1.PersonType, DisplayName: "Alice", URL: "https://alice.example/"},
		Object:      &as1.Object{ID: "tag:bob.example,2024:1", URL: "https://bob.example/1"},
		InReplyTo:   []*as1.Object{{ID: "tag:bob.example,2024:1", URL: "https://bob.example/1"}},
	}
	if diff := cmp.Diff(want, objs[0]); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_FeedAuthorFallback(t *testing.T) {
	const doc = `<feed xmlns="http://www.w3.org/2005/Atom">
  <title>posts</title>
  <author><name>Alice</name></author>
  <entry><id>1</id><title>First post title</title><content type="html">&lt;p&gt;body&lt;/p&gt;</content></entry>
  <entry><id>2</id><author><name>Bob</name></author><content type="text">just text</content></entry>
</feed>`
	objs, _, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, objs, 2)

	assert.Equal(t, as1.ArticleType, objs[0].ObjectType)
	assert.Equal(t, "First post title", objs[0].DisplayName)
	assert.Equal(t, "Alice", objs[0].Author.DisplayName)

	assert.Equal(t, as1.NoteType, objs[1].ObjectType)
	assert.Equal(t, as1.ContentText, objs[1].ContentType)
	assert.Equal(t, "Bob", objs[1].Author.DisplayName)
}

func TestParse_Errors(t *testing.T) {
	_, _, err := Parse([]byte(`<rss version="2.0"><channel></channel></rss>`))
	var shapeErr *as1.ShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, "$", shapeErr.Path)
	assert.ErrorIs(t, err, as1.ErrShape)

	_, _, err = Parse([]byte("not xml at all"))
	assert.Error(t, err)
}

func TestRenderEntry_InlineMentionOnlyInContent(t *testing.T) {
	note := &as1.Object{
		ObjectType:  as1.NoteType,
		ID:          "tag:example.com,2024:2",
		Content:     "foo bar baz",
		ContentType: as1.ContentText,
		Tags: []*as1.Object{
			{ObjectType: as1.MentionType, URL: "https://bar.example/", StartIndex: as1.Int(4), Length: as1.Int(3)},
		},
	}
	b, warnings, err := RenderEntry(note, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, warnings)

	out := string(b)
	assert.Equal(t, 1, strings.Count(out, "https://bar.example/"))
	assert.NotContains(t, out, `rel="mentioned"`)
	assert.Contains(t, out, `&lt;a href=&#34;https://bar.example/&#34;&gt;bar&lt;/a&gt;`)
}
