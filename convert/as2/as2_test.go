package as2

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snarfed/activitystreams-unofficial/convert/as1"
)

func roundTrip(t *testing.T, o *as1.Object) *as1.Object {
	t.Helper()
	b, err := Render([]*as1.Object{o})
	require.NoError(t, err)
	objs, warnings, err := Parse(b)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, objs, 1)
	return objs[0]
}

func TestRoundTrip(t *testing.T) {
	tests := map[string]*as1.Object{
		"note": {
			ObjectType:  as1.NoteType,
			ID:          "tag:example.com,2024:1",
			Content:     "hello <b>world</b>",
			ContentType: as1.ContentHTML,
			Published:   "2024-01-02T03:04:05Z",
			URL:         "https://example.com/1",
		},
		"like": {
			Verb: as1.LikeVerb,
			ID:   "https://example.com/like",
			Actor: &as1.Object{
				ObjectType:  as1.PersonType,
				ID:          "https://example.com/alice",
				DisplayName: "Alice",
				Username:    "alice",
				Image:       &as1.MediaLink{URL: "https://example.com/alice.jpg"},
			},
			Object: &as1.Object{ID: "https://example.com/post"},
		},
		"comment": {
			ObjectType: as1.CommentType,
			Content:    "me too",
			InReplyTo:  []*as1.Object{{ID: "https://example.com/post"}},
		},
		"article with tags": {
			ObjectType:  as1.ArticleType,
			DisplayName: "Title",
			Content:     "hi @bob #go",
			ContentType: as1.ContentText,
			Tags: []*as1.Object{
				{ObjectType: as1.MentionType, URL: "https://example.com/bob", DisplayName: "@bob", StartIndex: as1.Int(3), Length: as1.Int(4)},
				{ObjectType: as1.HashtagType, DisplayName: "go"},
				{URL: "https://go.dev/"},
			},
			Attachments: []*as1.Object{
				{ObjectType: as1.ImageType, Image: &as1.MediaLink{URL: "https://example.com/a.png", Width: 10, Height: 20}},
			},
			Location: &as1.Object{
				ObjectType:  as1.PlaceType,
				DisplayName: "Home",
				Latitude:    as1.Float(37.5),
				Longitude:   as1.Float(-122.25),
			},
			Extra: map[string]any{"sensitive": true},
		},
		"video": {
			ObjectType: as1.VideoType,
			URL:        "https://example.com/v",
			Stream:     &as1.MediaLink{URL: "https://example.com/v.mp4", MimeType: "video/mp4"},
		},
		"rsvp yes": {
			Verb:   as1.RSVPYesVerb,
			Object: &as1.Object{ObjectType: as1.EventType, ID: "https://example.com/party"},
		},
		"unknown verb": {
			Verb:   "react",
			Object: &as1.Object{ID: "https://example.com/post"},
		},
		"rsvp interested": {
			Verb:   as1.RSVPInterestedVerb,
			Object: &as1.Object{ObjectType: as1.EventType, ID: "https://example.com/party"},
		},
		"rsvp yes to a bare id": {
			Verb:   as1.RSVPYesVerb,
			Object: &as1.Object{ID: "https://example.com/party"},
		},
		"accept of an event": {
			Verb:   as1.AcceptVerb,
			Object: &as1.Object{ObjectType: as1.EventType, ID: "https://example.com/party"},
		},
		"comment without parent": {
			ObjectType: as1.CommentType,
			Content:    "orphaned",
		},
		"like with activity type": {
			Verb:       as1.LikeVerb,
			ObjectType: as1.ActivityType,
			Object:     &as1.Object{ID: "https://example.com/post"},
		},
		"unknown object type": {
			ObjectType: "question",
			Content:    "why?",
		},
		"replies": {
			ObjectType: as1.NoteType,
			Replies:    []*as1.Object{{ObjectType: as1.NoteType, Content: "reply"}},
		},
	}
	for name, obj := range tests {
		t.Run(name, func(t *testing.T) {
			got := roundTrip(t, obj)
			if diff := cmp.Diff(obj, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFromAS1_Types(t *testing.T) {
	m := FromAS1(&as1.Object{
		Verb:   as1.PostVerb,
		Object: &as1.Object{ObjectType: as1.CommentType, Content: "x", InReplyTo: []*as1.Object{{ID: "a"}}},
	})
	assert.Equal(t, Context, m[ContextProperty])
	assert.Equal(t, CreateType, m[TypeProperty])
	obj := m[ObjectProperty].(map[string]any)
	assert.Equal(t, NoteType, obj[TypeProperty])
	assert.Equal(t, []any{"a"}, obj[InReplyToProperty])
	assert.Nil(t, obj[ContextProperty])

	tag := FromAS1(&as1.Object{Verb: as1.TagVerb})
	assert.Equal(t, AddType, tag[TypeProperty])
	share := FromAS1(&as1.Object{Verb: as1.ShareVerb})
	assert.Equal(t, AnnounceType, share[TypeProperty])
	maybe := FromAS1(&as1.Object{Verb: as1.RSVPInterestedVerb})
	assert.Equal(t, TentativeAcceptType, maybe[TypeProperty])
}

func TestFromAS1_MentionUsesHref(t *testing.T) {
	m := FromAS1(&as1.Object{Tags: []*as1.Object{
		{ObjectType: as1.MentionType, URL: "https://example.com/bob"},
	}})
	tag := m[TagProperty].([]any)[0].(map[string]any)
	assert.Equal(t, "https://example.com/bob", tag[HrefProperty])
	assert.NotContains(t, tag, URLProperty)
}

func TestFromAS1_NestedObjectsBecomeReferences(t *testing.T) {
	m := FromAS1(&as1.Object{
		Verb: as1.ShareVerb,
		Object: &as1.Object{
			Verb:   as1.PostVerb,
			ID:     "https://example.com/create",
			Object: &as1.Object{ID: "https://example.com/note", Content: "deep"},
		},
	})
	inner := m[ObjectProperty].(map[string]any)
	assert.Equal(t, CreateType, inner[TypeProperty])
	assert.Equal(t, "https://example.com/note", inner[ObjectProperty])
}

func TestParse_Mastodon(t *testing.T) {
	const note = `{
		"@context": ["https://www.w3.org/ns/activitystreams", {"sensitive": "as:sensitive"}],
		"id": "https://mastodon.example/users/alice/statuses/1",
		"type": "Note",
		"attributedTo": "https://mastodon.example/users/alice",
		"content": "<p>hi <a href=\"https://mastodon.example/tags/go\" class=\"mention hashtag\">#go</a></p>",
		"to": ["https://www.w3.org/ns/activitystreams#Public"],
		"sensitive": false,
		"tag": [{"type": "Hashtag", "href": "https://mastodon.example/tags/go", "name": "#go"}],
		"attachment": [{
			"type": "Document",
			"mediaType": "video/mp4",
			"url": "https://files.example/v.mp4",
			"name": "a cat"
		}]
	}`
	objs, warnings, err := Parse([]byte(note))
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, objs, 1)
	o := objs[0]

	assert.Equal(t, as1.NoteType, o.ObjectType)
	assert.Equal(t, "https://mastodon.example/users/alice", o.Author.ID)
	require.Len(t, o.Tags, 1)
	assert.Equal(t, as1.HashtagType, o.Tags[0].ObjectType)
	assert.Equal(t, "https://mastodon.example/tags/go", o.Tags[0].URL)
	require.Len(t, o.Attachments, 1)
	att := o.Attachments[0]
	assert.Equal(t, as1.VideoType, att.ObjectType)
	assert.Equal(t, &as1.MediaLink{URL: "https://files.example/v.mp4", MimeType: "video/mp4"}, att.Stream)
	assert.Equal(t, "a cat", att.DisplayName)
	assert.Equal(t, false, o.Extra["sensitive"])
	assert.NotContains(t, o.Extra, ContextProperty)
	assert.Contains(t, o.Extra, "to")
}

func TestParse_Collection(t *testing.T) {
	const coll = `{
		"type": "OrderedCollection",
		"orderedItems": [
			{"type": "Note", "content": "one"},
			"https://example.com/two",
			42
		]
	}`
	objs, warnings, err := Parse([]byte(coll))
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "one", objs[0].Content)
	assert.Equal(t, "https://example.com/two", objs[1].ID)
	require.Len(t, warnings, 1)
	assert.Equal(t, "orderedItems[2]", warnings[0].Path)
}

func TestParse_AcceptFollow(t *testing.T) {
	objs, _, err := Parse([]byte(`{"type": "Accept", "object": {"type": "Follow", "actor": "https://a"}}`))
	require.NoError(t, err)
	assert.Equal(t, as1.AcceptVerb, objs[0].Verb)
	assert.Equal(t, as1.FollowVerb, objs[0].Object.Verb)
	assert.Equal(t, "https://a", objs[0].Object.Actor.ID)
}

func TestParse_Errors(t *testing.T) {
	_, _, err := Parse([]byte(`["not", "an", "object"]`))
	assert.ErrorIs(t, err, as1.ErrShape)

	_, _, err = Parse([]byte(`{"type": "Collection", "items": "nope"}`))
	var shape *as1.ShapeError
	require.ErrorAs(t, err, &shape)
	assert.Equal(t, "items", shape.Path)

	_, _, err = Parse([]byte(`{`))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, as1.ErrShape)
}

func TestRender_Collection(t *testing.T) {
	b, err := Render([]*as1.Object{{Content: "a"}, {Content: "b"}})
	require.NoError(t, err)
	var coll OrderedCollection
	require.NoError(t, json.Unmarshal(b, &coll))
	assert.Equal(t, OrderedCollectionType, coll.Type)
	assert.Equal(t, 2, coll.TotalItems)
	assert.Equal(t, "b", coll.Items[1][ContentProperty])
}

func TestRender_NilObject(t *testing.T) {
	b, err := Render([]*as1.Object{nil})
	require.NoError(t, err)
	assert.NotEqual(t, "null", string(b))

	var coll OrderedCollection
	require.NoError(t, json.Unmarshal(b, &coll))
	assert.Equal(t, OrderedCollectionType, coll.Type)
	assert.Equal(t, 0, coll.TotalItems)
	assert.Empty(t, coll.Items)

	objs, _, err := Parse(b)
	require.NoError(t, err)
	assert.Empty(t, objs)
}

func TestFromAS1_HintsOnlyWhenLossy(t *testing.T) {
	plain := FromAS1(&as1.Object{
		ObjectType: as1.CommentType,
		Content:    "reply",
		InReplyTo:  []*as1.Object{{ID: "https://example.com/post"}},
	})
	assert.NotContains(t, plain, VerbProperty)
	assert.NotContains(t, plain, ObjectTypeProperty)

	like := FromAS1(&as1.Object{Verb: as1.LikeVerb, Object: &as1.Object{ID: "https://example.com/post"}})
	assert.NotContains(t, like, VerbProperty)
	assert.NotContains(t, like, ObjectTypeProperty)

	orphan := FromAS1(&as1.Object{ObjectType: as1.CommentType, Content: "orphaned"})
	assert.Equal(t, NoteType, orphan[TypeProperty])
	assert.Equal(t, as1.CommentType, orphan[ObjectTypeProperty])

	maybe := FromAS1(&as1.Object{Verb: as1.RSVPInterestedVerb, Object: &as1.Object{ID: "https://example.com/party"}})
	assert.Equal(t, TentativeAcceptType, maybe[TypeProperty])
	assert.Equal(t, as1.RSVPInterestedVerb, maybe[VerbProperty])
}
