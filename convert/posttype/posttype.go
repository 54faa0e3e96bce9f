// Package posttype infers the verb and object type of a post whose source
// format leaves them implicit, typically microformats2 properties.
//
// It is a single ordered decision table: the first matching rule wins.
package posttype

import (
	"strings"

	"github.com/snarfed/activitystreams-unofficial/convert/as1"
	"github.com/snarfed/activitystreams-unofficial/convert/textutil"
)

// Result is the inferred (verb, objectType) pair.
type Result struct {
	Verb       string
	ObjectType string
	// Conflicts lists lower precedence properties that also matched, eg
	// in-reply-to on a like. The precedence order decides, but callers may
	// want to flag the combination.
	Conflicts []string
}

type rule struct {
	props      []string
	verb       string
	objectType string
}

// rules in precedence order. rsvp is handled separately since its verb
// depends on the property value.
var rules = []rule{
	{[]string{"like-of", "like"}, as1.LikeVerb, as1.ActivityType},
	{[]string{"repost-of", "quotation-of", "repost"}, as1.ShareVerb, as1.ActivityType},
	{[]string{"follow-of"}, as1.FollowVerb, as1.ActivityType},
	{[]string{"in-reply-to"}, as1.PostVerb, as1.CommentType},
}

// Discover classifies a property bag. It is total: anything that matches no
// rule is a note or an article.
func Discover(props map[string][]any) Result {
	var matched []Result
	if verb := rsvpVerb(props); verb != "" {
		matched = append(matched, Result{Verb: verb, ObjectType: as1.ActivityType, Conflicts: []string{"rsvp"}})
	}
	for _, r := range rules {
		for _, p := range r.props {
			if has(props, p) {
				matched = append(matched, Result{Verb: r.verb, ObjectType: r.objectType, Conflicts: []string{p}})
				break
			}
		}
	}

	if len(matched) == 0 {
		return Result{Verb: as1.PostVerb, ObjectType: noteOrArticle(props)}
	}
	result := matched[0]
	result.Conflicts = nil
	for _, m := range matched[1:] {
		result.Conflicts = append(result.Conflicts, m.Conflicts...)
	}
	return result
}

// rsvpVerb returns the rsvp-* verb for a valid rsvp property value.
func rsvpVerb(props map[string][]any) string {
	values := props["rsvp"]
	if len(values) == 0 {
		return ""
	}
	value, _ := values[0].(string)
	verb := "rsvp-" + strings.ToLower(strings.TrimSpace(value))
	if as1.IsRSVPVerb(verb) {
		return verb
	}
	return ""
}

// noteOrArticle compares the name with the content. A post whose name is
// missing, equal to its content, or a truncation of it is a note.
func noteOrArticle(props map[string][]any) string {
	name := text(props["name"])
	content := text(props["content"])
	if content == "" {
		content = text(props["summary"])
	}
	if textutil.IsImpliedName(name, content) {
		return as1.NoteType
	}
	return as1.ArticleType
}

func has(props map[string][]any, name string) bool {
	for _, v := range props[name] {
		if v != nil && v != "" {
			return true
		}
	}
	return false
}

// text returns the first value's plain text, whether it's a string or an
// embedded object like {"value": ..., "html": ...}.
func text(values []any) string {
	if len(values) == 0 {
		return ""
	}
	switch v := values[0].(type) {
	case string:
		return textutil.CollapseSpace(v)
	case map[string]any:
		if s, ok := v["value"].(string); ok {
			return textutil.CollapseSpace(s)
		}
		if s, ok := v["html"].(string); ok {
			return textutil.HTMLToText(s)
		}
	case map[string]string:
		if v["value"] != "" {
			return textutil.CollapseSpace(v["value"])
		}
		return textutil.HTMLToText(v["html"])
	}
	return ""
}
