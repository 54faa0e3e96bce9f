package as2

import (
	"strings"

	"github.com/snarfed/activitystreams-unofficial/convert/as1"
)

// objectTypes maps canonical object types to AS2 types. comment renders
// as a Note; a Note with inReplyTo parses back to a comment, otherwise the
// canonical objectType is written alongside.
var objectTypes = map[string]string{
	as1.ApplicationType:  ApplicationType,
	as1.ArticleType:      ArticleType,
	as1.AudioType:        AudioType,
	as1.CollectionType:   CollectionType,
	as1.CommentType:      NoteType,
	as1.EventType:        EventType,
	as1.FileType:         DocumentType,
	as1.GroupType:        GroupType,
	as1.HashtagType:      HashtagType,
	as1.ImageType:        ImageType,
	as1.MentionType:      MentionType,
	as1.NoteType:         NoteType,
	as1.OrganizationType: OrganizationType,
	as1.PageType:         PageType,
	as1.PersonType:       PersonType,
	as1.PlaceType:        PlaceType,
	as1.ServiceType:      ServiceType,
	as1.VideoType:        VideoType,
}

var typeObjects = map[string]string{
	ApplicationType:       as1.ApplicationType,
	ArticleType:           as1.ArticleType,
	AudioType:             as1.AudioType,
	CollectionType:        as1.CollectionType,
	DocumentType:          as1.FileType,
	EventType:             as1.EventType,
	GroupType:             as1.GroupType,
	HashtagType:           as1.HashtagType,
	ImageType:             as1.ImageType,
	MentionType:           as1.MentionType,
	NoteType:              as1.NoteType,
	OrderedCollectionType: as1.CollectionType,
	OrganizationType:      as1.OrganizationType,
	PageType:              as1.PageType,
	PersonType:            as1.PersonType,
	PlaceType:             as1.PlaceType,
	ServiceType:           as1.ServiceType,
	VideoType:             as1.VideoType,
}

// verbTypes maps canonical verbs to AS2 activity types. Several verbs share
// a type, eg rsvp-maybe and rsvp-interested; the canonical verb is written
// alongside when the type alone would read back differently.
var verbTypes = map[string]string{
	as1.PostVerb:           CreateType,
	as1.UpdateVerb:         UpdateType,
	as1.DeleteVerb:         DeleteType,
	as1.LikeVerb:           LikeType,
	as1.ShareVerb:          AnnounceType,
	as1.FollowVerb:         FollowType,
	as1.TagVerb:            AddType,
	as1.InviteVerb:         InviteType,
	as1.BlockVerb:          BlockType,
	as1.UndoVerb:           UndoType,
	as1.AcceptVerb:         AcceptType,
	as1.RejectVerb:         RejectType,
	as1.RSVPYesVerb:        AcceptType,
	as1.RSVPNoVerb:         RejectType,
	as1.RSVPMaybeVerb:      TentativeAcceptType,
	as1.RSVPInterestedVerb: TentativeAcceptType,
}

// Accept and Reject of an event come back as rsvp-yes and rsvp-no.
var typeVerbs = map[string]string{
	CreateType:          as1.PostVerb,
	UpdateType:          as1.UpdateVerb,
	DeleteType:          as1.DeleteVerb,
	LikeType:            as1.LikeVerb,
	AnnounceType:        as1.ShareVerb,
	FollowType:          as1.FollowVerb,
	AddType:             as1.TagVerb,
	InviteType:          as1.InviteVerb,
	BlockType:           as1.BlockVerb,
	UndoType:            as1.UndoVerb,
	AcceptType:          as1.AcceptVerb,
	RejectType:          as1.RejectVerb,
	TentativeAcceptType: as1.RSVPMaybeVerb,
}

// TypeOf returns the AS2 type for a canonical object, or "" if it has neither
// verb nor object type.
func TypeOf(o *as1.Object) string {
	if o == nil {
		return ""
	}
	if o.Verb != "" {
		if t, ok := verbTypes[o.Verb]; ok {
			return t
		}
		return ActivityType
	}
	switch o.ObjectType {
	case "":
		return ""
	case as1.ActivityType:
		return ActivityType
	}
	if t, ok := objectTypes[o.ObjectType]; ok {
		return t
	}
	return ObjectType
}

// implied returns the canonical verb and object type that parsing a map of
// AS2 type typ gives back for o, before any explicit verb or objectType keys.
// target is the type its object parses back as.
func implied(typ string, o *as1.Object, mediaType, target string) (verb, objectType string) {
	switch {
	case typ == "", typ == LinkType:
	case typ == ActivityType:
		verb = o.Verb
		if verb == "" {
			objectType = as1.ActivityType
		}
	case typ == ObjectType:
		objectType = o.ObjectType
	case typ == DocumentType:
		objectType = documentType(mediaType)
	case typeVerbs[typ] != "":
		verb = typeVerbs[typ]
		if target == as1.EventType {
			switch verb {
			case as1.AcceptVerb:
				verb = as1.RSVPYesVerb
			case as1.RejectVerb:
				verb = as1.RSVPNoVerb
			}
		}
	case typeObjects[typ] != "":
		objectType = typeObjects[typ]
		if objectType == as1.NoteType && len(o.InReplyTo) > 0 {
			objectType = as1.CommentType
		}
	}
	return verb, objectType
}

func isStreamMIME(mt string) bool {
	return strings.HasPrefix(mt, "audio/") || strings.HasPrefix(mt, "video/")
}

// documentType refines a Document by its media type.
func documentType(mt string) string {
	switch {
	case strings.HasPrefix(mt, "image/"):
		return as1.ImageType
	case strings.HasPrefix(mt, "video/"):
		return as1.VideoType
	case strings.HasPrefix(mt, "audio/"):
		return as1.AudioType
	}
	return as1.FileType
}
