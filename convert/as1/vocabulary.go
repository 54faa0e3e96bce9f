package as1

// ActivityStreams 1.0 vocabulary

// Canonical JSON property names
const (
	IDProperty          = "id"
	ObjectTypeProperty  = "objectType"
	VerbProperty        = "verb"
	ActorProperty       = "actor"
	AuthorProperty      = "author"
	ObjectProperty      = "object"
	TargetProperty      = "target"
	OriginProperty      = "origin"
	InReplyToProperty   = "inReplyTo"
	PublishedProperty   = "published"
	UpdatedProperty     = "updated"
	StartTimeProperty   = "startTime"
	EndTimeProperty     = "endTime"
	ContentProperty     = "content"
	ContentTypeProperty = "contentType"
	DisplayNameProperty = "displayName"
	SummaryProperty     = "summary"
	URLProperty         = "url"
	UsernameProperty    = "username"
	EmailProperty       = "email"
	ImageProperty       = "image"
	StreamProperty      = "stream"
	LocationProperty    = "location"
	LatitudeProperty    = "latitude"
	LongitudeProperty   = "longitude"
	TagsProperty        = "tags"
	AttachmentsProperty = "attachments"
	RepliesProperty     = "replies"
	StartIndexProperty  = "startIndex"
	LengthProperty      = "length"
)

// Object types
const (
	ActivityType     = "activity"
	ApplicationType  = "application"
	ArticleType      = "article"
	AudioType        = "audio"
	CollectionType   = "collection"
	CommentType      = "comment"
	EventType        = "event"
	FileType         = "file"
	GroupType        = "group"
	HashtagType      = "hashtag"
	ImageType        = "image"
	MentionType      = "mention"
	NoteType         = "note"
	OrganizationType = "organization"
	PageType         = "page"
	PersonType       = "person"
	PlaceType        = "place"
	ServiceType      = "service"
	VideoType        = "video"
)

// Verbs
const (
	PostVerb           = "post"
	UpdateVerb         = "update"
	DeleteVerb         = "delete"
	LikeVerb           = "like"
	ShareVerb          = "share"
	ReplyVerb          = "reply"
	FollowVerb         = "follow"
	TagVerb            = "tag"
	InviteVerb         = "invite"
	BlockVerb          = "block"
	UndoVerb           = "undo"
	AcceptVerb         = "accept"
	RejectVerb         = "reject"
	RSVPYesVerb        = "rsvp-yes"
	RSVPNoVerb         = "rsvp-no"
	RSVPMaybeVerb      = "rsvp-maybe"
	RSVPInterestedVerb = "rsvp-interested"
)

// Content variants
const (
	ContentHTML = "html"
	ContentText = "text"
)

// RSVPVerbs lists the RSVP verbs in priority order.
var RSVPVerbs = []string{RSVPYesVerb, RSVPNoVerb, RSVPMaybeVerb, RSVPInterestedVerb}

// ActorTypes are the object types that can act.
var ActorTypes = []string{ApplicationType, GroupType, OrganizationType, PersonType, ServiceType}

// IsRSVPVerb reports whether verb is one of the rsvp-* verbs.
func IsRSVPVerb(verb string) bool {
	for _, v := range RSVPVerbs {
		if v == verb {
			return true
		}
	}
	return false
}

// IsActorType reports whether objectType can be an actor.
func IsActorType(objectType string) bool {
	for _, t := range ActorTypes {
		if t == objectType {
			return true
		}
	}
	return false
}

const (
	// JSONContentType is the canonical JSON media type
	JSONContentType = "application/stream+json"
	// TimeFormat is the RFC 3339 layout used for published and updated
	TimeFormat = "2006-01-02T15:04:05Z07:00"
)
