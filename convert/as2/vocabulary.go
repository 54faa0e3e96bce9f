package as2

// ActivityPub and ActivityStreams 2.0 vocabulary

const (
	Context       = "https://www.w3.org/ns/activitystreams"
	ContentType   = `application/activity+json`
	ContentTypeLD = `application/ld+json; profile="https://www.w3.org/ns/activitystreams"`
	PublicAddress = "https://www.w3.org/ns/activitystreams#Public"
)

// Object types
const (
	ApplicationType       = "Application"
	ArticleType           = "Article"
	AudioType             = "Audio"
	CollectionType        = "Collection"
	DocumentType          = "Document"
	EventType             = "Event"
	GroupType             = "Group"
	HashtagType           = "Hashtag"
	ImageType             = "Image"
	LinkType              = "Link"
	MentionType           = "Mention"
	NoteType              = "Note"
	ObjectType            = "Object"
	OrderedCollectionType = "OrderedCollection"
	OrganizationType      = "Organization"
	PageType              = "Page"
	PersonType            = "Person"
	PlaceType             = "Place"
	ServiceType           = "Service"
	VideoType             = "Video"
)

// Activity types
const (
	AcceptType          = "Accept"
	ActivityType        = "Activity"
	AddType             = "Add"
	AnnounceType        = "Announce"
	BlockType           = "Block"
	CreateType          = "Create"
	DeleteType          = "Delete"
	FollowType          = "Follow"
	InviteType          = "Invite"
	LikeType            = "Like"
	RejectType          = "Reject"
	TentativeAcceptType = "TentativeAccept"
	UndoType            = "Undo"
	UpdateType          = "Update"
)

// Property names
const (
	ContextProperty      = "@context"
	TypeProperty         = "type"
	IDProperty           = "id"
	URLProperty          = "url"
	HrefProperty         = "href"
	NameProperty         = "name"
	ContentProperty      = "content"
	SummaryProperty      = "summary"
	MediaTypeProperty    = "mediaType"
	PublishedProperty    = "published"
	UpdatedProperty      = "updated"
	StartTimeProperty    = "startTime"
	EndTimeProperty      = "endTime"
	ActorProperty        = "actor"
	AttributedToProperty = "attributedTo"
	ObjectProperty       = "object"
	TargetProperty       = "target"
	OriginProperty       = "origin"
	InReplyToProperty    = "inReplyTo"
	ImageProperty        = "image"
	IconProperty         = "icon"
	LocationProperty     = "location"
	TagProperty          = "tag"
	AttachmentProperty   = "attachment"
	RepliesProperty      = "replies"
	UsernameProperty     = "preferredUsername"
	LatitudeProperty     = "latitude"
	LongitudeProperty    = "longitude"
	WidthProperty        = "width"
	HeightProperty       = "height"
	DurationProperty     = "duration"
	ItemsProperty        = "items"
	OrderedItemsProperty = "orderedItems"
	TotalItemsProperty   = "totalItems"

	// canonical values that the type alone can't carry
	VerbProperty       = "verb"
	ObjectTypeProperty = "objectType"
)
