package domain

const (
	TypeText        = "text"
	TypeImage       = "image"
	TypeVideo       = "video"
	TypeAudio       = "audio"
	TypeContact     = "contact_person"
	TypeLocation    = "location"
	TypeCarousel    = "carousel"
	TypeSystemEvent = "system_event"
	TypeFile        = "file_attachment"
	TypeButtons     = "buttons"
	TypeReply       = "reply"
	TypeCard        = "card"
)

const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
)

const (
	RoomSingle  = "single"
	RoomGroup   = "group"
	RoomChannel = "channel"
)

const (
	SchedulerStopped   = "STOPPED"
	SchedulerScheduled = "SCHEDULED"
)

// TombstoneText replaces the content of a deleted message.
const TombstoneText = "This message has been deleted."
