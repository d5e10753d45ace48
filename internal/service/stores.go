package service

import "pigeon/internal/models"

// MessageStore is the slice of the local cache the lifecycle services need.
// Lookups return (nil, nil) when the record is simply not cached.
type MessageStore interface {
	Get(id int64) (*models.Message, error)
	GetByUniqueID(uniqueID string) (*models.Message, error)
	GetByPreviousID(id int64) (*models.Message, error)
	Upsert(m *models.Message) error
	Contains(m *models.Message) (bool, error)
	DeleteLocalAttachment(id int64) error
}

type RoomStore interface {
	GetRoom(id int64) (*models.ChatRoom, error)
	UpsertRoom(room *models.ChatRoom) error
}

type CursorStore interface {
	LastEventID() int64
	SetLastEventID(id int64) error
	LastMessageID() int64
	SetLastMessageID(id int64) error
}
