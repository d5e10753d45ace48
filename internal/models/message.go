package models

import (
	"time"

	"pigeon/internal/domain"
)

type Message struct {
	ID                int64     `gorm:"primaryKey" json:"id"`
	UniqueID          string    `gorm:"size:64;uniqueIndex;not null" json:"unique_id"` // client-assigned, stable across retries
	RoomID            int64     `gorm:"not null;index" json:"room_id"`
	PreviousMessageID int64     `gorm:"index" json:"previous_message_id"` // 0 = oldest retained message
	Content           string    `gorm:"type:text" json:"content"`
	Caption           string    `gorm:"type:text" json:"caption"`
	Type              string    `gorm:"size:32;not null" json:"type"`
	Payload           string    `gorm:"type:text" json:"payload"` // raw extra payload JSON
	Extras            string    `gorm:"type:text" json:"extras"`
	Status            string    `gorm:"size:16;index" json:"status"` // sent, delivered, read
	Deleted           bool      `json:"deleted"`
	SenderID          string    `gorm:"size:128;index" json:"sender_id"`
	SenderName        string    `gorm:"size:128" json:"sender_name"`
	SenderAvatar      string    `gorm:"size:512" json:"sender_avatar"`
	RoomName          string    `gorm:"size:255" json:"room_name"`
	GroupMessage      bool      `json:"group_message"`
	AttachmentURL     string    `gorm:"size:512" json:"attachment_url"`
	LocalPath         string    `gorm:"size:512" json:"-"` // cached attachment blob, if downloaded
	Timestamp         time.Time `gorm:"index" json:"timestamp"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) IsAttachment() bool {
	return m.Type == domain.TypeFile || m.AttachmentURL != ""
}

// DeletionEvent is consumed once by the deletion processor; never persisted.
type DeletionEvent struct {
	RoomID    int64
	UniqueID  string
	Hard      bool
	ActorID   string
	ActorName string
}
