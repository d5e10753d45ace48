package models

import (
	"time"

	"pigeon/internal/domain"
)

type ChatRoom struct {
	ID                int64  `gorm:"primaryKey" json:"id"`
	UniqueID          string `gorm:"size:128;index" json:"unique_id"`
	DistinctID        string `gorm:"size:128" json:"distinct_id"`
	Name              string `gorm:"size:255" json:"name"`
	Type              string `gorm:"size:16;not null" json:"type"` // single, group, channel
	AvatarURL         string `gorm:"size:512" json:"avatar_url"`
	UnreadCount       int    `gorm:"not null;default:0" json:"unread_count"`
	TotalParticipants int    `json:"total_participants"`
	Extras            string `gorm:"type:text" json:"extras"`
	LastMessageID     int64  `json:"last_message_id"`

	Participants []Participant `gorm:"foreignKey:RoomID" json:"participants"`
	LastMessage  *Message      `gorm:"-" json:"last_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ChatRoom) TableName() string {
	return "chat_rooms"
}

func (r *ChatRoom) IsGroup() bool { return r.Type != domain.RoomSingle }

type Participant struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	RoomID          int64  `gorm:"not null;index:idx_participants_room_user,unique" json:"room_id"`
	UserID          string `gorm:"size:128;not null;index:idx_participants_room_user,unique" json:"user_id"`
	Name            string `gorm:"size:128" json:"name"`
	AvatarURL       string `gorm:"size:512" json:"avatar_url"`
	LastDeliveredID int64  `json:"last_delivered_id"`
	LastReadID      int64  `json:"last_read_id"`
	Extras          string `gorm:"type:text" json:"extras"`
}

func (Participant) TableName() string {
	return "participants"
}
