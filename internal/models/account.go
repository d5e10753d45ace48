package models

import "time"

// Account is the locally signed-in user. A single row is kept per login.
type Account struct {
	ID            string    `gorm:"primaryKey;size:128" json:"id"`
	Name          string    `gorm:"size:128" json:"name"`
	AvatarURL     string    `gorm:"size:512" json:"avatar_url"`
	Token         string    `gorm:"size:1024" json:"-"`
	LastMessageID int64     `json:"last_message_id"`
	LastEventID   int64     `json:"last_event_id"`
	Extras        string    `gorm:"type:text" json:"extras"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}
