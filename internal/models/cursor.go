package models

import "time"

// SyncCursor tracks how far remote reconciliation has progressed. One row.
type SyncCursor struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	LastEventID   int64     `json:"last_event_id"`
	LastMessageID int64     `json:"last_message_id"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (SyncCursor) TableName() string {
	return "sync_cursors"
}
