package repository

import (
	"log"

	"pigeon/internal/models"

	"gorm.io/gorm"
)

// CursorRepository persists the sync cursors in a single row so a restart
// resumes reconciliation where the last cycle left off.
type CursorRepository struct {
	db *gorm.DB
}

func NewCursorRepository(db *gorm.DB) *CursorRepository {
	return &CursorRepository{db: db}
}

func (r *CursorRepository) row() *models.SyncCursor {
	var c models.SyncCursor
	if err := r.db.FirstOrCreate(&c, models.SyncCursor{ID: 1}).Error; err != nil {
		log.Printf("[cursor] load failed: %v", err)
	}
	return &c
}

func (r *CursorRepository) LastEventID() int64 {
	return r.row().LastEventID
}

func (r *CursorRepository) SetLastEventID(id int64) error {
	return r.db.Model(&models.SyncCursor{}).Where("id = ?", 1).Update("last_event_id", id).Error
}

func (r *CursorRepository) LastMessageID() int64 {
	return r.row().LastMessageID
}

func (r *CursorRepository) SetLastMessageID(id int64) error {
	return r.db.Model(&models.SyncCursor{}).Where("id = ?", 1).Update("last_message_id", id).Error
}
