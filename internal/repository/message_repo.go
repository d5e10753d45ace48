package repository

import (
	"errors"

	"pigeon/internal/models"
	"pigeon/pkg/attachment"

	"gorm.io/gorm"
)

type MessageRepository struct {
	db    *gorm.DB
	cache *attachment.Cache
}

func NewMessageRepository(db *gorm.DB, cache *attachment.Cache) *MessageRepository {
	return &MessageRepository{db: db, cache: cache}
}

// Get returns the message by server id, or nil when not cached locally.
func (r *MessageRepository) Get(id int64) (*models.Message, error) {
	var m models.Message
	err := r.db.First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByUniqueID looks a message up by its client-assigned unique id.
func (r *MessageRepository) GetByUniqueID(uniqueID string) (*models.Message, error) {
	var m models.Message
	err := r.db.Where("unique_id = ?", uniqueID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByPreviousID returns the live chain successor of id: the one non-deleted
// message whose back-reference points at it.
func (r *MessageRepository) GetByPreviousID(id int64) (*models.Message, error) {
	var m models.Message
	err := r.db.Where("previous_message_id = ? AND deleted = ?", id, false).
		Order("id ASC").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepository) Upsert(m *models.Message) error {
	return r.db.Save(m).Error
}

// Contains reports whether the message identity is already cached.
func (r *MessageRepository) Contains(m *models.Message) (bool, error) {
	var count int64
	err := r.db.Model(&models.Message{}).Where("unique_id = ?", m.UniqueID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteLocalAttachment removes the cached blob for a message, if any, and
// clears its local path column.
func (r *MessageRepository) DeleteLocalAttachment(id int64) error {
	m, err := r.Get(id)
	if err != nil || m == nil {
		return err
	}
	if m.LocalPath == "" {
		return nil
	}
	if r.cache != nil {
		if err := r.cache.Remove(m.LocalPath); err != nil {
			return err
		}
	}
	return r.db.Model(&models.Message{}).Where("id = ?", id).Update("local_path", "").Error
}

// ListByRoom returns room messages newest first.
func (r *MessageRepository) ListByRoom(roomID int64, limit, offset int) ([]models.Message, error) {
	var list []models.Message
	err := r.db.Where("room_id = ?", roomID).Order("timestamp DESC").
		Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}
