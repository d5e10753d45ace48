package repository

import (
	"errors"

	"pigeon/internal/models"

	"gorm.io/gorm"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// GetRoom returns the room with participants preloaded, or nil when unknown.
func (r *RoomRepository) GetRoom(id int64) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.Preload("Participants").First(&room, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *RoomRepository) UpsertRoom(room *models.ChatRoom) error {
	return r.db.Save(room).Error
}

func (r *RoomRepository) ListRooms(limit, offset int) ([]models.ChatRoom, error) {
	var list []models.ChatRoom
	err := r.db.Preload("Participants").Order("updated_at DESC").
		Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}
