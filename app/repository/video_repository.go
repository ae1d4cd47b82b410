package repository

import (
	"github.com/ManuelReschke/ClipFox/app/models"
	"gorm.io/gorm"
)

// videoRepository implements the VideoRepository interface
type videoRepository struct {
	db *gorm.DB
}

// NewVideoRepository creates a new video repository instance
func NewVideoRepository(db *gorm.DB) VideoRepository {
	return &videoRepository{db: db}
}

// GetByUUID retrieves a video by its public UUID
func (r *videoRepository) GetByUUID(uuid string) (*models.Video, error) {
	var video models.Video
	if err := r.db.Where("uuid = ?", uuid).First(&video).Error; err != nil {
		return nil, err
	}
	return &video, nil
}
