package repository

import (
	"github.com/ManuelReschke/ClipFox/app/models"
	"gorm.io/gorm"
)

// downloadRepository implements the DownloadRepository interface
type downloadRepository struct {
	db *gorm.DB
}

// NewDownloadRepository creates a new download repository instance
func NewDownloadRepository(db *gorm.DB) DownloadRepository {
	return &downloadRepository{db: db}
}

// Create appends a download history row
func (r *downloadRepository) Create(download *models.Download) error {
	return r.db.Create(download).Error
}

// ListByUserID returns a user's downloads, newest first
func (r *downloadRepository) ListByUserID(userID uint, offset, limit int) ([]models.Download, error) {
	var downloads []models.Download
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&downloads).Error
	return downloads, err
}

// CountByUserID counts a user's downloads
func (r *downloadRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Download{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
