package repository

import (
	"time"

	"github.com/ManuelReschke/ClipFox/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, *models.UserSettings, error)
	TouchAPIKeyUsage(settingsID uint, at time.Time) error
	GetOrCreateSettings(userID uint) (*models.UserSettings, error)
	SaveSettings(settings *models.UserSettings) error
}

// VideoRepository defines the interface for the video lookups download gating needs
type VideoRepository interface {
	GetByUUID(uuid string) (*models.Video, error)
}

// DownloadRepository defines the interface for the append-only download history
type DownloadRepository interface {
	Create(download *models.Download) error
	ListByUserID(userID uint, offset, limit int) ([]models.Download, error)
	CountByUserID(userID uint) (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User     UserRepository
	Video    VideoRepository
	Download DownloadRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:     NewUserRepository(db),
		Video:    NewVideoRepository(db),
		Download: NewDownloadRepository(db),
	}
}
