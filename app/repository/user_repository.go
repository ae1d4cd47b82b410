package repository

import (
	"strings"
	"time"

	"github.com/ManuelReschke/ClipFox/app/models"
	"gorm.io/gorm"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByAPIKeyHash resolves an active API key hash to its user and user settings.
func (r *userRepository) GetByAPIKeyHash(hash string) (*models.User, *models.UserSettings, error) {
	trimmed := strings.TrimSpace(hash)
	if trimmed == "" {
		return nil, nil, gorm.ErrRecordNotFound
	}
	var settings models.UserSettings
	query := r.db.Where("api_key_hash = ? AND api_key_hash <> '' AND api_key_revoked_at IS NULL", trimmed)
	if err := query.First(&settings).Error; err != nil {
		return nil, nil, err
	}
	var user models.User
	if err := r.db.First(&user, settings.UserID).Error; err != nil {
		return nil, nil, err
	}
	return &user, &settings, nil
}

// TouchAPIKeyUsage records the last time an API key was used.
func (r *userRepository) TouchAPIKeyUsage(settingsID uint, at time.Time) error {
	return r.db.Model(&models.UserSettings{}).
		Where("id = ?", settingsID).
		Updates(map[string]any{"api_key_last_used_at": at}).Error
}

// GetOrCreateSettings loads the user's settings row, creating an empty one on first access.
func (r *userRepository) GetOrCreateSettings(userID uint) (*models.UserSettings, error) {
	var settings models.UserSettings
	err := r.db.Where(models.UserSettings{UserID: userID}).FirstOrCreate(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// SaveSettings persists the user's settings row
func (r *userRepository) SaveSettings(settings *models.UserSettings) error {
	return r.db.Save(settings).Error
}
