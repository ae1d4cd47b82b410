package models

import "time"

// Video is the subset of the catalog entry that download gating needs. The
// catalog itself (upload, metadata, search) is managed elsewhere.
type Video struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UUID            string    `gorm:"type:char(36);uniqueIndex" json:"uuid"`
	Title           string    `gorm:"type:varchar(100);not null" json:"title" validate:"required,max=100"`
	PremiumRequired bool      `gorm:"not null;default:false;index" json:"premium"`
	StorageKey      string    `gorm:"type:varchar(255);not null" json:"-"`
	DownloadCount   int64     `gorm:"not null;default:0" json:"download_count"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// RequiresPremium reports whether downloading the video needs an active
// premium entitlement.
func (v *Video) RequiresPremium() bool {
	return v.PremiumRequired
}
