package models

import "time"

const (
	DownloadTypeFree    = "free"
	DownloadTypePremium = "premium"
)

// Download is an append-only history row. It replaces keeping a growing
// download list on the user record.
type Download struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index:idx_downloads_user_created,priority:1" json:"user_id"`
	VideoID      uint      `gorm:"not null;index" json:"video_id"`
	DownloadType string    `gorm:"type:varchar(16);not null" json:"download_type"`
	IPAddress    string    `gorm:"type:varchar(45);default:''" json:"-"`
	UserAgent    string    `gorm:"type:varchar(255);default:''" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index:idx_downloads_user_created,priority:2" json:"downloaded_at"`
}
