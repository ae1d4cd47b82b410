package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ClipFox/app/models"
	"github.com/ManuelReschke/ClipFox/app/repository"
	"github.com/ManuelReschke/ClipFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/ClipFox/internal/pkg/mediastore"
	"github.com/ManuelReschke/ClipFox/internal/pkg/usercontext"
)

const downloadHistoryPageSize = 25

// UserLoader loads the current state of a user.
type UserLoader interface {
	GetUser(ctx context.Context, userID uint) (*models.User, error)
}

// DownloadController gates video downloads on the caller's entitlement.
type DownloadController struct {
	videos    repository.VideoRepository
	downloads repository.DownloadRepository
	users     UserLoader
	signer    mediastore.URLSigner
	count     func(ctx context.Context, videoID uint) error
	now       func() time.Time
}

// NewDownloadController creates a download controller. count may be nil.
func NewDownloadController(
	repos *repository.Repositories,
	users UserLoader,
	signer mediastore.URLSigner,
	count func(ctx context.Context, videoID uint) error,
) *DownloadController {
	return &DownloadController{
		videos:    repos.Video,
		downloads: repos.Download,
		users:     users,
		signer:    signer,
		count:     count,
		now:       time.Now,
	}
}

// HandleDownload checks access, records the download and returns a
// short-lived URL for the file.
func (dc *DownloadController) HandleDownload(c *fiber.Ctx) error {
	videoUUID := c.Params("uuid")
	if _, err := uuid.Parse(videoUUID); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Invalid video id")
	}

	video, err := dc.videos.GetByUUID(videoUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Video not found")
		}
		log.Errorf("[Download] video lookup %s failed: %v", videoUUID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load video")
	}

	user, err := dc.users.GetUser(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return respondBillingError(c, err)
	}

	now := dc.now()
	if !entitlements.CanAccess(user, video, now) {
		return jsonError(c, fiber.StatusForbidden, "premium_required", "Premium subscription required")
	}

	if dc.signer == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "storage_unavailable", "Downloads are not configured")
	}
	url, expiresAt, err := dc.signer.PresignDownload(c.UserContext(), video.StorageKey)
	if err != nil {
		log.Errorf("[Download] signing %s failed: %v", video.UUID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to prepare download")
	}

	downloadType := models.DownloadTypeFree
	if video.RequiresPremium() {
		downloadType = models.DownloadTypePremium
	}
	if err := dc.downloads.Create(&models.Download{
		UserID:       user.ID,
		VideoID:      video.ID,
		DownloadType: downloadType,
		IPAddress:    clientIP(c),
		UserAgent:    truncate(c.Get(fiber.HeaderUserAgent), 255),
		CreatedAt:    now,
	}); err != nil {
		log.Errorf("[Download] recording download of %s by user %d failed: %v", video.UUID, user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to record download")
	}
	if dc.count != nil {
		if err := dc.count(c.UserContext(), video.ID); err != nil {
			log.Warnf("[Download] counter increment for video %d failed: %v", video.ID, err)
		}
	}

	return c.JSON(fiber.Map{
		"downloadUrl": url,
		"expiresAt":   expiresAt,
		"premium":     video.RequiresPremium(),
	})
}

// HandleDownloadHistory lists the caller's downloads, newest first.
func (dc *DownloadController) HandleDownloadHistory(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	total, err := dc.downloads.CountByUserID(userID)
	if err != nil {
		log.Errorf("[Download] count for user %d failed: %v", userID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load downloads")
	}
	list, err := dc.downloads.ListByUserID(userID, (page-1)*downloadHistoryPageSize, downloadHistoryPageSize)
	if err != nil {
		log.Errorf("[Download] list for user %d failed: %v", userID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load downloads")
	}

	return c.JSON(fiber.Map{
		"downloads": list,
		"page":      page,
		"total":     total,
	})
}
