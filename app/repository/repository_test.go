package repository

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/ClipFox/app/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "repo.db")), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.UserSettings{}, &models.Video{}, &models.Download{}))
	return db
}

func TestUserRepositoryAPIKeyLookup(t *testing.T) {
	db := newTestDB(t)
	repos := NewRepositories(db)

	user := &models.User{Name: "alice", Email: "alice@example.com", Role: models.ROLE_USER, Status: models.STATUS_ACTIVE}
	require.NoError(t, db.Create(user).Error)

	settings, err := repos.User.GetOrCreateSettings(user.ID)
	require.NoError(t, err)
	key, err := settings.IssueAPIKey()
	require.NoError(t, err)
	require.NoError(t, repos.User.SaveSettings(settings))

	gotUser, gotSettings, err := repos.User.GetByAPIKeyHash(models.HashAPIKey(key))
	require.NoError(t, err)
	assert.Equal(t, user.ID, gotUser.ID)
	assert.Equal(t, settings.ID, gotSettings.ID)

	now := time.Now()
	require.NoError(t, repos.User.TouchAPIKeyUsage(settings.ID, now))
	again, err := repos.User.GetOrCreateSettings(user.ID)
	require.NoError(t, err)
	require.NotNil(t, again.APIKeyLastUsedAt)

	again.RevokeAPIKey()
	require.NoError(t, repos.User.SaveSettings(again))
	_, _, err = repos.User.GetByAPIKeyHash(models.HashAPIKey(key))
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	_, _, err = repos.User.GetByAPIKeyHash("  ")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestDownloadRepositoryNewestFirst(t *testing.T) {
	db := newTestDB(t)
	repos := NewRepositories(db)

	video := &models.Video{UUID: "3f1c8a6e-0000-4000-8000-000000000001", Title: "Clip", StorageKey: "videos/clip.mp4"}
	require.NoError(t, db.Create(video).Error)

	found, err := repos.Video.GetByUUID(video.UUID)
	require.NoError(t, err)
	assert.Equal(t, video.ID, found.ID)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, repos.Download.Create(&models.Download{
			UserID:       1,
			VideoID:      video.ID,
			DownloadType: models.DownloadTypeFree,
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
		}))
	}

	list, err := repos.Download.ListByUserID(1, 0, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].CreatedAt.After(list[1].CreatedAt))

	count, err := repos.Download.CountByUserID(1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
