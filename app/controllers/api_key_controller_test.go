package controllers

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/ClipFox/app/models"
)

type memSettingsRepo struct {
	settings *models.UserSettings
	saveErr  error
	saves    int
}

func (r *memSettingsRepo) GetByID(id uint) (*models.User, error) {
	return &models.User{ID: id, Status: models.STATUS_ACTIVE}, nil
}

func (r *memSettingsRepo) GetByAPIKeyHash(string) (*models.User, *models.UserSettings, error) {
	return nil, nil, nil
}

func (r *memSettingsRepo) TouchAPIKeyUsage(uint, time.Time) error { return nil }

func (r *memSettingsRepo) GetOrCreateSettings(userID uint) (*models.UserSettings, error) {
	if r.settings == nil {
		r.settings = &models.UserSettings{ID: 1, UserID: userID}
	}
	return r.settings, nil
}

func (r *memSettingsRepo) SaveSettings(s *models.UserSettings) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.settings = s
	return nil
}

func newAPIKeyApp(repo *memSettingsRepo) *fiber.App {
	ac := NewAPIKeyController(repo)
	app := fiber.New()
	app.Use(withUser(9, false))
	app.Post("/api-key", ac.HandleIssueAPIKey)
	app.Delete("/api-key", ac.HandleRevokeAPIKey)
	return app
}

func TestIssueAPIKey(t *testing.T) {
	repo := &memSettingsRepo{}
	app := newAPIKeyApp(repo)

	status, body := doJSON(t, app, "POST", "/api-key", "")
	require.Equal(t, fiber.StatusCreated, status)

	raw, _ := body["apiKey"].(string)
	assert.True(t, strings.HasPrefix(raw, "clf_"))
	assert.Equal(t, models.HashAPIKey(raw), repo.settings.APIKeyHash)
	assert.True(t, strings.HasPrefix(raw, body["prefix"].(string)))
	assert.Equal(t, 1, repo.saves)
}

func TestRevokeAPIKey(t *testing.T) {
	repo := &memSettingsRepo{}
	app := newAPIKeyApp(repo)

	status, _ := doJSON(t, app, "POST", "/api-key", "")
	require.Equal(t, fiber.StatusCreated, status)

	resp, err := app.Test(httptest.NewRequest("DELETE", "/api-key", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.False(t, repo.settings.HasActiveAPIKey())
	assert.Equal(t, 2, repo.saves)

	// revoking again is a no-op
	resp, err = app.Test(httptest.NewRequest("DELETE", "/api-key", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 2, repo.saves)
}

func TestIssueAPIKeySaveFailure(t *testing.T) {
	app := newAPIKeyApp(&memSettingsRepo{saveErr: errors.New("db down")})

	status, body := doJSON(t, app, "POST", "/api-key", "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "internal_server_error", body["error"])
}
