package billing

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ManuelReschke/ClipFox/app/models"
)

func newSQLiteRepository(t *testing.T) (Repository, *gorm.DB) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "billing.db") + "?_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.PaymentRecord{}, &models.BillingWebhookEvent{}))
	return NewRepository(db, 5*time.Second), db
}

func seedUser(t *testing.T, db *gorm.DB, id uint) {
	t.Helper()
	require.NoError(t, db.Create(&models.User{
		ID:     id,
		Name:   "user",
		Email:  "user" + string(rune('a'+id)) + "@example.com",
		Role:   models.ROLE_USER,
		Status: models.STATUS_ACTIVE,
	}).Error)
}

func paymentRecord(id string, userID uint, at time.Time) *models.PaymentRecord {
	return &models.PaymentRecord{
		ExternalPaymentID: id,
		UserID:            userID,
		Amount:            999,
		Currency:          "usd",
		PlanType:          models.PlanTypeMonthly,
		Status:            models.PaymentStatusCompleted,
		Source:            models.PaymentSourceWebhook,
		CreatedAt:         at,
		ExpiresAt:         at.AddDate(0, 1, 0),
	}
}

func TestGormCreatePaymentAndGrant(t *testing.T) {
	repo, db := newSQLiteRepository(t)
	seedUser(t, db, 1)
	ctx := context.Background()
	at := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	stored, created, err := repo.CreatePaymentAndGrant(ctx, paymentRecord("pi_1", 1, at))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, stored.ID)

	again, created, err := repo.CreatePaymentAndGrant(ctx, paymentRecord("pi_1", 1, at.Add(time.Hour)))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, stored.ID, again.ID)

	var count int64
	require.NoError(t, db.Model(&models.PaymentRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	user, err := repo.GetUserByID(ctx, 1)
	require.NoError(t, err)
	assert.True(t, user.IsPremium)
	require.NotNil(t, user.PremiumExpiry)
	assert.True(t, user.PremiumExpiry.Equal(at.AddDate(0, 1, 0)))

	found, err := repo.FindPaymentRecord(ctx, "pi_1")
	require.NoError(t, err)
	require.NotNil(t, found)
	missing, err := repo.FindPaymentRecord(ctx, "pi_none")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

// The losing writer must read the winner's record outside its own
// transaction, otherwise a REPEATABLE READ snapshot hides the committed row.
func TestGormDuplicateRecordReadAfterCommit(t *testing.T) {
	repo, db := newSQLiteRepository(t)
	seedUser(t, db, 1)
	ctx := context.Background()
	at := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	first, created, err := repo.CreatePaymentAndGrant(ctx, paymentRecord("pi_dup", 1, at))
	require.NoError(t, err)
	require.True(t, created)

	var mu sync.Mutex
	var lookupsInTx, lookups int
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:payment_lookup_tx", func(d *gorm.DB) {
		if d.Statement.Table != "payment_records" {
			return
		}
		_, inTx := d.Statement.ConnPool.(gorm.TxCommitter)
		mu.Lock()
		defer mu.Unlock()
		lookups++
		if inTx {
			lookupsInTx++
		}
	}))
	t.Cleanup(func() { _ = db.Callback().Query().Remove("test:payment_lookup_tx") })

	again, created, err := repo.CreatePaymentAndGrant(ctx, paymentRecord("pi_dup", 1, at.Add(time.Hour)))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.True(t, again.CreatedAt.Equal(at))

	assert.Equal(t, 1, lookups)
	assert.Zero(t, lookupsInTx)
}

func TestGormCreatePaymentUnknownUser(t *testing.T) {
	repo, db := newSQLiteRepository(t)

	_, _, err := repo.CreatePaymentAndGrant(context.Background(), paymentRecord("pi_x", 99, time.Now()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUserNotFound))

	var count int64
	require.NoError(t, db.Model(&models.PaymentRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGormConcurrentInsertsCollapse(t *testing.T) {
	repo, db := newSQLiteRepository(t)
	seedUser(t, db, 1)
	at := time.Now().UTC()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := repo.CreatePaymentAndGrant(context.Background(), paymentRecord("pi_race", 1, at))
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	var count int64
	require.NoError(t, db.Model(&models.PaymentRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGormSetBillingCustomerIDFirstWriterWins(t *testing.T) {
	repo, db := newSQLiteRepository(t)
	seedUser(t, db, 1)
	ctx := context.Background()

	id, err := repo.SetBillingCustomerID(ctx, 1, "cus_first")
	require.NoError(t, err)
	assert.Equal(t, "cus_first", id)

	id, err = repo.SetBillingCustomerID(ctx, 1, "cus_second")
	require.NoError(t, err)
	assert.Equal(t, "cus_first", id)

	_, err = repo.SetBillingCustomerID(ctx, 42, "cus_x")
	assert.True(t, errors.Is(err, ErrUserNotFound))
}

func TestGormListPaymentRecordsNewestFirst(t *testing.T) {
	repo, db := newSQLiteRepository(t)
	seedUser(t, db, 1)
	seedUser(t, db, 2)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"pi_a", "pi_b", "pi_c"} {
		_, _, err := repo.CreatePaymentAndGrant(ctx, paymentRecord(id, 1, base.AddDate(0, i, 0)))
		require.NoError(t, err)
	}
	_, _, err := repo.CreatePaymentAndGrant(ctx, paymentRecord("pi_other", 2, base))
	require.NoError(t, err)

	recs, err := repo.ListPaymentRecordsByUser(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "pi_c", recs[0].ExternalPaymentID)
	assert.Equal(t, "pi_b", recs[1].ExternalPaymentID)
}

func TestGormWebhookEventDeduplicates(t *testing.T) {
	repo, _ := newSQLiteRepository(t)
	ctx := context.Background()

	ev := func() *models.BillingWebhookEvent {
		return &models.BillingWebhookEvent{
			Provider:        models.BillingProviderStripe,
			ProviderEventID: "evt_1",
			EventType:       "payment_intent.succeeded",
			PayloadJSON:     `{}`,
		}
	}

	created, stored, err := repo.CreateWebhookEventIfNotExists(ctx, ev())
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, stored.DeliveryCount)

	created, stored, err = repo.CreateWebhookEventIfNotExists(ctx, ev())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 2, stored.DeliveryCount)

	require.NoError(t, repo.MarkWebhookProcessed(ctx, stored.ID, ""))
}

func TestGormSetPremiumOverride(t *testing.T) {
	repo, db := newSQLiteRepository(t)
	seedUser(t, db, 1)
	ctx := context.Background()
	expiry := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	user, err := repo.SetPremiumOverride(ctx, 1, true, &expiry)
	require.NoError(t, err)
	assert.True(t, user.IsPremium)
	require.NotNil(t, user.PremiumExpiry)
	assert.True(t, user.PremiumExpiry.Equal(expiry))

	user, err = repo.SetPremiumOverride(ctx, 1, false, nil)
	require.NoError(t, err)
	assert.False(t, user.IsPremium)
	require.NotNil(t, user.PremiumExpiry)

	_, err = repo.SetPremiumOverride(ctx, 9, true, nil)
	assert.True(t, errors.Is(err, ErrUserNotFound))
}
