package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ManuelReschke/ClipFox/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultStoreTimeout = 5 * time.Second

// Repository provides DB operations used by the billing service. Implementations
// return ErrUserNotFound for missing users and wrap every other storage failure
// in ErrStoreUnavailable.
type Repository interface {
	GetUserByID(ctx context.Context, userID uint) (*models.User, error)
	// SetBillingCustomerID links customerID to the user unless one is already
	// linked, and returns whichever id is stored afterwards.
	SetBillingCustomerID(ctx context.Context, userID uint, customerID string) (string, error)
	FindPaymentRecord(ctx context.Context, externalPaymentID string) (*models.PaymentRecord, error)
	// CreatePaymentAndGrant inserts rec and grants premium to its user in one
	// transaction. When a record with the same external id exists it is
	// returned with created=false and nothing is written.
	CreatePaymentAndGrant(ctx context.Context, rec *models.PaymentRecord) (*models.PaymentRecord, bool, error)
	ListPaymentRecordsByUser(ctx context.Context, userID uint, limit int) ([]models.PaymentRecord, error)
	SetPremiumOverride(ctx context.Context, userID uint, isPremium bool, expiry *time.Time) (*models.User, error)
	CreateWebhookEventIfNotExists(ctx context.Context, event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error
}

type gormRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewRepository creates a billing repository backed by GORM. Every call is
// bounded by timeout.
func NewRepository(db *gorm.DB, timeout time.Duration) Repository {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &gormRepository{db: db, timeout: timeout}
}

func (r *gormRepository) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	return r.db.WithContext(ctx), cancel
}

func storeErr(op string, err error) error {
	if errors.Is(err, ErrUserNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

func (r *gormRepository) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, userID)
		}
		return nil, storeErr("get user", err)
	}
	return &user, nil
}

func (r *gormRepository) SetBillingCustomerID(ctx context.Context, userID uint, customerID string) (string, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	res := db.Model(&models.User{}).
		Where("id = ? AND billing_customer_id = ?", userID, "").
		Update("billing_customer_id", customerID)
	if res.Error != nil {
		return "", storeErr("set billing customer", res.Error)
	}
	if res.RowsAffected > 0 {
		return customerID, nil
	}

	// Either the user vanished or another request linked a customer first.
	var user models.User
	if err := db.Select("id", "billing_customer_id").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: id %d", ErrUserNotFound, userID)
		}
		return "", storeErr("reload billing customer", err)
	}
	return user.BillingCustomerID, nil
}

func (r *gormRepository) FindPaymentRecord(ctx context.Context, externalPaymentID string) (*models.PaymentRecord, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var rec models.PaymentRecord
	err := db.Where("external_payment_id = ?", externalPaymentID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeErr("find payment record", err)
	}
	return &rec, nil
}

func (r *gormRepository) CreatePaymentAndGrant(ctx context.Context, rec *models.PaymentRecord) (*models.PaymentRecord, bool, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var stored *models.PaymentRecord
	created := false

	err := db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").First(&user, rec.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: id %d", ErrUserNotFound, rec.UserID)
			}
			return err
		}

		// The unique index on external_payment_id serializes racing writers.
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_payment_id"}},
			DoNothing: true,
		}).Create(rec)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return nil
		}

		if err := tx.Model(&models.User{}).Where("id = ?", rec.UserID).Updates(map[string]interface{}{
			"is_premium":     true,
			"premium_expiry": rec.ExpiresAt,
		}).Error; err != nil {
			return err
		}
		stored = rec
		created = true
		return nil
	})
	if err != nil {
		return nil, false, storeErr("create payment record", err)
	}
	if created {
		return stored, true, nil
	}

	// The winner's row is read after commit. Under REPEATABLE READ the losing
	// transaction's snapshot predates that row and would not see it.
	var existing models.PaymentRecord
	if err := db.Where("external_payment_id = ?", rec.ExternalPaymentID).First(&existing).Error; err != nil {
		return nil, false, storeErr("load existing payment record", err)
	}
	return &existing, false, nil
}

func (r *gormRepository) ListPaymentRecordsByUser(ctx context.Context, userID uint, limit int) ([]models.PaymentRecord, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var recs []models.PaymentRecord
	q := db.Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, storeErr("list payment records", err)
	}
	return recs, nil
}

func (r *gormRepository) SetPremiumOverride(ctx context.Context, userID uint, isPremium bool, expiry *time.Time) (*models.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var user models.User
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: id %d", ErrUserNotFound, userID)
			}
			return err
		}
		updates := map[string]interface{}{"is_premium": isPremium}
		if expiry != nil {
			updates["premium_expiry"] = *expiry
		}
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&user, userID).Error
	})
	if err != nil {
		return nil, storeErr("premium override", err)
	}
	return &user, nil
}

func (r *gormRepository) CreateWebhookEventIfNotExists(ctx context.Context, event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	tx := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, storeErr("record webhook event", tx.Error)
	}

	created := tx.RowsAffected > 0
	if !created {
		if err := db.Model(&models.BillingWebhookEvent{}).
			Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
			UpdateColumn("delivery_count", gorm.Expr("delivery_count + ?", 1)).Error; err != nil {
			return false, nil, storeErr("count webhook redelivery", err)
		}
	}

	var stored models.BillingWebhookEvent
	if err := db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, storeErr("load webhook event", err)
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	if err := db.Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return storeErr("mark webhook processed", err)
	}
	return nil
}
