package models

import "time"

const (
	PlanTypeMonthly = "monthly"
	PlanTypeYearly  = "yearly"
)

const PaymentStatusCompleted = "completed"

// Which confirmation path committed a payment record.
const (
	PaymentSourceClientConfirm = "client_confirm"
	PaymentSourceWebhook       = "webhook"
)

// PaymentRecord is an immutable ledger entry for one successful processor
// payment. ExternalPaymentID is the idempotency key: the unique index is the
// only thing standing between two racing confirmations and a double grant.
type PaymentRecord struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	ExternalPaymentID string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_payment_records_external_payment_id" json:"external_payment_id"`
	UserID            uint      `gorm:"not null;index" json:"user_id"`
	BillingCustomerID string    `gorm:"type:varchar(191);not null;default:''" json:"billing_customer_id"`
	Amount            int64     `gorm:"not null" json:"amount"`
	Currency          string    `gorm:"type:varchar(3);not null" json:"currency"`
	PlanType          string    `gorm:"type:varchar(16);not null" json:"plan_type"`
	Status            string    `gorm:"type:varchar(32);not null;default:'completed'" json:"status"`
	PaymentMethod     string    `gorm:"type:varchar(64);not null;default:''" json:"payment_method"`
	Source            string    `gorm:"type:varchar(32);not null;default:''" json:"source"`
	CreatedAt         time.Time `gorm:"not null;index" json:"created_at"`
	ExpiresAt         time.Time `gorm:"not null" json:"expires_at"`
}
