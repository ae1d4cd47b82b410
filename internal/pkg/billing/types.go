package billing

import (
	"time"

	"github.com/ManuelReschke/ClipFox/app/models"
)

// IntentStatus is the processor-neutral view of a payment intent lifecycle.
type IntentStatus string

const (
	IntentPending   IntentStatus = "pending"
	IntentSucceeded IntentStatus = "succeeded"
	IntentFailed    IntentStatus = "failed"
)

// Metadata keys attached to every intent so processor callbacks can be
// correlated to a local user without a lookup table.
const (
	metadataUserID   = "userId"
	metadataPlanType = "planType"
)

// PaymentIntent is the processor-side charge as seen by this service. It is
// never persisted locally beyond its id.
type PaymentIntent struct {
	ID                 string
	ClientSecret       string
	Amount             int64
	Currency           string
	BillingCustomerID  string
	Status             IntentStatus
	Metadata           map[string]string
	PaymentMethodTypes []string
}

// CustomerParams describes a remote customer to create for a local user.
type CustomerParams struct {
	UserID uint
	Email  string
	Name   string
}

// IntentParams describes a remote payment intent to create.
type IntentParams struct {
	Amount            int64
	Currency          string
	BillingCustomerID string
	Metadata          map[string]string
}

// IntentResult is what the paying client needs to complete the charge.
type IntentResult struct {
	IntentID     string `json:"-"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// ActivationInput is the normalized payment both confirmation paths hand to
// the Activator.
type ActivationInput struct {
	ExternalPaymentID string
	UserID            uint
	BillingCustomerID string
	Amount            int64
	Currency          string
	PlanType          PlanType
	PaymentMethod     string
	Source            string
	OccurredAt        time.Time
}

// ConfirmationResult is returned by the client-confirmed success path.
type ConfirmationResult struct {
	Message          string
	Record           *models.PaymentRecord
	AlreadyActivated bool
}
