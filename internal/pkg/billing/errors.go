package billing

import "errors"

var (
	ErrInvalidPlan         = errors.New("invalid plan type")
	ErrGatewayUnavailable  = errors.New("payment gateway unavailable")
	ErrIntentNotFound      = errors.New("payment intent not found")
	ErrSignatureInvalid    = errors.New("webhook signature invalid")
	ErrMalformedEvent      = errors.New("malformed payment event")
	ErrPaymentNotSucceeded = errors.New("payment not succeeded")
	ErrUserNotFound        = errors.New("user not found")
	ErrStoreUnavailable    = errors.New("payment store unavailable")
	// ErrIntentOwnerMismatch is returned when a caller confirms an intent
	// whose metadata names a different user.
	ErrIntentOwnerMismatch = errors.New("payment intent belongs to another user")
)
