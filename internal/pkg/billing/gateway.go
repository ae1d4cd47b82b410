package billing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Gateway is the payment processor boundary. Implementations must bound every
// call in time and translate failures into ErrGatewayUnavailable or
// ErrIntentNotFound.
type Gateway interface {
	CreateCustomer(ctx context.Context, params CustomerParams) (string, error)
	CreatePaymentIntent(ctx context.Context, params IntentParams) (*PaymentIntent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*PaymentIntent, error)
}

// intentMetadata builds the correlation metadata stored on a remote intent.
func intentMetadata(userID uint, plan PlanType) map[string]string {
	return map[string]string{
		metadataUserID:   strconv.FormatUint(uint64(userID), 10),
		metadataPlanType: string(plan),
	}
}

// activationFromIntent turns a succeeded intent into activator input. The
// intent metadata, not any caller-supplied identity, decides who is granted.
func activationFromIntent(intent *PaymentIntent, source string, occurredAt time.Time) (ActivationInput, error) {
	if intent == nil || strings.TrimSpace(intent.ID) == "" {
		return ActivationInput{}, fmt.Errorf("%w: missing intent id", ErrMalformedEvent)
	}

	rawUserID := strings.TrimSpace(intent.Metadata[metadataUserID])
	userID, err := strconv.ParseUint(rawUserID, 10, 64)
	if err != nil || userID == 0 {
		return ActivationInput{}, fmt.Errorf("%w: intent %s has invalid %s metadata %q", ErrMalformedEvent, intent.ID, metadataUserID, rawUserID)
	}

	plan, err := ParsePlan(intent.Metadata[metadataPlanType])
	if err != nil {
		return ActivationInput{}, fmt.Errorf("%w: intent %s: %v", ErrMalformedEvent, intent.ID, err)
	}

	method := ""
	if len(intent.PaymentMethodTypes) > 0 {
		method = intent.PaymentMethodTypes[0]
	}

	return ActivationInput{
		ExternalPaymentID: intent.ID,
		UserID:            uint(userID),
		BillingCustomerID: intent.BillingCustomerID,
		Amount:            intent.Amount,
		Currency:          strings.ToLower(intent.Currency),
		PlanType:          plan,
		PaymentMethod:     method,
		Source:            source,
		OccurredAt:        occurredAt,
	}, nil
}
