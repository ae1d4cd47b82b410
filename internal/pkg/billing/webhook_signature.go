package billing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"
)

// WebhookVerifier authenticates processor deliveries against the shared
// signing secret. The Stripe scheme signs "<timestamp>.<raw body>" with
// HMAC-SHA256, so verification must see the body exactly as received.
type WebhookVerifier struct {
	secret    string
	tolerance time.Duration
}

// NewWebhookVerifier creates a verifier for the given signing secret.
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{
		secret:    strings.TrimSpace(secret),
		tolerance: webhook.DefaultTolerance,
	}
}

// Configured reports whether a signing secret is present.
func (v *WebhookVerifier) Configured() bool {
	return v != nil && v.secret != ""
}

// Verify checks the signature header over payload and returns the decoded
// event. Header and signature problems yield ErrSignatureInvalid; a validly
// signed body that is not an event yields ErrMalformedEvent.
func (v *WebhookVerifier) Verify(payload []byte, signatureHeader string) (Event, error) {
	if !v.Configured() {
		return Event{}, fmt.Errorf("%w: signing secret not configured", ErrSignatureInvalid)
	}
	header := strings.TrimSpace(signatureHeader)
	if header == "" {
		return Event{}, fmt.Errorf("%w: missing signature header", ErrSignatureInvalid)
	}

	ev, err := webhook.ConstructEventWithOptions(payload, header, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureError(err) {
			return Event{}, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
		}
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	out := Event{
		ID:   ev.ID,
		Type: string(ev.Type),
		Kind: KindOf(string(ev.Type)),
	}
	if ev.Data != nil {
		out.Object = ev.Data.Raw
	}
	return out, nil
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}
