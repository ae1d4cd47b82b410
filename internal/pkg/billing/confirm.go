package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/ManuelReschke/ClipFox/app/models"
)

const (
	msgPremiumActivated = "Premium access activated"
	msgAlreadyActivated = "Payment already processed"
)

// ConfirmSuccess is the client-driven confirmation path. It re-reads the
// intent from the processor, so a client can never grant itself premium by
// claiming success; the intent metadata decides which user is granted.
func (s *Service) ConfirmSuccess(ctx context.Context, callerID uint, intentID string) (*ConfirmationResult, error) {
	id := strings.TrimSpace(intentID)
	if id == "" {
		return nil, fmt.Errorf("%w: empty intent id", ErrIntentNotFound)
	}

	intent, err := s.gateway.RetrieveIntent(ctx, id)
	if err != nil {
		return nil, err
	}
	if intent.Status != IntentSucceeded {
		return nil, fmt.Errorf("%w: intent %s is %s", ErrPaymentNotSucceeded, intent.ID, intent.Status)
	}

	in, err := activationFromIntent(intent, models.PaymentSourceClientConfirm, s.now())
	if err != nil {
		return nil, err
	}
	if callerID != 0 && in.UserID != callerID {
		return nil, fmt.Errorf("%w: intent %s", ErrIntentOwnerMismatch, intent.ID)
	}

	rec, created, err := s.activator.Activate(ctx, in)
	if err != nil {
		return nil, err
	}

	res := &ConfirmationResult{Record: rec, AlreadyActivated: !created, Message: msgPremiumActivated}
	if !created {
		res.Message = msgAlreadyActivated
	}
	return res, nil
}
