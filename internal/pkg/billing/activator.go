package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/ClipFox/app/models"
)

// Activator converts a successful payment into exactly one PaymentRecord and
// one entitlement grant, no matter how often or from which path it is called.
type Activator struct {
	repo Repository
}

// NewActivator creates an activator on top of repo.
func NewActivator(repo Repository) *Activator {
	return &Activator{repo: repo}
}

// Activate records the payment and grants premium until OccurredAt plus the
// plan duration. If the payment id is already recorded the stored record is
// returned with created=false and nothing is written.
//
// premium_expiry is overwritten, not extended from a later existing expiry,
// so two stacked monthly purchases do not add up to two months.
func (a *Activator) Activate(ctx context.Context, in ActivationInput) (*models.PaymentRecord, bool, error) {
	id := strings.TrimSpace(in.ExternalPaymentID)
	if id == "" || in.UserID == 0 {
		return nil, false, fmt.Errorf("%w: external payment id and user id are required", ErrMalformedEvent)
	}
	plan, err := ParsePlan(string(in.PlanType))
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	// Fast path for redeliveries. The insert below stays the real guard.
	existing, err := a.repo.FindPaymentRecord(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		activationsTotal.WithLabelValues(in.Source, "duplicate").Inc()
		return existing, false, nil
	}

	occurred := in.OccurredAt.UTC()
	rec := &models.PaymentRecord{
		ExternalPaymentID: id,
		UserID:            in.UserID,
		BillingCustomerID: in.BillingCustomerID,
		Amount:            in.Amount,
		Currency:          strings.ToLower(in.Currency),
		PlanType:          string(plan),
		Status:            models.PaymentStatusCompleted,
		PaymentMethod:     in.PaymentMethod,
		Source:            in.Source,
		CreatedAt:         occurred,
		ExpiresAt:         plan.ExpiresAt(occurred),
	}

	stored, created, err := a.repo.CreatePaymentAndGrant(ctx, rec)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			activationsTotal.WithLabelValues(in.Source, "user_not_found").Inc()
		} else {
			activationsTotal.WithLabelValues(in.Source, "error").Inc()
		}
		return nil, false, err
	}

	if created {
		activationsTotal.WithLabelValues(in.Source, "created").Inc()
		log.Infof("[Billing] premium granted to user %d until %s via %s (payment %s, plan %s)",
			stored.UserID, stored.ExpiresAt.Format(time.RFC3339), in.Source, id, plan)
	} else {
		activationsTotal.WithLabelValues(in.Source, "duplicate").Inc()
	}
	return stored, created, nil
}
