package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ClipFox/app/models"
	"github.com/ManuelReschke/ClipFox/internal/pkg/env"
)

const defaultHistoryLimit = 100

// Service ties the payment pipeline together: intent creation, both
// confirmation paths and the read side of the payment ledger.
type Service struct {
	repo       Repository
	gateway    Gateway
	verifier   *WebhookVerifier
	customers  *CustomerResolver
	activator  *Activator
	dispatcher *Dispatcher
	now        func() time.Time
}

// NewService creates a billing service from injected collaborators. A nil
// clock defaults to time.Now.
func NewService(repo Repository, gateway Gateway, verifier *WebhookVerifier, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	activator := NewActivator(repo)
	return &Service{
		repo:       repo,
		gateway:    gateway,
		verifier:   verifier,
		customers:  NewCustomerResolver(repo, gateway),
		activator:  activator,
		dispatcher: NewDispatcher(activator, now),
		now:        now,
	}
}

// NewServiceFromDB creates a billing service from a GORM DB handle and the
// Stripe settings in the environment. Without a secret key the service still
// serves history and webhooks but every processor call fails with
// ErrGatewayUnavailable.
func NewServiceFromDB(db *gorm.DB) *Service {
	cfg := LoadStripeConfig()
	repo := NewRepository(db, env.GetEnvSeconds("DB_TIMEOUT_SECONDS", defaultStoreTimeout))

	var gateway Gateway
	sg, err := NewStripeGateway(cfg)
	if err != nil {
		log.Warnf("[Billing] stripe gateway disabled: %v", err)
		gateway = unconfiguredGateway{}
	} else {
		gateway = sg
	}

	verifier := NewWebhookVerifier(cfg.WebhookSecret)
	if !verifier.Configured() {
		log.Warn("[Billing] STRIPE_WEBHOOK_SECRET is empty, every webhook will be rejected")
	}
	return NewService(repo, gateway, verifier, nil)
}

// CreateIntent starts a purchase of plan for the user. The plan is checked
// before any remote call so bad input never reaches the processor.
func (s *Service) CreateIntent(ctx context.Context, userID uint, rawPlan string) (*IntentResult, error) {
	plan, err := ParsePlan(rawPlan)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	customerID, err := s.customers.ResolveCustomer(ctx, user)
	if err != nil {
		return nil, err
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, IntentParams{
		Amount:            plan.Price(),
		Currency:          Currency,
		BillingCustomerID: customerID,
		Metadata:          intentMetadata(user.ID, plan),
	})
	if err != nil {
		return nil, err
	}

	log.Infof("[Billing] created intent %s for user %d (%s, %d %s)", intent.ID, user.ID, plan, plan.Price(), Currency)
	return &IntentResult{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       plan.Price(),
		Currency:     Currency,
	}, nil
}

// HandleWebhook verifies a raw delivery, keeps an audit row for it and
// dispatches it. payload must be the body exactly as received.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (Ack, error) {
	ev, err := s.verifier.Verify(payload, signatureHeader)
	if err != nil {
		return Ack{}, err
	}

	created, stored, err := s.repo.CreateWebhookEventIfNotExists(ctx, &models.BillingWebhookEvent{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: ev.ID,
		EventType:       ev.Type,
		PayloadJSON:     string(payload),
	})
	if err != nil {
		return Ack{Kind: ev.Kind}, err
	}
	if !created {
		log.Debugf("[Webhook] redelivery of event %s (%d deliveries)", ev.ID, stored.DeliveryCount)
	}

	ack, dispatchErr := s.dispatcher.Dispatch(ctx, ev)

	processingErr := ""
	if dispatchErr != nil {
		processingErr = dispatchErr.Error()
	}
	if err := s.repo.MarkWebhookProcessed(ctx, stored.ID, processingErr); err != nil {
		log.Warnf("[Webhook] failed to mark event %s processed: %v", ev.ID, err)
	}
	return ack, dispatchErr
}

// PaymentHistory lists a user's payment records, newest first.
func (s *Service) PaymentHistory(ctx context.Context, userID uint, limit int) ([]models.PaymentRecord, error) {
	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}
	return s.repo.ListPaymentRecordsByUser(ctx, userID, limit)
}

// SetPremiumOverride lets an operator grant or revoke premium by hand.
// Granting without an expiry grants one year from now; revoking leaves the
// stored expiry untouched.
func (s *Service) SetPremiumOverride(ctx context.Context, userID uint, isPremium bool, expiry *time.Time) (*models.User, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w: id 0", ErrUserNotFound)
	}
	if isPremium && expiry == nil {
		def := PlanYearly.ExpiresAt(s.now().UTC())
		expiry = &def
	}
	user, err := s.repo.SetPremiumOverride(ctx, userID, isPremium, expiry)
	if err != nil {
		return nil, err
	}
	log.Infof("[Billing] premium override for user %d: premium=%t", userID, isPremium)
	return user, nil
}

// GetUser loads a user through the billing store.
func (s *Service) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

// unconfiguredGateway stands in when no secret key is set.
type unconfiguredGateway struct{}

var errGatewayNotConfigured = errors.New("stripe is not configured")

func (unconfiguredGateway) CreateCustomer(context.Context, CustomerParams) (string, error) {
	return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, errGatewayNotConfigured)
}

func (unconfiguredGateway) CreatePaymentIntent(context.Context, IntentParams) (*PaymentIntent, error) {
	return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, errGatewayNotConfigured)
}

func (unconfiguredGateway) RetrieveIntent(_ context.Context, id string) (*PaymentIntent, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty intent id", ErrIntentNotFound)
	}
	return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, errGatewayNotConfigured)
}
