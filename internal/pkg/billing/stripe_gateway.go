package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/ManuelReschke/ClipFox/internal/pkg/env"
)

const defaultStripeTimeout = 15 * time.Second

// StripeConfig carries processor credentials. It is passed explicitly to the
// gateway and verifier; nothing here touches the package-level stripe.Key.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	// APIURL overrides the Stripe API endpoint, e.g. for stripe-mock.
	APIURL  string
	Timeout time.Duration
}

// LoadStripeConfig reads Stripe settings from the environment.
func LoadStripeConfig() StripeConfig {
	return StripeConfig{
		SecretKey:     strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")),
		WebhookSecret: strings.TrimSpace(env.GetEnv("STRIPE_WEBHOOK_SECRET", "")),
		APIURL:        strings.TrimSpace(env.GetEnv("STRIPE_API_URL", "")),
		Timeout:       env.GetEnvSeconds("STRIPE_TIMEOUT_SECONDS", defaultStripeTimeout),
	}
}

// StripeGateway implements Gateway on top of an injected Stripe API client.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway builds a client with its own backends so timeouts and the
// retry policy stay local to this gateway. Retries are disabled: creating an
// intent is not proven idempotent and retrying is the caller's decision.
func NewStripeGateway(cfg StripeConfig) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is not configured")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultStripeTimeout
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(0),
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripe.String(cfg.APIURL)
	}
	backends := stripe.NewBackendsWithConfig(backendCfg)
	api := &client.API{}
	api.Init(cfg.SecretKey, backends)

	return &StripeGateway{api: api}, nil
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, params CustomerParams) (string, error) {
	cp := &stripe.CustomerParams{
		Email: stripe.String(params.Email),
		Name:  stripe.String(params.Name),
	}
	cp.Context = ctx
	cp.AddMetadata(metadataUserID, strconv.FormatUint(uint64(params.UserID), 10))

	cus, err := g.api.Customers.New(cp)
	if err != nil {
		return "", classifyStripeError("create customer", err, false)
	}
	return cus.ID, nil
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, params IntentParams) (*PaymentIntent, error) {
	pp := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(params.Amount),
		Currency: stripe.String(strings.ToLower(params.Currency)),
		Customer: stripe.String(params.BillingCustomerID),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	pp.Context = ctx
	for k, v := range params.Metadata {
		pp.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(pp)
	if err != nil {
		return nil, classifyStripeError("create payment intent", err, false)
	}
	return intentFromStripe(pi), nil
}

func (g *StripeGateway) RetrieveIntent(ctx context.Context, intentID string) (*PaymentIntent, error) {
	id := strings.TrimSpace(intentID)
	if id == "" {
		return nil, fmt.Errorf("%w: empty intent id", ErrIntentNotFound)
	}
	pp := &stripe.PaymentIntentParams{}
	pp.Context = ctx

	pi, err := g.api.PaymentIntents.Get(id, pp)
	if err != nil {
		return nil, classifyStripeError("retrieve payment intent "+id, err, true)
	}
	return intentFromStripe(pi), nil
}

// classifyStripeError maps SDK failures onto the billing error taxonomy. Only
// lookups report a missing resource as ErrIntentNotFound; on create calls a
// missing object (e.g. a customer deleted on the Stripe side) is a gateway
// failure.
func classifyStripeError(op string, err error, lookup bool) error {
	var stripeErr *stripe.Error
	if lookup && errors.As(err, &stripeErr) {
		if stripeErr.Code == stripe.ErrorCodeResourceMissing || stripeErr.HTTPStatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s: %v", ErrIntentNotFound, op, err)
		}
	}
	log.Errorf("[Billing] stripe %s failed: %v", op, err)
	return fmt.Errorf("%w: %s: %v", ErrGatewayUnavailable, op, err)
}

func intentFromStripe(pi *stripe.PaymentIntent) *PaymentIntent {
	if pi == nil {
		return nil
	}
	out := &PaymentIntent{
		ID:                 pi.ID,
		ClientSecret:       pi.ClientSecret,
		Amount:             pi.Amount,
		Currency:           string(pi.Currency),
		Status:             intentStatusFromStripe(pi),
		Metadata:           pi.Metadata,
		PaymentMethodTypes: pi.PaymentMethodTypes,
	}
	if pi.Customer != nil {
		out.BillingCustomerID = pi.Customer.ID
	}
	if out.Metadata == nil {
		out.Metadata = map[string]string{}
	}
	return out
}

// A declined charge returns the intent to requires_payment_method with
// LastPaymentError set; without the error it simply has not been paid yet.
func intentStatusFromStripe(pi *stripe.PaymentIntent) IntentStatus {
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return IntentSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return IntentFailed
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		if pi.LastPaymentError != nil {
			return IntentFailed
		}
		return IntentPending
	default:
		return IntentPending
	}
}
