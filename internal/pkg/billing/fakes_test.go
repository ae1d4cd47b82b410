package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ManuelReschke/ClipFox/app/models"
)

// memoryRepository is a Repository whose payment insert behaves like a unique
// index: the first writer for an external id wins, everyone else reads.
type memoryRepository struct {
	mu       sync.Mutex
	users    map[uint]*models.User
	records  map[string]*models.PaymentRecord
	events   map[string]*models.BillingWebhookEvent
	grants   int
	nextID   uint
	failNext error
}

func newMemoryRepository(users ...*models.User) *memoryRepository {
	r := &memoryRepository{
		users:   map[uint]*models.User{},
		records: map[string]*models.PaymentRecord{},
		events:  map[string]*models.BillingWebhookEvent{},
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memoryRepository) takeFailure() error {
	err := r.failNext
	r.failNext = nil
	return err
}

func (r *memoryRepository) GetUserByID(_ context.Context, userID uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return nil, err
	}
	u, ok := r.users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, userID)
	}
	cp := *u
	return &cp, nil
}

func (r *memoryRepository) SetBillingCustomerID(_ context.Context, userID uint, customerID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return "", fmt.Errorf("%w: id %d", ErrUserNotFound, userID)
	}
	if u.BillingCustomerID == "" {
		u.BillingCustomerID = customerID
	}
	return u.BillingCustomerID, nil
}

func (r *memoryRepository) FindPaymentRecord(_ context.Context, externalPaymentID string) (*models.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return nil, err
	}
	rec, ok := r.records[externalPaymentID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *memoryRepository) CreatePaymentAndGrant(_ context.Context, rec *models.PaymentRecord) (*models.PaymentRecord, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[rec.UserID]
	if !ok {
		return nil, false, fmt.Errorf("%w: id %d", ErrUserNotFound, rec.UserID)
	}
	if existing, ok := r.records[rec.ExternalPaymentID]; ok {
		cp := *existing
		return &cp, false, nil
	}
	r.nextID++
	rec.ID = r.nextID
	stored := *rec
	r.records[rec.ExternalPaymentID] = &stored

	expiry := rec.ExpiresAt
	u.IsPremium = true
	u.PremiumExpiry = &expiry
	r.grants++
	return rec, true, nil
}

func (r *memoryRepository) ListPaymentRecordsByUser(_ context.Context, userID uint, limit int) ([]models.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.PaymentRecord
	for _, rec := range r.records {
		if rec.UserID == userID {
			out = append(out, *rec)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryRepository) SetPremiumOverride(_ context.Context, userID uint, isPremium bool, expiry *time.Time) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, userID)
	}
	u.IsPremium = isPremium
	if expiry != nil {
		e := *expiry
		u.PremiumExpiry = &e
	}
	cp := *u
	return &cp, nil
}

func (r *memoryRepository) CreateWebhookEventIfNotExists(_ context.Context, event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return false, nil, err
	}
	if existing, ok := r.events[event.ProviderEventID]; ok {
		existing.DeliveryCount++
		cp := *existing
		return false, &cp, nil
	}
	r.nextID++
	event.ID = r.nextID
	event.DeliveryCount = 1
	stored := *event
	r.events[event.ProviderEventID] = &stored
	return true, event, nil
}

func (r *memoryRepository) MarkWebhookProcessed(_ context.Context, id uint, processingError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.ID == id {
			now := time.Now()
			ev.ProcessedAt = &now
			ev.ProcessingError = processingError
			return nil
		}
	}
	return errors.New("webhook event not found")
}

func (r *memoryRepository) recordCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func (r *memoryRepository) grantCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.grants
}

func (r *memoryRepository) user(id uint) models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.users[id]
}

// fakeGateway records calls and serves intents from a map.
type fakeGateway struct {
	mu            sync.Mutex
	intents       map[string]*PaymentIntent
	customerCalls int
	intentCalls   int
	lastIntent    IntentParams
	err           error
	seq           int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: map[string]*PaymentIntent{}}
}

func (g *fakeGateway) CreateCustomer(_ context.Context, params CustomerParams) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	g.customerCalls++
	return fmt.Sprintf("cus_%d_%d", params.UserID, g.customerCalls), nil
}

func (g *fakeGateway) CreatePaymentIntent(_ context.Context, params IntentParams) (*PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.intentCalls++
	g.seq++
	g.lastIntent = params
	id := fmt.Sprintf("pi_test_%d", g.seq)
	pi := &PaymentIntent{
		ID:                 id,
		ClientSecret:       id + "_secret_abc",
		Amount:             params.Amount,
		Currency:           params.Currency,
		BillingCustomerID:  params.BillingCustomerID,
		Status:             IntentPending,
		Metadata:           params.Metadata,
		PaymentMethodTypes: []string{"card"},
	}
	g.intents[id] = pi
	return pi, nil
}

func (g *fakeGateway) RetrieveIntent(_ context.Context, intentID string) (*PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	pi, ok := g.intents[intentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIntentNotFound, intentID)
	}
	cp := *pi
	return &cp, nil
}

func (g *fakeGateway) put(pi *PaymentIntent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[pi.ID] = pi
}

func succeededIntent(id string, userID uint, plan PlanType) *PaymentIntent {
	return &PaymentIntent{
		ID:                 id,
		Amount:             plan.Price(),
		Currency:           Currency,
		BillingCustomerID:  "cus_existing",
		Status:             IntentSucceeded,
		Metadata:           intentMetadata(userID, plan),
		PaymentMethodTypes: []string{"card"},
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
