package billing

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/ClipFox/app/models"
)

// CustomerResolver maps a local user onto a processor customer, creating the
// remote customer at most once per successful link.
type CustomerResolver struct {
	repo    Repository
	gateway Gateway
}

// NewCustomerResolver creates a resolver.
func NewCustomerResolver(repo Repository, gateway Gateway) *CustomerResolver {
	return &CustomerResolver{repo: repo, gateway: gateway}
}

// ResolveCustomer returns the user's processor customer id, creating and
// linking one on first use. If two requests race, the first stored link wins
// and the loser's remote customer stays orphaned on the processor side.
func (r *CustomerResolver) ResolveCustomer(ctx context.Context, user *models.User) (string, error) {
	if id := strings.TrimSpace(user.BillingCustomerID); id != "" {
		return id, nil
	}

	created, err := r.gateway.CreateCustomer(ctx, CustomerParams{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
	if err != nil {
		return "", err
	}

	stored, err := r.repo.SetBillingCustomerID(ctx, user.ID, created)
	if err != nil {
		return "", err
	}
	if stored != created {
		log.Warnf("[Billing] user %d already linked to customer %s, discarding %s", user.ID, stored, created)
	}
	user.BillingCustomerID = stored
	return stored, nil
}
