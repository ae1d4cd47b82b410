package entitlements

import (
	"time"

	"github.com/ManuelReschke/ClipFox/app/models"
)

type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// Resource is anything whose access may be gated on premium.
type Resource interface {
	RequiresPremium() bool
}

// HasActivePremium reports whether the user holds premium that has not
// lapsed at now. The stored flag alone is not trusted: nothing clears it
// when the expiry passes.
func HasActivePremium(u *models.User, now time.Time) bool {
	if u == nil || !u.IsPremium || u.PremiumExpiry == nil {
		return false
	}
	return u.PremiumExpiry.After(now)
}

// EffectivePlan returns the plan in force for the user at now.
func EffectivePlan(u *models.User, now time.Time) Plan {
	if HasActivePremium(u, now) {
		return PlanPremium
	}
	return PlanFree
}

// CanAccess decides whether u may use r at now. Admins bypass the premium
// check; anonymous users only reach free resources.
func CanAccess(u *models.User, r Resource, now time.Time) bool {
	if r == nil || !r.RequiresPremium() {
		return true
	}
	if u == nil {
		return false
	}
	if u.IsAdmin() {
		return true
	}
	return HasActivePremium(u, now)
}

// Entitlement is the read model exposed to clients. IsPremium is the stored
// flag; Active is what the access guard would decide right now.
type Entitlement struct {
	Plan          Plan       `json:"plan"`
	IsPremium     bool       `json:"isPremium"`
	PremiumExpiry *time.Time `json:"premiumExpiry,omitempty"`
	Active        bool       `json:"active"`
}

// Describe builds the entitlement read model for u at now.
func Describe(u *models.User, now time.Time) Entitlement {
	e := Entitlement{Plan: EffectivePlan(u, now)}
	if u == nil {
		return e
	}
	e.IsPremium = u.IsPremium
	e.PremiumExpiry = u.PremiumExpiry
	e.Active = e.Plan == PlanPremium
	return e
}
