package billing

import (
	"fmt"
	"time"

	"github.com/ManuelReschke/ClipFox/app/models"
)

// PlanType is one of the purchasable premium durations.
type PlanType string

const (
	PlanMonthly PlanType = models.PlanTypeMonthly
	PlanYearly  PlanType = models.PlanTypeYearly
)

// Currency is the only currency prices are quoted in.
const Currency = "usd"

// Prices in minor units. Not configurable at runtime.
const (
	monthlyPrice int64 = 999
	yearlyPrice  int64 = 9999
)

// ParsePlan accepts exactly "monthly" or "yearly"; anything else fails with
// ErrInvalidPlan.
func ParsePlan(raw string) (PlanType, error) {
	switch PlanType(raw) {
	case PlanMonthly:
		return PlanMonthly, nil
	case PlanYearly:
		return PlanYearly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPlan, raw)
	}
}

// Price returns the plan price in minor units of Currency.
func (p PlanType) Price() int64 {
	switch p {
	case PlanYearly:
		return yearlyPrice
	case PlanMonthly:
		return monthlyPrice
	default:
		return 0
	}
}

// ExpiresAt adds the plan duration to from using calendar arithmetic, so
// Jan 31 + 1 month normalizes to Mar 2 in leap years (Mar 3 otherwise) like time.AddDate.
func (p PlanType) ExpiresAt(from time.Time) time.Time {
	switch p {
	case PlanYearly:
		return from.AddDate(1, 0, 0)
	default:
		return from.AddDate(0, 1, 0)
	}
}

func (p PlanType) String() string {
	return string(p)
}
