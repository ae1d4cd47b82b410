package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlan(t *testing.T) {
	tests := []struct {
		in   string
		want PlanType
	}{
		{in: "monthly", want: PlanMonthly},
		{in: "yearly", want: PlanYearly},
	}

	for _, tt := range tests {
		got, err := ParsePlan(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "ParsePlan(%q)", tt.in)
	}

	for _, bad := range []string{"weekly", "", "lifetime", " MONTHLY ", "Yearly", "monthly "} {
		_, err := ParsePlan(bad)
		if !errors.Is(err, ErrInvalidPlan) {
			t.Fatalf("ParsePlan(%q) err = %v, want ErrInvalidPlan", bad, err)
		}
	}
}

func TestPlanPrice(t *testing.T) {
	assert.Equal(t, int64(999), PlanMonthly.Price())
	assert.Equal(t, int64(9999), PlanYearly.Price())
	assert.Equal(t, int64(0), PlanType("weekly").Price())
}

func TestPlanExpiresAt(t *testing.T) {
	occurred := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 2, 15, 10, 30, 0, 0, time.UTC), PlanMonthly.ExpiresAt(occurred))
	assert.Equal(t, time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC), PlanYearly.ExpiresAt(occurred))
}

func TestPlanExpiresAtMonthEndRollover(t *testing.T) {
	// 2024 is a leap year: Jan 31 + 1 month = "Feb 31" = Mar 2.
	jan31 := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), PlanMonthly.ExpiresAt(jan31))

	leapDay := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), PlanYearly.ExpiresAt(leapDay))
}
