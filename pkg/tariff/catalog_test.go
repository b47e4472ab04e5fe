package tariff_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/crewkit/pkg/tariff"
)

func newTestCatalog(t *testing.T) *tariff.Catalog {
	t.Helper()

	catalog, err := tariff.NewCatalog(context.Background(), tariff.DefaultConfig(),
		tariff.NewInMemSource(tariff.DefaultPlans()...))
	require.NoError(t, err)
	return catalog
}

func TestNewCatalog(t *testing.T) {
	t.Parallel()

	t.Run("loads default plans", func(t *testing.T) {
		t.Parallel()

		catalog := newTestCatalog(t)
		plans := catalog.Plans()
		require.Len(t, plans, 3)

		// Ordered by monthly price, cheapest first
		assert.Equal(t, tariff.TierStart, plans[0].Tier)
		assert.Equal(t, tariff.TierBusiness, plans[1].Tier)
		assert.Equal(t, tariff.TierUnlimited, plans[2].Tier)
	})

	t.Run("rejects plan outside the closed tier set", func(t *testing.T) {
		t.Parallel()

		_, err := tariff.NewCatalog(context.Background(), tariff.DefaultConfig(),
			tariff.NewInMemSource(tariff.Plan{Tier: "enterprise", Name: "Enterprise", PriceMonthly: 1, ObjectLimit: 1}))
		require.Error(t, err)
		assert.ErrorIs(t, err, tariff.ErrUnknownPlanTier)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		t.Parallel()

		_, err := tariff.NewCatalog(context.Background(), tariff.DefaultConfig(),
			tariff.NewInMemSource(tariff.Plan{Tier: tariff.TierStart, PriceMonthly: -1, ObjectLimit: 1}))
		require.Error(t, err)
		assert.ErrorIs(t, err, tariff.ErrNegativePlanPrice)
	})

	t.Run("rejects zero object limit", func(t *testing.T) {
		t.Parallel()

		_, err := tariff.NewCatalog(context.Background(), tariff.DefaultConfig(),
			tariff.NewInMemSource(tariff.Plan{Tier: tariff.TierStart, PriceMonthly: 1, ObjectLimit: 0}))
		require.Error(t, err)
		assert.ErrorIs(t, err, tariff.ErrInvalidPlanObjectLimit)
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		t.Parallel()

		cfg := tariff.DefaultConfig()
		cfg.YearlyDiscountPercent = 100
		_, err := tariff.NewCatalog(context.Background(), cfg,
			tariff.NewInMemSource(tariff.DefaultPlans()...))
		require.Error(t, err)
		assert.ErrorIs(t, err, tariff.ErrInvalidYearlyDiscount)
	})

	t.Run("panics on nil source", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			_, _ = tariff.NewCatalog(context.Background(), tariff.DefaultConfig(), nil)
		})
	})
}

func TestCatalogInvoiceAmount(t *testing.T) {
	t.Parallel()

	catalog := newTestCatalog(t)

	t.Run("monthly price as-is", func(t *testing.T) {
		t.Parallel()

		amount, err := catalog.InvoiceAmount(tariff.TierBusiness, tariff.IntervalMonthly)
		require.NoError(t, err)
		assert.Equal(t, int64(249000), amount)
	})

	t.Run("yearly applies discount", func(t *testing.T) {
		t.Parallel()

		// 249000 * 12 * 0.9 = 2689200
		amount, err := catalog.InvoiceAmount(tariff.TierBusiness, tariff.IntervalYearly)
		require.NoError(t, err)
		assert.Equal(t, int64(2689200), amount)
	})

	t.Run("unknown tier", func(t *testing.T) {
		t.Parallel()

		_, err := catalog.InvoiceAmount("enterprise", tariff.IntervalMonthly)
		assert.ErrorIs(t, err, tariff.ErrTierNotFound)
	})

	t.Run("unknown interval", func(t *testing.T) {
		t.Parallel()

		_, err := catalog.InvoiceAmount(tariff.TierStart, "weekly")
		assert.ErrorIs(t, err, tariff.ErrInvalidInterval)
	})
}

func TestCatalogYearlySavings(t *testing.T) {
	t.Parallel()

	catalog := newTestCatalog(t)

	savings, err := catalog.YearlySavings(tariff.TierStart)
	require.NoError(t, err)

	// 99000*12 - round(99000*12*0.9) = 1188000 - 1069200
	assert.Equal(t, int64(118800), savings)
}

func TestCatalogObjectLimits(t *testing.T) {
	t.Parallel()

	catalog := newTestCatalog(t)

	tests := []struct {
		name         string
		tier         tariff.Tier
		currentCount int64
		canAdd       bool
	}{
		{"start below limit", tariff.TierStart, 2, true},
		{"start at limit", tariff.TierStart, 3, false},
		{"business below limit", tariff.TierBusiness, 14, true},
		{"business at limit", tariff.TierBusiness, 15, false},
		{"unlimited tier never limited", tariff.TierUnlimited, 100000, true},
		{"no tier chosen yet is not limited", "", 100000, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.canAdd, catalog.CanAddProject(tt.tier, tt.currentCount))
		})
	}

	assert.Equal(t, int64(3), catalog.ObjectLimit(tariff.TierStart))
	assert.Equal(t, tariff.Unlimited, catalog.ObjectLimit(tariff.TierUnlimited))
	assert.Equal(t, tariff.Unlimited, catalog.ObjectLimit(""))
}

func TestCatalogCanDowngrade(t *testing.T) {
	t.Parallel()

	catalog := newTestCatalog(t)

	t.Run("allowed when usage fits target ceiling", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, catalog.CanDowngrade(tariff.TierStart, 3))
	})

	t.Run("rejected when objects would be stranded", func(t *testing.T) {
		t.Parallel()

		err := catalog.CanDowngrade(tariff.TierStart, 7)
		assert.ErrorIs(t, err, tariff.ErrDowngradeNotPossible)
	})

	t.Run("unlimited target always allowed", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, catalog.CanDowngrade(tariff.TierUnlimited, 100000))
	})
}

func TestPeriodDays(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 30, tariff.PeriodDays(tariff.IntervalMonthly))
	assert.Equal(t, 365, tariff.PeriodDays(tariff.IntervalYearly))
}

func TestYAMLSource(t *testing.T) {
	t.Parallel()

	t.Run("decodes plan list", func(t *testing.T) {
		t.Parallel()

		doc := `
- tier: start
  name: Start
  price_monthly: 99000
  object_limit: 3
- tier: unlimited
  name: Unlimited
  price_monthly: 490000
  object_limit: -1
  highlighted: true
`
		catalog, err := tariff.NewCatalog(context.Background(), tariff.DefaultConfig(),
			tariff.NewYAMLSource(strings.NewReader(doc)))
		require.NoError(t, err)

		plan, err := catalog.Plan(tariff.TierUnlimited)
		require.NoError(t, err)
		assert.Equal(t, "Unlimited", plan.Name)
		assert.Equal(t, tariff.Unlimited, plan.ObjectLimit)
		assert.True(t, plan.Highlighted)
	})

	t.Run("rejects duplicate tiers", func(t *testing.T) {
		t.Parallel()

		doc := `
- tier: start
  name: Start
  price_monthly: 1
  object_limit: 1
- tier: start
  name: Start again
  price_monthly: 2
  object_limit: 2
`
		_, err := tariff.NewCatalog(context.Background(), tariff.DefaultConfig(),
			tariff.NewYAMLSource(strings.NewReader(doc)))
		assert.ErrorIs(t, err, tariff.ErrDuplicatePlanTier)
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		t.Parallel()

		_, err := tariff.NewCatalog(context.Background(), tariff.DefaultConfig(),
			tariff.NewYAMLSource(strings.NewReader("{not a list")))
		assert.ErrorIs(t, err, tariff.ErrFailedToLoadPlans)
	})
}
