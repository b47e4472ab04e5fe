package tariff

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// Catalog is the validated, immutable tariff policy: the closed tier set plus
// the billing constants. All methods are pure lookups; a Catalog carries no
// mutable state and is safe for concurrent use.
type Catalog struct {
	cfg   Config
	plans map[Tier]Plan
}

// NewCatalog loads plans from src and validates them against the closed tier
// set. Panics if src is nil to fail fast during initialization.
func NewCatalog(ctx context.Context, cfg Config, src Source) (*Catalog, error) {
	if src == nil {
		panic("tariff: Source is required")
	}

	if err := cfg.validate(); err != nil {
		return nil, errors.Join(ErrInvalidConfiguration, err)
	}

	plans, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	if err := validatePlans(plans); err != nil {
		return nil, err
	}

	return &Catalog{cfg: cfg, plans: plans}, nil
}

// TrialDays returns the trial entitlement window in days.
func (c *Catalog) TrialDays() int {
	return c.cfg.TrialDays
}

// ExpiringThresholdDays returns the remaining-days threshold below which a
// subscription is surfaced as expiring.
func (c *Catalog) ExpiringThresholdDays() int {
	return c.cfg.ExpiringThresholdDays
}

// Plan returns the plan for a tier.
func (c *Catalog) Plan(tier Tier) (Plan, error) {
	plan, ok := c.plans[tier]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %s", ErrTierNotFound, tier)
	}
	return plan, nil
}

// Plans returns all plans ordered by monthly price, cheapest first.
func (c *Catalog) Plans() []Plan {
	plans := make([]Plan, 0, len(c.plans))
	for _, plan := range c.plans {
		plans = append(plans, plan)
	}
	slices.SortFunc(plans, func(a, b Plan) int {
		return int(a.PriceMonthly - b.PriceMonthly)
	})
	return plans
}

// InvoiceAmount returns the amount to invoice for a tier and interval.
// Yearly billing charges 12 monthly prices with the configured discount
// applied, rounded half up to the nearest currency unit.
func (c *Catalog) InvoiceAmount(tier Tier, interval Interval) (int64, error) {
	plan, err := c.Plan(tier)
	if err != nil {
		return 0, err
	}
	switch interval {
	case IntervalMonthly:
		return plan.PriceMonthly, nil
	case IntervalYearly:
		yearly := plan.PriceMonthly * 12
		discounted := (yearly*int64(100-c.cfg.YearlyDiscountPercent) + 50) / 100
		return discounted, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}
}

// YearlySavings returns how much a tenant saves per year by choosing yearly
// billing over twelve monthly invoices.
func (c *Catalog) YearlySavings(tier Tier) (int64, error) {
	plan, err := c.Plan(tier)
	if err != nil {
		return 0, err
	}
	yearly, err := c.InvoiceAmount(tier, IntervalYearly)
	if err != nil {
		return 0, err
	}
	return plan.PriceMonthly*12 - yearly, nil
}

// ObjectLimit returns the object ceiling for a tier. A subscription that has
// not chosen a tier yet (empty tier) is not limited, so Unlimited is returned
// for it as well as for tiers configured without a ceiling.
func (c *Catalog) ObjectLimit(tier Tier) int64 {
	if tier == "" {
		return Unlimited
	}
	plan, ok := c.plans[tier]
	if !ok {
		return Unlimited
	}
	return plan.ObjectLimit
}

// CanAddProject reports whether a tenant on the given tier may create one more
// managed object given its current count.
func (c *Catalog) CanAddProject(tier Tier, currentCount int64) bool {
	limit := c.ObjectLimit(tier)
	if limit == Unlimited {
		return true
	}
	return currentCount < limit
}

// CanDowngrade checks whether switching to target would strand existing
// objects above the target tier's ceiling.
func (c *Catalog) CanDowngrade(target Tier, currentCount int64) error {
	plan, err := c.Plan(target)
	if err != nil {
		return err
	}
	if plan.ObjectLimit != Unlimited && currentCount > plan.ObjectLimit {
		return ErrDowngradeNotPossible
	}
	return nil
}

// validatePlans ensures the catalog is internally consistent. Catches common
// configuration errors early to prevent runtime issues.
func validatePlans(plans map[Tier]Plan) error {
	if len(plans) == 0 {
		return errors.Join(ErrInvalidConfiguration, ErrNoPlansConfigured)
	}
	for tier, plan := range plans {
		if plan.Tier != tier {
			return errors.Join(ErrInvalidConfiguration,
				fmt.Errorf("plan tier mismatch: map key %s != plan.Tier %s", tier, plan.Tier))
		}
		if !tier.Valid() {
			return errors.Join(ErrInvalidConfiguration,
				fmt.Errorf("%w: %s", ErrUnknownPlanTier, tier))
		}
		if plan.PriceMonthly < 0 {
			return errors.Join(ErrInvalidConfiguration,
				fmt.Errorf("%w: tier %s", ErrNegativePlanPrice, tier))
		}
		if plan.ObjectLimit != Unlimited && plan.ObjectLimit <= 0 {
			return errors.Join(ErrInvalidConfiguration,
				fmt.Errorf("%w: tier %s", ErrInvalidPlanObjectLimit, tier))
		}
	}
	return nil
}
