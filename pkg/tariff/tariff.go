package tariff

// Tier identifies a pricing level in the closed tariff catalog.
type Tier string

const (
	TierStart     Tier = "start"
	TierBusiness  Tier = "business"
	TierUnlimited Tier = "unlimited"
)

// Interval represents the billing period granularity.
type Interval string

const (
	IntervalMonthly Interval = "monthly"
	IntervalYearly  Interval = "yearly"
)

const (
	// Unlimited indicates no object ceiling for a tier (-1 chosen for SQL compatibility).
	Unlimited int64 = -1

	monthlyPeriodDays = 30
	yearlyPeriodDays  = 365
)

// Plan describes a single tariff tier.
// PriceMonthly is stored in the smallest currency unit (kopecks/cents).
type Plan struct {
	Tier         Tier   `yaml:"tier"`
	Name         string `yaml:"name"`
	PriceMonthly int64  `yaml:"price_monthly"`
	ObjectLimit  int64  `yaml:"object_limit"` // -1 represents unlimited
	Highlighted  bool   `yaml:"highlighted"`
}

// Valid reports whether t is a member of the closed tier set.
func (t Tier) Valid() bool {
	switch t {
	case TierStart, TierBusiness, TierUnlimited:
		return true
	}
	return false
}

// Valid reports whether i is a known billing interval.
func (i Interval) Valid() bool {
	return i == IntervalMonthly || i == IntervalYearly
}

// PeriodDays returns the entitlement window length granted by one paid
// invoice for the given interval. Whole days only; proration beyond
// whole-day extension is out of scope.
func PeriodDays(interval Interval) int {
	if interval == IntervalYearly {
		return yearlyPeriodDays
	}
	return monthlyPeriodDays
}
