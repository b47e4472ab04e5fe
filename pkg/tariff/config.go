package tariff

// Config holds the static billing policy knobs. Values are loaded from the
// environment via pkg/config and fall back to the product defaults.
type Config struct {
	TrialDays             int `env:"TARIFF_TRIAL_DAYS" envDefault:"14"`              // trial entitlement window granted at registration
	YearlyDiscountPercent int `env:"TARIFF_YEARLY_DISCOUNT_PERCENT" envDefault:"10"` // discount applied to 12x monthly price on yearly billing
	ExpiringThresholdDays int `env:"TARIFF_EXPIRING_THRESHOLD_DAYS" envDefault:"7"`  // remaining days at which a subscription turns expiring
}

// DefaultConfig returns the product defaults without consulting the environment.
func DefaultConfig() Config {
	return Config{
		TrialDays:             14,
		YearlyDiscountPercent: 10,
		ExpiringThresholdDays: 7,
	}
}

func (c Config) validate() error {
	if c.TrialDays <= 0 {
		return ErrInvalidTrialDuration
	}
	if c.YearlyDiscountPercent < 0 || c.YearlyDiscountPercent >= 100 {
		return ErrInvalidYearlyDiscount
	}
	if c.ExpiringThresholdDays <= 0 {
		return ErrInvalidWarningThreshold
	}
	return nil
}
