package tariff

import "errors"

var (
	ErrTierNotFound            = errors.New("tariff tier not found")
	ErrInvalidInterval         = errors.New("invalid billing interval")
	ErrInvalidConfiguration    = errors.New("invalid tariff configuration")
	ErrFailedToLoadPlans       = errors.New("failed to load tariff plans")
	ErrDowngradeNotPossible    = errors.New("tier downgrade not possible with current usage")
	ErrObjectLimitExceeded     = errors.New("tier object limit exceeded")
	ErrNoPlansConfigured       = errors.New("at least one tariff plan is required")
	ErrDuplicatePlanTier       = errors.New("duplicate plan tier in catalog")
	ErrUnknownPlanTier         = errors.New("plan tier is not in the closed tier set")
	ErrNegativePlanPrice       = errors.New("plan price cannot be negative")
	ErrInvalidPlanObjectLimit  = errors.New("plan object limit must be positive or -1 for unlimited")
	ErrInvalidYearlyDiscount   = errors.New("yearly discount percent must be in [0, 100)")
	ErrInvalidTrialDuration    = errors.New("trial duration must be positive")
	ErrInvalidWarningThreshold = errors.New("expiring warning threshold must be positive")
)
