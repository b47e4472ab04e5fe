package tariff

import (
	"context"
	"errors"
	"io"

	"gopkg.in/yaml.v3"
)

// Source defines how tariff plans are loaded into a catalog.
type Source interface {
	Load(ctx context.Context) (map[Tier]Plan, error)
}

// DefaultPlans returns the built-in tier catalog used when no external plan
// source is configured. Prices are in the smallest currency unit.
func DefaultPlans() []Plan {
	return []Plan{
		{Tier: TierStart, Name: "Start", PriceMonthly: 99000, ObjectLimit: 3},
		{Tier: TierBusiness, Name: "Business", PriceMonthly: 249000, ObjectLimit: 15, Highlighted: true},
		{Tier: TierUnlimited, Name: "Unlimited", PriceMonthly: 490000, ObjectLimit: Unlimited},
	}
}

type inMemSource struct {
	plans map[Tier]Plan
}

// NewInMemSource returns an in-memory Source over the given plans.
// Panics if no plans are provided to ensure the catalog always has at least
// one valid tier.
func NewInMemSource(plans ...Plan) Source {
	if len(plans) < 1 {
		panic("tariff: at least one plan is required")
	}
	copied := make(map[Tier]Plan, len(plans))
	for _, plan := range plans {
		copied[plan.Tier] = plan
	}
	return &inMemSource{plans: copied}
}

func (s *inMemSource) Load(_ context.Context) (map[Tier]Plan, error) {
	plans := make(map[Tier]Plan, len(s.plans))
	for tier, plan := range s.plans {
		plans[tier] = plan
	}
	return plans, nil
}

type yamlSource struct {
	r io.Reader
}

// NewYAMLSource returns a Source that decodes a plan list from YAML.
// The document is a sequence of plan objects:
//
//   - tier: start
//     name: Start
//     price_monthly: 99000
//     object_limit: 3
//   - tier: unlimited
//     name: Unlimited
//     price_monthly: 490000
//     object_limit: -1
func NewYAMLSource(r io.Reader) Source {
	if r == nil {
		panic("tariff: reader is required")
	}
	return &yamlSource{r: r}
}

func (s *yamlSource) Load(_ context.Context) (map[Tier]Plan, error) {
	var plans []Plan
	if err := yaml.NewDecoder(s.r).Decode(&plans); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	result := make(map[Tier]Plan, len(plans))
	for _, plan := range plans {
		if _, exists := result[plan.Tier]; exists {
			return nil, errors.Join(ErrFailedToLoadPlans, ErrDuplicatePlanTier)
		}
		result[plan.Tier] = plan
	}
	return result, nil
}
