// Package tariff defines the static billing policy for crewkit: the closed
// tier catalog, trial duration, yearly discount, and the expiring-warning
// threshold.
//
// Everything in this package is a pure, side-effect-free lookup or derivation.
// The Catalog is built once at startup from a Source (in-memory defaults or a
// YAML file) and validated against the closed tier set; after that it never
// changes, so it can be shared across goroutines without synchronization.
//
// # Usage
//
//	catalog, err := tariff.NewCatalog(ctx, tariff.DefaultConfig(),
//		tariff.NewInMemSource(tariff.DefaultPlans()...))
//	if err != nil {
//		// Handle error
//	}
//
//	amount, err := catalog.InvoiceAmount(tariff.TierBusiness, tariff.IntervalYearly)
//	if catalog.CanAddProject(sub.PlanTier, projectCount) {
//		// allow creation
//	}
//
// Monetary amounts are int64 values in the smallest currency unit. The product
// bills in a single currency, so no currency code travels with amounts.
package tariff
