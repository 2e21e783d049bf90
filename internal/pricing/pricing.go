// Package pricing defines the price-tier policy shared by the cleanse and
// warehouse stages. Both stages must bucket prices identically or the
// production price_category and the dimension price_range drift apart.
package pricing

// Tier names.
const (
	TierBudget   = "Budget"
	TierMidrange = "Mid-range"
	TierPremium  = "Premium"
)

// Tiers holds the price thresholds for tier bucketing.
// Bounds are exclusive: a price equal to BudgetMax falls in Mid-range.
type Tiers struct {
	BudgetMax   float64
	MidrangeMax float64
}

// DefaultTiers returns the standard tier thresholds.
func DefaultTiers() Tiers {
	return Tiers{BudgetMax: 50, MidrangeMax: 200}
}

// bucket returns the tier name for a price. The cleanse and warehouse
// loaders express the same policy as SQL CASEs parameterized from Tiers;
// this form exists to pin the boundary behavior in tests.
func (t Tiers) bucket(price float64) string {
	switch {
	case price < t.BudgetMax:
		return TierBudget
	case price < t.MidrangeMax:
		return TierMidrange
	default:
		return TierPremium
	}
}
