package pricing

import "testing"

func TestBucket(t *testing.T) {
	tiers := DefaultTiers()

	tests := []struct {
		price float64
		want  string
	}{
		{0, TierBudget},
		{49.99, TierBudget},
		{50, TierMidrange}, // boundary is exclusive
		{199.99, TierMidrange},
		{200, TierPremium}, // boundary is exclusive
		{5000, TierPremium},
	}

	for _, tt := range tests {
		if got := tiers.bucket(tt.price); got != tt.want {
			t.Errorf("bucket(%.2f) = %s, want %s", tt.price, got, tt.want)
		}
	}
}

func TestBucketCustomThresholds(t *testing.T) {
	tiers := Tiers{BudgetMax: 100, MidrangeMax: 1000}

	if got := tiers.bucket(99); got != TierBudget {
		t.Errorf("bucket(99) = %s, want %s", got, TierBudget)
	}
	if got := tiers.bucket(500); got != TierMidrange {
		t.Errorf("bucket(500) = %s, want %s", got, TierMidrange)
	}
	if got := tiers.bucket(1000); got != TierPremium {
		t.Errorf("bucket(1000) = %s, want %s", got, TierPremium)
	}
}
