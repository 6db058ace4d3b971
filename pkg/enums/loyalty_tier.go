package enums

import "fmt"

// LoyaltyTier buckets customers by lifetime spend.
type LoyaltyTier string

const (
	LoyaltyTierBronze   LoyaltyTier = "bronze"
	LoyaltyTierSilver   LoyaltyTier = "silver"
	LoyaltyTierGold     LoyaltyTier = "gold"
	LoyaltyTierPlatinum LoyaltyTier = "platinum"
)

var validLoyaltyTiers = []LoyaltyTier{
	LoyaltyTierBronze,
	LoyaltyTierSilver,
	LoyaltyTierGold,
	LoyaltyTierPlatinum,
}

// String implements fmt.Stringer.
func (t LoyaltyTier) String() string {
	return string(t)
}

// IsValid reports whether the value is a known LoyaltyTier.
func (t LoyaltyTier) IsValid() bool {
	for _, candidate := range validLoyaltyTiers {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseLoyaltyTier converts raw input into a LoyaltyTier.
func ParseLoyaltyTier(value string) (LoyaltyTier, error) {
	for _, candidate := range validLoyaltyTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid loyalty tier %q", value)
}
