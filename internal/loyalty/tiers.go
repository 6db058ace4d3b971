package loyalty

import (
	"github.com/shopspring/decimal"

	"github.com/telaprint/telaprint-backend/pkg/enums"
)

var (
	silverThreshold   = decimal.NewFromInt(500)
	goldThreshold     = decimal.NewFromInt(2000)
	platinumThreshold = decimal.NewFromInt(5000)

	// voucherPurchaseBonus further multiplies points when the order itself
	// buys a voucher product.
	voucherPurchaseBonus = decimal.NewFromFloat(2.0)
)

// TierFor derives the loyalty tier from cumulative spend.
func TierFor(totalSpent decimal.Decimal) enums.LoyaltyTier {
	switch {
	case totalSpent.GreaterThanOrEqual(platinumThreshold):
		return enums.LoyaltyTierPlatinum
	case totalSpent.GreaterThanOrEqual(goldThreshold):
		return enums.LoyaltyTierGold
	case totalSpent.GreaterThanOrEqual(silverThreshold):
		return enums.LoyaltyTierSilver
	default:
		return enums.LoyaltyTierBronze
	}
}

// Multiplier returns the points multiplier for a tier.
func Multiplier(tier enums.LoyaltyTier) decimal.Decimal {
	switch tier {
	case enums.LoyaltyTierPlatinum:
		return decimal.NewFromFloat(2.0)
	case enums.LoyaltyTierGold:
		return decimal.NewFromFloat(1.5)
	case enums.LoyaltyTierSilver:
		return decimal.NewFromFloat(1.25)
	default:
		return decimal.NewFromFloat(1.0)
	}
}

// PointsFor computes the award for one paid order: floor of the total times
// the per-euro rate and the tier multiplier, doubled for voucher purchases.
func PointsFor(total, pointsPerEuro decimal.Decimal, tier enums.LoyaltyTier, voucherPurchase bool) int64 {
	points := total.Mul(pointsPerEuro).Mul(Multiplier(tier))
	if voucherPurchase {
		points = points.Mul(voucherPurchaseBonus)
	}
	return points.Floor().IntPart()
}
