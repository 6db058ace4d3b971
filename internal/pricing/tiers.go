package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/telaprint/telaprint-backend/pkg/db/models"
	pkgerrors "github.com/telaprint/telaprint-backend/pkg/errors"
)

// quotingStep returns the quoting increment at a bound's scale. Whole-meter
// bounds step by 1, fractional bounds by 0.1, so ladders like
// 0.5-0.9 / 1-5 / 6-10 / 11+ count as contiguous at every seam.
func quotingStep(d decimal.Decimal) decimal.Decimal {
	if d.Equal(d.Truncate(0)) {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromFloat(0.1)
}

// TierPrice is the resolved price for a quantity within one band.
type TierPrice struct {
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
	DiscountPct decimal.Decimal
}

// FlatPrice prices product types without tiered bands.
func FlatPrice(basePrice, qty decimal.Decimal) TierPrice {
	return TierPrice{
		UnitPrice:   basePrice,
		Subtotal:    basePrice.Mul(qty).Round(2),
		DiscountPct: decimal.Zero,
	}
}

// ResolveTier selects the band containing qty and returns its price. A
// quantity that no band covers is a catalog misconfiguration and fails
// loudly, never silently falling back to a default price.
func ResolveTier(qty decimal.Decimal, tiers []models.PriceRange) (TierPrice, error) {
	if len(tiers) == 0 {
		return TierPrice{}, pkgerrors.New(pkgerrors.CodeInternal, "product has no price tiers configured")
	}

	sorted := make([]models.PriceRange, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].FromQty.LessThan(sorted[j].FromQty)
	})

	for _, tier := range sorted {
		if qty.LessThan(tier.FromQty) {
			continue
		}
		if tier.ToQty != nil && qty.GreaterThan(*tier.ToQty) {
			continue
		}
		return TierPrice{
			UnitPrice:   tier.UnitPrice,
			Subtotal:    tier.UnitPrice.Mul(qty).Round(2),
			DiscountPct: tier.DiscountPct,
		}, nil
	}

	return TierPrice{}, pkgerrors.New(pkgerrors.CodeInternal, "quantity outside configured price tiers").WithDetails(map[string]any{
		"quantity": qty.String(),
	})
}

// ValidateTierList checks that the bands form a well-ordered partition:
// ascending, non-overlapping, with no gap wider than the quoting increment,
// and exactly one open-ended final band.
func ValidateTierList(tiers []models.PriceRange) error {
	if len(tiers) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one price tier required")
	}

	sorted := make([]models.PriceRange, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].FromQty.LessThan(sorted[j].FromQty)
	})

	for i, tier := range sorted {
		if !tier.UnitPrice.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "tier unit price must be positive").WithDetails(map[string]any{"from_qty": tier.FromQty.String()})
		}
		last := i == len(sorted)-1
		if tier.ToQty == nil {
			if !last {
				return pkgerrors.New(pkgerrors.CodeValidation, "only the final tier may be open-ended")
			}
			continue
		}
		if tier.ToQty.LessThan(tier.FromQty) {
			return pkgerrors.New(pkgerrors.CodeValidation, "tier upper bound below lower bound").WithDetails(map[string]any{"from_qty": tier.FromQty.String()})
		}
		if last {
			return pkgerrors.New(pkgerrors.CodeValidation, "final tier must be open-ended")
		}
		next := sorted[i+1]
		if !next.FromQty.GreaterThan(*tier.ToQty) {
			return pkgerrors.New(pkgerrors.CodeValidation, "price tiers overlap").WithDetails(map[string]any{"from_qty": next.FromQty.String()})
		}
		step := quotingStep(*tier.ToQty)
		if fromStep := quotingStep(next.FromQty); fromStep.LessThan(step) {
			step = fromStep
		}
		if next.FromQty.Sub(*tier.ToQty).GreaterThan(step) {
			return pkgerrors.New(pkgerrors.CodeValidation, "gap between price tiers").WithDetails(map[string]any{"after_qty": tier.ToQty.String()})
		}
	}
	return nil
}
