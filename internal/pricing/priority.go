package pricing

import "github.com/shopspring/decimal"

// priorityBands is the expedite-fee step table over whole ordered meters.
// Fees are flat within a band and non-decreasing across bands; the 50m fee
// is the ceiling for any larger order.
var priorityBands = []struct {
	minMeters int64
	fee       decimal.Decimal
}{
	{1, decimal.NewFromFloat(6.00)},
	{5, decimal.NewFromFloat(9.00)},
	{10, decimal.NewFromFloat(12.00)},
	{15, decimal.NewFromFloat(15.00)},
	{20, decimal.NewFromFloat(20.00)},
	{30, decimal.NewFromFloat(26.00)},
	{40, decimal.NewFromFloat(32.00)},
	{50, decimal.NewFromFloat(40.00)},
}

// PrioritySurcharge returns the flat expedite fee for the given total metered
// quantity. The quantity is floored to whole meters before lookup; orders
// under one meter carry no fee. The fee applies once per order, never per item.
func PrioritySurcharge(totalMeters decimal.Decimal) decimal.Decimal {
	meters := totalMeters.Floor().IntPart()
	if meters < 1 {
		return decimal.Zero
	}
	if meters > 50 {
		meters = 50
	}

	fee := decimal.Zero
	for _, band := range priorityBands {
		if meters < band.minMeters {
			break
		}
		fee = band.fee
	}
	return fee
}
