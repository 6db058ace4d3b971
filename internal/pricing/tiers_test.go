package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/telaprint/telaprint-backend/pkg/db/models"
	pkgerrors "github.com/telaprint/telaprint-backend/pkg/errors"
)

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return d
}

func decPtr(t *testing.T, value string) *decimal.Decimal {
	t.Helper()
	d := dec(t, value)
	return &d
}

func fabricTiers(t *testing.T) []models.PriceRange {
	t.Helper()
	return []models.PriceRange{
		{FromQty: dec(t, "0.5"), ToQty: decPtr(t, "0.9"), UnitPrice: dec(t, "15.00")},
		{FromQty: dec(t, "1"), ToQty: decPtr(t, "5"), UnitPrice: dec(t, "12.50"), DiscountPct: dec(t, "5")},
		{FromQty: dec(t, "6"), ToQty: decPtr(t, "10"), UnitPrice: dec(t, "11.00"), DiscountPct: dec(t, "10")},
		{FromQty: dec(t, "11"), UnitPrice: dec(t, "9.50"), DiscountPct: dec(t, "15")},
	}
}

func TestResolveTier(t *testing.T) {
	tiers := fabricTiers(t)

	price, err := ResolveTier(dec(t, "7"), tiers)
	require.NoError(t, err)
	require.True(t, price.UnitPrice.Equal(dec(t, "11.00")), "unit price %s", price.UnitPrice)
	require.True(t, price.Subtotal.Equal(dec(t, "77.00")), "subtotal %s", price.Subtotal)
	require.True(t, price.DiscountPct.Equal(dec(t, "10")))

	price, err = ResolveTier(dec(t, "0.5"), tiers)
	require.NoError(t, err)
	require.True(t, price.UnitPrice.Equal(dec(t, "15.00")))

	price, err = ResolveTier(dec(t, "250"), tiers)
	require.NoError(t, err)
	require.True(t, price.UnitPrice.Equal(dec(t, "9.50")))
}

func TestResolveTierBoundaries(t *testing.T) {
	tiers := fabricTiers(t)

	price, err := ResolveTier(dec(t, "5"), tiers)
	require.NoError(t, err)
	require.True(t, price.UnitPrice.Equal(dec(t, "12.50")))

	price, err = ResolveTier(dec(t, "6"), tiers)
	require.NoError(t, err)
	require.True(t, price.UnitPrice.Equal(dec(t, "11.00")))
}

func TestResolveTierMonotonicPrice(t *testing.T) {
	tiers := fabricTiers(t)

	prev := decimal.NewFromInt(1 << 30)
	for _, q := range []string{"0.5", "1", "6", "11", "99"} {
		price, err := ResolveTier(dec(t, q), tiers)
		require.NoError(t, err)
		require.True(t, price.UnitPrice.LessThanOrEqual(prev), "price rose at qty %s", q)
		prev = price.UnitPrice
	}
}

func TestResolveTierNoMatchFailsLoudly(t *testing.T) {
	_, err := ResolveTier(dec(t, "0.2"), fabricTiers(t))
	require.Error(t, err)

	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeInternal, coded.Code())
}

func TestResolveTierEmptyList(t *testing.T) {
	_, err := ResolveTier(dec(t, "2"), nil)
	require.Error(t, err)
}

func TestValidateTierList(t *testing.T) {
	require.NoError(t, ValidateTierList(fabricTiers(t)))

	overlap := fabricTiers(t)
	overlap[1].FromQty = dec(t, "0.8")
	require.Error(t, ValidateTierList(overlap))

	gap := fabricTiers(t)
	gap[2].FromQty = dec(t, "7")
	require.Error(t, ValidateTierList(gap))

	fractionalGap := fabricTiers(t)
	fractionalGap[1].FromQty = dec(t, "1.5")
	require.Error(t, ValidateTierList(fractionalGap))

	closedTail := fabricTiers(t)
	closedTail[3].ToQty = decPtr(t, "20")
	require.Error(t, ValidateTierList(closedTail))

	midOpen := fabricTiers(t)
	midOpen[1].ToQty = nil
	require.Error(t, ValidateTierList(midOpen))
}

func TestFlatPrice(t *testing.T) {
	price := FlatPrice(dec(t, "45.00"), dec(t, "2"))
	require.True(t, price.Subtotal.Equal(dec(t, "90.00")))
	require.True(t, price.DiscountPct.IsZero())
}
