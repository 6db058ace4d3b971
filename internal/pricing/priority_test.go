package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestPrioritySurchargeFlatLowBand(t *testing.T) {
	one := PrioritySurcharge(decimal.NewFromInt(1))
	four := PrioritySurcharge(decimal.NewFromInt(4))
	require.True(t, one.Equal(four), "1m=%s 4m=%s", one, four)
	require.True(t, one.IsPositive())
}

func TestPrioritySurchargeBelowOneMeter(t *testing.T) {
	require.True(t, PrioritySurcharge(decimal.NewFromFloat(0.9)).IsZero())
	require.True(t, PrioritySurcharge(decimal.Zero).IsZero())
}

func TestPrioritySurchargeFloorsQuantity(t *testing.T) {
	require.True(t, PrioritySurcharge(decimal.NewFromFloat(4.9)).Equal(PrioritySurcharge(decimal.NewFromInt(4))))
	require.True(t, PrioritySurcharge(decimal.NewFromFloat(5.0)).Equal(PrioritySurcharge(decimal.NewFromInt(5))))
}

func TestPrioritySurchargeNonDecreasing(t *testing.T) {
	prev := decimal.Zero
	for m := int64(1); m <= 60; m++ {
		fee := PrioritySurcharge(decimal.NewFromInt(m))
		require.True(t, fee.GreaterThanOrEqual(prev), "fee dropped at %dm", m)
		prev = fee
	}
}

func TestPrioritySurchargeCeilingClamp(t *testing.T) {
	at50 := PrioritySurcharge(decimal.NewFromInt(50))
	at500 := PrioritySurcharge(decimal.NewFromInt(500))
	require.True(t, at50.Equal(at500), "50m=%s 500m=%s", at50, at500)
}
