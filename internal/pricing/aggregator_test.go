package pricing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/telaprint/telaprint-backend/pkg/db/models"
	"github.com/telaprint/telaprint-backend/pkg/enums"
	"github.com/telaprint/telaprint-backend/pkg/types"
)

type fakeCatalog struct {
	products []models.Product
}

func (f *fakeCatalog) FindActiveByIDs(_ context.Context, _ []uuid.UUID) ([]models.Product, error) {
	return f.products, nil
}

type fakeBalance struct {
	meters decimal.Decimal
}

func (f *fakeBalance) AvailableMeters(_ context.Context, _ uuid.UUID) (decimal.Decimal, error) {
	return f.meters, nil
}

func testProducts(t *testing.T) (models.Product, models.Product) {
	t.Helper()
	fabric := models.Product{
		ID:          uuid.New(),
		Name:        "Cotton twill print",
		SKU:         "FAB-CT-001",
		ProductType: enums.ProductTypeMeteredFabric,
		PriceRanges: fabricTiers(t),
	}
	bundle := models.Product{
		ID:          uuid.New(),
		Name:        "Sample swatch pack",
		SKU:         "CON-SW-001",
		ProductType: enums.ProductTypeConsumable,
		BasePrice:   dec(t, "8.00"),
	}
	return fabric, bundle
}

func newAggregator(t *testing.T, catalog *fakeCatalog, meters string) Service {
	t.Helper()
	svc, err := NewService(catalog, &fakeBalance{meters: decimal.RequireFromString(meters)})
	require.NoError(t, err)
	return svc
}

func TestQuotePricesLinesAndExtras(t *testing.T) {
	fabric, bundle := testProducts(t)
	svc := newAggregator(t, &fakeCatalog{products: []models.Product{fabric, bundle}}, "0")

	quote, err := svc.Quote(context.Background(), uuid.New(), []LineInput{
		{ProductID: fabric.ID, Quantity: dec(t, "7"), Extras: types.Extras{
			Cutting: &types.CuttingExtra{Pieces: 4, Price: dec(t, "3.50")},
		}},
		{ProductID: bundle.ID, Quantity: dec(t, "2")},
	}, false)
	require.NoError(t, err)

	require.Len(t, quote.Lines, 2)
	require.True(t, quote.Lines[0].UnitPrice.Equal(dec(t, "11.00")))
	require.True(t, quote.Lines[0].Subtotal.Equal(dec(t, "80.50")), "line subtotal %s", quote.Lines[0].Subtotal)
	require.True(t, quote.TotalMeters.Equal(dec(t, "7")))
	require.True(t, quote.MeteredSubtotal.Equal(dec(t, "77.00")))
	// 77 fabric + 3.50 cutting + 16 swatches, no expedite fee requested.
	require.True(t, quote.PrioritySurcharge.IsZero())
	require.True(t, quote.OriginalSubtotal.Equal(dec(t, "96.50")), "original %s", quote.OriginalSubtotal)
	require.True(t, quote.PayableSubtotal.Equal(quote.OriginalSubtotal))
}

func TestQuoteAppliesSurchargeOncePerCart(t *testing.T) {
	fabric, _ := testProducts(t)
	svc := newAggregator(t, &fakeCatalog{products: []models.Product{fabric}}, "0")

	prioritize := types.Extras{Prioritize: &types.PrioritizeExtra{}}
	quote, err := svc.Quote(context.Background(), uuid.New(), []LineInput{
		{ProductID: fabric.ID, Quantity: dec(t, "4"), Extras: prioritize},
		{ProductID: fabric.ID, Quantity: dec(t, "3"), Extras: prioritize},
	}, false)
	require.NoError(t, err)

	// Both items flagged, but the fee is computed once from 7 total meters.
	require.True(t, quote.PrioritySurcharge.Equal(PrioritySurcharge(dec(t, "7"))))
}

func TestQuoteFullVoucherCoverage(t *testing.T) {
	fabric, _ := testProducts(t)
	svc := newAggregator(t, &fakeCatalog{products: []models.Product{fabric}}, "20")

	quote, err := svc.Quote(context.Background(), uuid.New(), []LineInput{
		{ProductID: fabric.ID, Quantity: dec(t, "7"), Extras: types.Extras{
			Layout:     &types.LayoutExtra{Price: dec(t, "12.00")},
			Prioritize: &types.PrioritizeExtra{},
		}},
	}, true)
	require.NoError(t, err)

	require.True(t, quote.MetersFromVoucher.Equal(dec(t, "7")))
	require.True(t, quote.MetersToPay.IsZero())
	require.True(t, quote.CanUseVoucherMeters)
	require.True(t, quote.CanUseVoucherMetersPartially)
	// Metered cost fully covered; layout and expedite fee stay payable.
	expected := dec(t, "12.00").Add(quote.PrioritySurcharge)
	require.True(t, quote.PayableSubtotal.Equal(expected), "payable %s", quote.PayableSubtotal)
	require.True(t, quote.OriginalSubtotal.GreaterThan(quote.PayableSubtotal))
}

func TestQuotePartialVoucherCoverageWeightedAverage(t *testing.T) {
	fabric, _ := testProducts(t)
	svc := newAggregator(t, &fakeCatalog{products: []models.Product{fabric}}, "3")

	quote, err := svc.Quote(context.Background(), uuid.New(), []LineInput{
		{ProductID: fabric.ID, Quantity: dec(t, "7")},
	}, true)
	require.NoError(t, err)

	require.True(t, quote.MetersFromVoucher.Equal(dec(t, "3")))
	require.True(t, quote.MetersToPay.Equal(dec(t, "4")))
	require.False(t, quote.CanUseVoucherMeters)
	require.True(t, quote.CanUseVoucherMetersPartially)
	require.True(t, quote.MetersFromVoucher.Add(quote.MetersToPay).Equal(quote.TotalMeters))
	// Weighted average 77/7 = 11.00 per meter, 4 meters payable in cash.
	require.True(t, quote.PayableSubtotal.Equal(dec(t, "44.00")), "payable %s", quote.PayableSubtotal)
	require.True(t, quote.OriginalSubtotal.Equal(dec(t, "77.00")))
}

func TestQuoteVoucherIgnoredWhenNotRequested(t *testing.T) {
	fabric, _ := testProducts(t)
	svc := newAggregator(t, &fakeCatalog{products: []models.Product{fabric}}, "100")

	quote, err := svc.Quote(context.Background(), uuid.New(), []LineInput{
		{ProductID: fabric.ID, Quantity: dec(t, "7")},
	}, false)
	require.NoError(t, err)
	require.True(t, quote.MetersFromVoucher.IsZero())
	require.False(t, quote.CanUseVoucherMetersPartially)
	require.True(t, quote.PayableSubtotal.Equal(quote.OriginalSubtotal))
}

func TestQuoteRejectsUnknownProduct(t *testing.T) {
	svc := newAggregator(t, &fakeCatalog{}, "0")

	_, err := svc.Quote(context.Background(), uuid.New(), []LineInput{
		{ProductID: uuid.New(), Quantity: dec(t, "2")},
	}, false)
	require.Error(t, err)
}

func TestQuoteRejectsNonPositiveQuantity(t *testing.T) {
	fabric, _ := testProducts(t)
	svc := newAggregator(t, &fakeCatalog{products: []models.Product{fabric}}, "0")

	_, err := svc.Quote(context.Background(), uuid.New(), []LineInput{
		{ProductID: fabric.ID, Quantity: decimal.Zero},
	}, false)
	require.Error(t, err)
}
