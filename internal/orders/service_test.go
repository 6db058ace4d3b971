package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/telaprint/telaprint-backend/internal/pricing"
	"github.com/telaprint/telaprint-backend/pkg/db/models"
	"github.com/telaprint/telaprint-backend/pkg/enums"
	"github.com/telaprint/telaprint-backend/pkg/logger"
	"github.com/telaprint/telaprint-backend/pkg/types"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r *testTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

type fakePricer struct {
	quote *pricing.CartQuote
	err   error
}

func (f *fakePricer) Quote(_ context.Context, _ uuid.UUID, _ []pricing.LineInput, _ bool) (*pricing.CartQuote, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.quote, nil
}

type fakeSettings struct {
	values map[string]decimal.Decimal
}

func (f *fakeSettings) Decimal(_ context.Context, key string) (decimal.Decimal, error) {
	return f.values[key], nil
}

func (f *fakeSettings) Int(ctx context.Context, key string) (int64, error) {
	value, err := f.Decimal(ctx, key)
	if err != nil {
		return 0, err
	}
	return value.IntPart(), nil
}

func (f *fakeSettings) Set(_ context.Context, _, _ string) error { return nil }

func (f *fakeSettings) List(_ context.Context) ([]models.Setting, error) { return nil, nil }

type fakeLinker struct {
	url   string
	calls int
}

func (f *fakeLinker) OrderCheckoutLink(_ context.Context, _ *models.Order) (string, error) {
	f.calls++
	return f.url, nil
}

func (f *fakeLinker) QuoteCheckoutLink(_ context.Context, _ *models.Quote) (string, error) {
	f.calls++
	return f.url, nil
}

func basicCartQuote() *pricing.CartQuote {
	productID := uuid.New()
	return &pricing.CartQuote{
		Lines: []pricing.PricedLine{
			{
				ProductID:   productID,
				Name:        "Cotton twill print",
				ProductType: enums.ProductTypeMeteredFabric,
				Quantity:    decimal.NewFromInt(7),
				UnitPrice:   decimal.RequireFromString("11.00"),
				Subtotal:    decimal.RequireFromString("77.00"),
			},
		},
		TotalMeters:      decimal.NewFromInt(7),
		MeteredSubtotal:  decimal.RequireFromString("77.00"),
		OriginalSubtotal: decimal.RequireFromString("77.00"),
		MetersToPay:      decimal.NewFromInt(7),
		PayableSubtotal:  decimal.RequireFromString("77.00"),
	}
}

func newOrdersService(t *testing.T, conn *gorm.DB, pricer pricing.Service, linker *fakeLinker) Service {
	t.Helper()
	svc, err := NewService(
		NewRepository(conn),
		&testTxRunner{db: conn},
		pricer,
		&fakeSettings{values: map[string]decimal.Decimal{"tax_rate": decimal.NewFromInt(21)}},
		linker,
		logger.New(logger.Options{Level: zerolog.ErrorLevel}),
	)
	require.NoError(t, err)
	return svc
}

func TestCheckoutCreatesPendingOrderWithPaymentLink(t *testing.T) {
	conn := setupOrdersTestDB(t)
	linker := &fakeLinker{url: "https://checkout.stripe.com/pay/cs_test_1"}
	svc := newOrdersService(t, conn, &fakePricer{quote: basicCartQuote()}, linker)
	userID := uuid.New()

	result, err := svc.Checkout(context.Background(), userID, CheckoutInput{
		Lines: []pricing.LineInput{
			{ProductID: uuid.New(), Quantity: decimal.NewFromInt(7), Extras: types.Extras{Layout: &types.LayoutExtra{Price: decimal.NewFromInt(5)}}},
		},
		PaymentMethod: enums.PaymentMethodCard,
	})
	require.NoError(t, err)

	require.Equal(t, enums.OrderStatusPending, result.Order.Status)
	require.Equal(t, int64(1000), result.Order.OrderNumber)
	require.Equal(t, linker.url, result.PaymentURL)
	require.Equal(t, 1, linker.calls)
	// 21% on the payable subtotal.
	require.True(t, result.Order.Tax.Equal(decimal.RequireFromString("16.17")), "tax %s", result.Order.Tax)
	require.True(t, result.Order.Total.Equal(decimal.RequireFromString("93.17")))

	reloaded, err := svc.GetForUser(context.Background(), userID, result.Order.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	require.NotNil(t, reloaded.Items[0].Extras.Layout)
}

func TestCheckoutManualPaymentSkipsLink(t *testing.T) {
	conn := setupOrdersTestDB(t)
	linker := &fakeLinker{url: "https://checkout.stripe.com/pay/cs_test_2"}
	svc := newOrdersService(t, conn, &fakePricer{quote: basicCartQuote()}, linker)

	result, err := svc.Checkout(context.Background(), uuid.New(), CheckoutInput{
		Lines:         []pricing.LineInput{{ProductID: uuid.New(), Quantity: decimal.NewFromInt(7)}},
		PaymentMethod: enums.PaymentMethodManual,
	})
	require.NoError(t, err)
	require.Empty(t, result.PaymentURL)
	require.Equal(t, 0, linker.calls)
}

func TestGetForUserHidesOtherUsersOrders(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc := newOrdersService(t, conn, &fakePricer{quote: basicCartQuote()}, &fakeLinker{})

	owner := uuid.New()
	order := seedOrder(t, conn, 1000, owner)

	_, err := svc.GetForUser(context.Background(), uuid.New(), order.ID)
	require.Error(t, err)

	found, err := svc.GetForUser(context.Background(), owner, order.ID)
	require.NoError(t, err)
	require.Equal(t, order.ID, found.ID)
}
