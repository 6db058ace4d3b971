package pricing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/telaprint/telaprint-backend/pkg/db/models"
	"github.com/telaprint/telaprint-backend/pkg/enums"
	pkgerrors "github.com/telaprint/telaprint-backend/pkg/errors"
	"github.com/telaprint/telaprint-backend/pkg/types"
)

type catalogLoader interface {
	FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type balanceSource interface {
	AvailableMeters(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}

// LineInput is one cart line before pricing.
type LineInput struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	Extras    types.Extras
}

// PricedLine is one cart line after tier resolution and extras.
type PricedLine struct {
	ProductID   uuid.UUID
	Name        string
	SKU         string
	ProductType enums.ProductType
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	DiscountPct decimal.Decimal
	ExtrasPrice decimal.Decimal
	Subtotal    decimal.Decimal
}

// CartQuote is the fully aggregated cart price. OriginalSubtotal is the
// pre-voucher figure; PayableSubtotal reflects voucher coverage. Downstream
// tax and checkout need both.
type CartQuote struct {
	Lines             []PricedLine
	TotalMeters       decimal.Decimal
	MeteredSubtotal   decimal.Decimal
	PrioritySurcharge decimal.Decimal
	OriginalSubtotal  decimal.Decimal
	MetersFromVoucher decimal.Decimal
	MetersToPay       decimal.Decimal
	PayableSubtotal   decimal.Decimal
	// CanUseVoucherMeters reports full coverage of the metered need;
	// CanUseVoucherMetersPartially reports any coverage at all.
	CanUseVoucherMeters          bool
	CanUseVoucherMetersPartially bool
}

// Service aggregates tier pricing, extras, the expedite surcharge, and
// voucher coverage over a list of cart lines.
type Service interface {
	Quote(ctx context.Context, userID uuid.UUID, lines []LineInput, useVoucher bool) (*CartQuote, error)
}

type service struct {
	catalog catalogLoader
	balance balanceSource
}

// NewService builds the pricing aggregator.
func NewService(catalog catalogLoader, balance balanceSource) (Service, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog loader required")
	}
	if balance == nil {
		return nil, fmt.Errorf("voucher balance source required")
	}
	return &service{catalog: catalog, balance: balance}, nil
}

func (s *service) Quote(ctx context.Context, userID uuid.UUID, lines []LineInput, useVoucher bool) (*CartQuote, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart has no line items")
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if !line.Quantity.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive").WithDetails(map[string]any{"product_id": line.ProductID.String()})
		}
		if err := line.Extras.Validate(); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error()).WithDetails(map[string]any{"product_id": line.ProductID.String()})
		}
		ids = append(ids, line.ProductID)
	}

	products, err := s.catalog.FindActiveByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	quote := &CartQuote{
		TotalMeters:       decimal.Zero,
		MeteredSubtotal:   decimal.Zero,
		PrioritySurcharge: decimal.Zero,
		MetersFromVoucher: decimal.Zero,
		MetersToPay:       decimal.Zero,
	}
	nonMetered := decimal.Zero
	extrasTotal := decimal.Zero
	prioritized := false

	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown or inactive product").WithDetails(map[string]any{"product_id": line.ProductID.String()})
		}

		var price TierPrice
		if product.ProductType.IsMetered() {
			price, err = ResolveTier(line.Quantity, product.PriceRanges)
			if err != nil {
				return nil, err
			}
			quote.TotalMeters = quote.TotalMeters.Add(line.Quantity)
			quote.MeteredSubtotal = quote.MeteredSubtotal.Add(price.Subtotal)
			if line.Extras.HasPrioritize() {
				prioritized = true
			}
		} else {
			price = FlatPrice(product.BasePrice, line.Quantity)
			nonMetered = nonMetered.Add(price.Subtotal)
		}

		extras := line.Extras.AdditivePrice()
		extrasTotal = extrasTotal.Add(extras)

		quote.Lines = append(quote.Lines, PricedLine{
			ProductID:   product.ID,
			Name:        product.Name,
			SKU:         product.SKU,
			ProductType: product.ProductType,
			Quantity:    line.Quantity,
			UnitPrice:   price.UnitPrice,
			DiscountPct: price.DiscountPct,
			ExtrasPrice: extras,
			Subtotal:    price.Subtotal.Add(extras),
		})
	}

	if prioritized {
		quote.PrioritySurcharge = PrioritySurcharge(quote.TotalMeters)
	}

	quote.OriginalSubtotal = quote.MeteredSubtotal.Add(nonMetered).Add(extrasTotal).Add(quote.PrioritySurcharge)
	quote.MetersToPay = quote.TotalMeters
	quote.PayableSubtotal = quote.OriginalSubtotal

	if !useVoucher || !quote.TotalMeters.IsPositive() {
		return quote, nil
	}

	available, err := s.balance.AvailableMeters(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !available.IsPositive() {
		return quote, nil
	}

	// Coverage never exceeds the metered need; extras, the expedite fee,
	// and flat-priced items stay payable in cash.
	quote.MetersFromVoucher = decimal.Min(available, quote.TotalMeters)
	quote.MetersToPay = quote.TotalMeters.Sub(quote.MetersFromVoucher)
	quote.CanUseVoucherMetersPartially = quote.MetersFromVoucher.IsPositive()
	quote.CanUseVoucherMeters = !quote.MetersToPay.IsPositive()

	payableMetered := decimal.Zero
	if quote.MetersToPay.IsPositive() {
		avgPerMeter := quote.MeteredSubtotal.Div(quote.TotalMeters)
		payableMetered = avgPerMeter.Mul(quote.MetersToPay).Round(2)
	}
	quote.PayableSubtotal = nonMetered.Add(extrasTotal).Add(quote.PrioritySurcharge).Add(payableMetered)

	return quote, nil
}
