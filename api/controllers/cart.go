package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/telaprint/telaprint-backend/api/responses"
	"github.com/telaprint/telaprint-backend/api/validators"
	"github.com/telaprint/telaprint-backend/internal/orders"
	"github.com/telaprint/telaprint-backend/internal/pricing"
	"github.com/telaprint/telaprint-backend/pkg/logger"
	"github.com/telaprint/telaprint-backend/pkg/types"
)

type cartLineRequest struct {
	ProductID uuid.UUID     `json:"product_id" validate:"required"`
	Quantity  string        `json:"quantity" validate:"required"`
	Extras    *types.Extras `json:"extras,omitempty"`
}

type cartQuoteRequest struct {
	Lines      []cartLineRequest `json:"lines" validate:"required,min=1,dive"`
	UseVoucher bool              `json:"use_voucher"`
}

type cartLineResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku"`
	ProductType string          `json:"product_type"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	ExtrasPrice decimal.Decimal `json:"extras_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type cartQuoteResponse struct {
	Lines                        []cartLineResponse `json:"lines"`
	TotalMeters                  decimal.Decimal    `json:"total_meters"`
	MeteredSubtotal              decimal.Decimal    `json:"metered_subtotal"`
	PrioritySurcharge            decimal.Decimal    `json:"priority_surcharge"`
	OriginalSubtotal             decimal.Decimal    `json:"original_subtotal"`
	MetersFromVoucher            decimal.Decimal    `json:"meters_from_voucher"`
	MetersToPay                  decimal.Decimal    `json:"meters_to_pay"`
	PayableSubtotal              decimal.Decimal    `json:"payable_subtotal"`
	CanUseVoucherMeters          bool               `json:"can_use_voucher_meters"`
	CanUseVoucherMetersPartially bool               `json:"can_use_voucher_meters_partially"`
}

// CartQuote prices a cart without creating anything.
func CartQuote(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req cartQuoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := toLineInputs(req.Lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.PreviewCart(r.Context(), userID, lines, req.UseVoucher)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartQuoteResponse(quote))
	}
}

func toLineInputs(reqLines []cartLineRequest) ([]pricing.LineInput, error) {
	lines := make([]pricing.LineInput, 0, len(reqLines))
	for _, line := range reqLines {
		qty, err := parseQuantity(line.Quantity)
		if err != nil {
			return nil, err
		}
		input := pricing.LineInput{ProductID: line.ProductID, Quantity: qty}
		if line.Extras != nil {
			input.Extras = *line.Extras
		}
		lines = append(lines, input)
	}
	return lines, nil
}

func toCartQuoteResponse(quote *pricing.CartQuote) cartQuoteResponse {
	lines := make([]cartLineResponse, 0, len(quote.Lines))
	for _, line := range quote.Lines {
		lines = append(lines, cartLineResponse{
			ProductID:   line.ProductID,
			Name:        line.Name,
			SKU:         line.SKU,
			ProductType: line.ProductType.String(),
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			DiscountPct: line.DiscountPct,
			ExtrasPrice: line.ExtrasPrice,
			Subtotal:    line.Subtotal,
		})
	}
	return cartQuoteResponse{
		Lines:             lines,
		TotalMeters:       quote.TotalMeters,
		MeteredSubtotal:   quote.MeteredSubtotal,
		PrioritySurcharge: quote.PrioritySurcharge,
		OriginalSubtotal:  quote.OriginalSubtotal,
		MetersFromVoucher: quote.MetersFromVoucher,
		MetersToPay:       quote.MetersToPay,
		PayableSubtotal:   quote.PayableSubtotal,

		CanUseVoucherMeters:          quote.CanUseVoucherMeters,
		CanUseVoucherMetersPartially: quote.CanUseVoucherMetersPartially,
	}
}
