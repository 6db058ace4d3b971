package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/telaprint/telaprint-backend/api/responses"
	"github.com/telaprint/telaprint-backend/api/validators"
	"github.com/telaprint/telaprint-backend/internal/orders"
	"github.com/telaprint/telaprint-backend/pkg/enums"
	pkgerrors "github.com/telaprint/telaprint-backend/pkg/errors"
	"github.com/telaprint/telaprint-backend/pkg/logger"
)

type checkoutRequest struct {
	Lines         []cartLineRequest `json:"lines" validate:"required,min=1,dive"`
	UseVoucher    bool              `json:"use_voucher"`
	PaymentMethod string            `json:"payment_method" validate:"required"`
	Notes         *string           `json:"notes,omitempty"`
}

type checkoutResponse struct {
	Order      orderResponse     `json:"order"`
	Quote      cartQuoteResponse `json:"quote"`
	PaymentURL string            `json:"payment_url,omitempty"`
}

// Checkout prices the cart, creates a pending order, and returns the hosted
// payment URL when paying by card.
func Checkout(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(req.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		lines, err := toLineInputs(req.Lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), userID, orders.CheckoutInput{
			Lines:         lines,
			UseVoucher:    req.UseVoucher,
			PaymentMethod: method,
			Notes:         req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			Order:      toOrderResponse(result.Order),
			Quote:      toCartQuoteResponse(result.Quote),
			PaymentURL: result.PaymentURL,
		})
	}
}

func parseQuantity(raw string) (decimal.Decimal, error) {
	qty, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid quantity")
	}
	if !qty.IsPositive() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return qty, nil
}
