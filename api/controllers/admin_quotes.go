package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/telaprint/telaprint-backend/api/middleware"
	"github.com/telaprint/telaprint-backend/api/responses"
	"github.com/telaprint/telaprint-backend/api/validators"
	"github.com/telaprint/telaprint-backend/internal/quotes"
	"github.com/telaprint/telaprint-backend/internal/reconcile"
	"github.com/telaprint/telaprint-backend/pkg/enums"
	pkgerrors "github.com/telaprint/telaprint-backend/pkg/errors"
	"github.com/telaprint/telaprint-backend/pkg/logger"
	"github.com/telaprint/telaprint-backend/pkg/outbox"
)

type attachPricingRequest struct {
	PricePerMeter string `json:"price_per_meter" validate:"required"`
}

type updateQuoteNotesRequest struct {
	Notes string `json:"notes" validate:"required"`
}

type markPaidResponse struct {
	Order    orderResponse `json:"order"`
	Replayed bool          `json:"replayed"`
}

func adminActor(r *http.Request) *outbox.ActorRef {
	userID, err := userIDFromRequest(r)
	if err != nil {
		return nil
	}
	return &outbox.ActorRef{UserID: userID, Role: middleware.RoleFromContext(r.Context())}
}

// AdminListQuotes returns quotes awaiting an admin price.
func AdminListQuotes(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, next, err := svc.ListPendingReview(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toQuoteListResponse(list, next))
	}
}

// AdminAttachPricing sets the per-meter price on a reviewed quote.
func AdminAttachPricing(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quoteID, err := parseUUIDParam(r, "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req attachPricingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		price, err := decimal.NewFromString(req.PricePerMeter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price per meter"))
			return
		}

		quote, err := svc.AttachPricing(r.Context(), quoteID, price)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toQuoteResponse(quote))
	}
}

// AdminSendPaymentLink creates a hosted payment link for a priced quote.
func AdminSendPaymentLink(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quoteID, err := parseUUIDParam(r, "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.SendPaymentLink(r.Context(), quoteID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toQuoteResponse(quote))
	}
}

// AdminSetBizum marks a priced quote as payable out of band via Bizum.
func AdminSetBizum(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quoteID, err := parseUUIDParam(r, "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.SetBizum(r.Context(), quoteID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toQuoteResponse(quote))
	}
}

// AdminUpdateQuoteNotes replaces the admin notes on a quote.
func AdminUpdateQuoteNotes(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quoteID, err := parseUUIDParam(r, "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateQuoteNotesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.UpdateNotes(r.Context(), quoteID, req.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toQuoteResponse(quote))
	}
}

// AdminCancelQuote cancels a quote that has not been paid.
func AdminCancelQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quoteID, err := parseUUIDParam(r, "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Cancel(r.Context(), quoteID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toQuoteResponse(quote))
	}
}

// AdminExpireQuote expires a stale unpaid quote.
func AdminExpireQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quoteID, err := parseUUIDParam(r, "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Expire(r.Context(), quoteID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toQuoteResponse(quote))
	}
}

// AdminMarkQuotePaid confirms an out-of-band payment (Bizum, transfer) and
// converts the quote into a paid order.
func AdminMarkQuotePaid(svc reconcile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quoteID, err := parseUUIDParam(r, "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ConvertQuote(r.Context(), reconcile.ConvertQuoteInput{
			QuoteID: quoteID,
			Trigger: enums.ReconcileTriggerAdmin,
			Actor:   adminActor(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, markPaidResponse{
			Order:    toOrderResponse(result.Order),
			Replayed: result.Replayed,
		})
	}
}
