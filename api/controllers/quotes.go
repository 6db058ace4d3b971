package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/telaprint/telaprint-backend/api/responses"
	"github.com/telaprint/telaprint-backend/api/validators"
	"github.com/telaprint/telaprint-backend/internal/quotes"
	"github.com/telaprint/telaprint-backend/pkg/db/models"
	pkgerrors "github.com/telaprint/telaprint-backend/pkg/errors"
	"github.com/telaprint/telaprint-backend/pkg/logger"
)

type submitQuoteRequest struct {
	EstimatedMeters string  `json:"estimated_meters" validate:"required"`
	UseVoucher      bool    `json:"use_voucher"`
	Notes           *string `json:"notes,omitempty"`
}

type quoteResponse struct {
	ID              uuid.UUID        `json:"id"`
	Status          string           `json:"status"`
	EstimatedMeters decimal.Decimal  `json:"estimated_meters"`
	PricePerMeter   *decimal.Decimal `json:"price_per_meter,omitempty"`
	Total           *decimal.Decimal `json:"total,omitempty"`
	PaymentMethod   string           `json:"payment_method"`
	PaymentLink     *string          `json:"payment_link,omitempty"`
	UseVoucher      bool             `json:"use_voucher"`
	Notes           *string          `json:"notes,omitempty"`
	OrderID         *uuid.UUID       `json:"order_id,omitempty"`
	ConvertedAt     *time.Time       `json:"converted_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

type quoteListResponse struct {
	Quotes     []quoteResponse `json:"quotes"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

func toQuoteResponse(quote *models.Quote) quoteResponse {
	return quoteResponse{
		ID:              quote.ID,
		Status:          quote.Status.String(),
		EstimatedMeters: quote.EstimatedMeters,
		PricePerMeter:   quote.PricePerMeter,
		Total:           quote.Total,
		PaymentMethod:   quote.PaymentMethod.String(),
		PaymentLink:     quote.PaymentLink,
		UseVoucher:      quote.UseVoucher,
		Notes:           quote.Notes,
		OrderID:         quote.OrderID,
		ConvertedAt:     quote.ConvertedAt,
		CreatedAt:       quote.CreatedAt,
	}
}

func toQuoteListResponse(list []models.Quote, next string) quoteListResponse {
	resp := quoteListResponse{Quotes: make([]quoteResponse, 0, len(list)), NextCursor: next}
	for i := range list {
		resp.Quotes = append(resp.Quotes, toQuoteResponse(&list[i]))
	}
	return resp
}

// SubmitQuote opens a custom print quote for admin review.
func SubmitQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req submitQuoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		meters, err := decimal.NewFromString(req.EstimatedMeters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid estimated meters"))
			return
		}

		quote, err := svc.Submit(r.Context(), userID, quotes.SubmitInput{
			EstimatedMeters: meters,
			UseVoucher:      req.UseVoucher,
			Notes:           req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toQuoteResponse(quote))
	}
}

// ListQuotes returns the authenticated user's quotes, newest first.
func ListQuotes(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, next, err := svc.ListForUser(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toQuoteListResponse(list, next))
	}
}

// GetQuote returns one of the authenticated user's quotes.
func GetQuote(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quoteID, err := parseUUIDParam(r, "quoteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.GetForUser(r.Context(), userID, quoteID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toQuoteResponse(quote))
	}
}
