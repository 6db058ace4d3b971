package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/telaprint/telaprint-backend/api/responses"
	"github.com/telaprint/telaprint-backend/internal/orders"
	"github.com/telaprint/telaprint-backend/pkg/db/models"
	"github.com/telaprint/telaprint-backend/pkg/logger"
	"github.com/telaprint/telaprint-backend/pkg/types"
)

type orderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	ProductType string          `json:"product_type"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Extras      types.Extras    `json:"extras,omitempty"`
}

type orderResponse struct {
	ID                uuid.UUID           `json:"id"`
	OrderNumber       int64               `json:"order_number"`
	Status            string              `json:"status"`
	PaymentMethod     string              `json:"payment_method"`
	PaymentReference  *string             `json:"payment_reference,omitempty"`
	VoucherID         *uuid.UUID          `json:"voucher_id,omitempty"`
	QuoteID           *uuid.UUID          `json:"quote_id,omitempty"`
	Subtotal          decimal.Decimal     `json:"subtotal"`
	OriginalSubtotal  decimal.Decimal     `json:"original_subtotal"`
	PrioritySurcharge decimal.Decimal     `json:"priority_surcharge"`
	Tax               decimal.Decimal     `json:"tax"`
	Total             decimal.Decimal     `json:"total"`
	UseVoucherBalance bool                `json:"use_voucher_balance"`
	Notes             *string             `json:"notes,omitempty"`
	Items             []orderItemResponse `json:"items"`
	PaidAt            *time.Time          `json:"paid_at,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
}

type orderListResponse struct {
	Orders     []orderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

func toOrderResponse(order *models.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductType: item.ProductType.String(),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
			Extras:      item.Extras,
		})
	}
	return orderResponse{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		Status:            order.Status.String(),
		PaymentMethod:     order.PaymentMethod.String(),
		PaymentReference:  order.PaymentReference,
		VoucherID:         order.VoucherID,
		QuoteID:           order.QuoteID,
		Subtotal:          order.Subtotal,
		OriginalSubtotal:  order.OriginalSubtotal,
		PrioritySurcharge: order.PrioritySurcharge,
		Tax:               order.Tax,
		Total:             order.Total,
		UseVoucherBalance: order.UseVoucherBalance,
		Notes:             order.Notes,
		Items:             items,
		PaidAt:            order.PaidAt,
		CreatedAt:         order.CreatedAt,
	}
}

// ListOrders returns the authenticated user's orders, newest first.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
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

		resp := orderListResponse{Orders: make([]orderResponse, 0, len(list)), NextCursor: next}
		for i := range list {
			resp.Orders = append(resp.Orders, toOrderResponse(&list[i]))
		}
		responses.WriteSuccess(w, resp)
	}
}

// GetOrder returns one of the authenticated user's orders.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetForUser(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderResponse(order))
	}
}
