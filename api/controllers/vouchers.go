package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/telaprint/telaprint-backend/api/responses"
	"github.com/telaprint/telaprint-backend/internal/vouchers"
	"github.com/telaprint/telaprint-backend/pkg/db/models"
	"github.com/telaprint/telaprint-backend/pkg/logger"
)

type voucherBalanceResponse struct {
	Meters    decimal.Decimal `json:"meters"`
	Shipments int             `json:"shipments"`
}

type voucherListResponse struct {
	Vouchers []voucherResponse `json:"vouchers"`
}

type voucherResponse struct {
	ID                 uuid.UUID       `json:"id"`
	Code               string          `json:"code"`
	OrderID            *uuid.UUID      `json:"order_id,omitempty"`
	InitialMeters      decimal.Decimal `json:"initial_meters"`
	RemainingMeters    decimal.Decimal `json:"remaining_meters"`
	InitialShipments   int             `json:"initial_shipments"`
	RemainingShipments int             `json:"remaining_shipments"`
	ExpiresAt          *time.Time      `json:"expires_at,omitempty"`
	IsActive           bool            `json:"is_active"`
	UsageCount         int             `json:"usage_count"`
	CreatedAt          time.Time       `json:"created_at"`
}

func toVoucherResponse(v *models.Voucher) voucherResponse {
	return voucherResponse{
		ID:                 v.ID,
		Code:               v.Code,
		OrderID:            v.OrderID,
		InitialMeters:      v.InitialMeters,
		RemainingMeters:    v.RemainingMeters,
		InitialShipments:   v.InitialShipments,
		RemainingShipments: v.RemainingShipments,
		ExpiresAt:          v.ExpiresAt,
		IsActive:           v.IsActive,
		UsageCount:         v.UsageCount,
		CreatedAt:          v.CreatedAt,
	}
}

// VoucherBalance returns the user's aggregate spendable balance.
func VoucherBalance(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.AvailableBalance(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, voucherBalanceResponse{
			Meters:    balance.Meters,
			Shipments: balance.Shipments,
		})
	}
}

// ListVouchers returns every voucher issued to the user, spent ones included.
func ListVouchers(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := voucherListResponse{Vouchers: make([]voucherResponse, 0, len(list))}
		for i := range list {
			resp.Vouchers = append(resp.Vouchers, toVoucherResponse(&list[i]))
		}
		responses.WriteSuccess(w, resp)
	}
}
