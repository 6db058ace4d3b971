package controllers

import (
	"net/http"

	"github.com/telaprint/telaprint-backend/api/responses"
	"github.com/telaprint/telaprint-backend/internal/reconcile"
	"github.com/telaprint/telaprint-backend/pkg/enums"
	"github.com/telaprint/telaprint-backend/pkg/logger"
)

// AdminMarkOrderPaid confirms an out-of-band payment for a pending order.
func AdminMarkOrderPaid(svc reconcile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.MarkOrderPaid(r.Context(), reconcile.MarkOrderPaidInput{
			OrderID: orderID,
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
