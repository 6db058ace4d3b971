package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/telaprint/telaprint-backend/api/middleware"
	"github.com/telaprint/telaprint-backend/internal/orders"
	"github.com/telaprint/telaprint-backend/internal/pricing"
	"github.com/telaprint/telaprint-backend/pkg/db/models"
	"github.com/telaprint/telaprint-backend/pkg/enums"
	pkgerrors "github.com/telaprint/telaprint-backend/pkg/errors"
	"github.com/telaprint/telaprint-backend/pkg/pagination"
)

type stubOrdersService struct {
	quote       *pricing.CartQuote
	quoteErr    error
	checkout    *orders.CheckoutResult
	checkoutErr error

	previewLines  []pricing.LineInput
	checkoutInput orders.CheckoutInput
}

func (s *stubOrdersService) PreviewCart(ctx context.Context, userID uuid.UUID, lines []pricing.LineInput, useVoucher bool) (*pricing.CartQuote, error) {
	s.previewLines = lines
	return s.quote, s.quoteErr
}

func (s *stubOrdersService) Checkout(ctx context.Context, userID uuid.UUID, input orders.CheckoutInput) (*orders.CheckoutResult, error) {
	s.checkoutInput = input
	return s.checkout, s.checkoutErr
}

func (s *stubOrdersService) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubOrdersService) GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubOrdersService) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	return nil, "", nil
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	ctx := middleware.WithUserID(req.Context(), uuid.NewString())
	return req.WithContext(ctx)
}

func sampleCartQuote() *pricing.CartQuote {
	return &pricing.CartQuote{
		Lines: []pricing.PricedLine{{
			ProductID:   uuid.New(),
			Name:        "Algodon estampado",
			SKU:         "ALG-001",
			ProductType: enums.ProductTypeMeteredFabric,
			Quantity:    decimal.NewFromInt(12),
			UnitPrice:   decimal.RequireFromString("9.50"),
			DiscountPct: decimal.RequireFromString("5.00"),
			Subtotal:    decimal.RequireFromString("108.30"),
		}},
		TotalMeters:      decimal.NewFromInt(12),
		MeteredSubtotal:  decimal.RequireFromString("108.30"),
		OriginalSubtotal: decimal.RequireFromString("114.00"),
		MetersToPay:      decimal.NewFromInt(12),
		PayableSubtotal:  decimal.RequireFromString("108.30"),
	}
}

func TestCartQuoteSuccess(t *testing.T) {
	svc := &stubOrdersService{quote: sampleCartQuote()}
	handler := CartQuote(svc, nil)

	body := `{"lines":[{"product_id":"` + uuid.NewString() + `","quantity":"12"}],"use_voucher":false}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/cart/quote", body))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data cartQuoteResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Lines) != 1 {
		t.Fatalf("expected 1 line got %d", len(envelope.Data.Lines))
	}
	if !envelope.Data.PayableSubtotal.Equal(decimal.RequireFromString("108.30")) {
		t.Fatalf("unexpected payable subtotal: %s", envelope.Data.PayableSubtotal)
	}
	if len(svc.previewLines) != 1 || !svc.previewLines[0].Quantity.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("unexpected preview lines: %+v", svc.previewLines)
	}
}

func TestCartQuoteRejectsNonPositiveQuantity(t *testing.T) {
	handler := CartQuote(&stubOrdersService{}, nil)

	body := `{"lines":[{"product_id":"` + uuid.NewString() + `","quantity":"0"}]}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/cart/quote", body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartQuoteRequiresAuth(t *testing.T) {
	handler := CartQuote(&stubOrdersService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/quote", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
