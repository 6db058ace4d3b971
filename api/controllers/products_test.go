package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/telaprint/telaprint-backend/internal/products"
	"github.com/telaprint/telaprint-backend/pkg/db/models"
	"github.com/telaprint/telaprint-backend/pkg/enums"
	pkgerrors "github.com/telaprint/telaprint-backend/pkg/errors"
	"github.com/telaprint/telaprint-backend/pkg/pagination"
)

type stubProductsService struct {
	product *models.Product
	err     error

	createInput  products.CreateProductInput
	replacedWith []models.PriceRange
}

func (s *stubProductsService) GetDetail(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.product, s.err
}

func (s *stubProductsService) ListCatalog(ctx context.Context, params pagination.Params) ([]models.Product, string, error) {
	if s.product == nil {
		return nil, "", s.err
	}
	return []models.Product{*s.product}, "cursor-1", s.err
}

func (s *stubProductsService) ListAdmin(ctx context.Context, params pagination.Params) ([]models.Product, string, error) {
	return s.ListCatalog(ctx, params)
}

func (s *stubProductsService) CreateProduct(ctx context.Context, input products.CreateProductInput) (*models.Product, error) {
	s.createInput = input
	return s.product, s.err
}

func (s *stubProductsService) ReplaceTiers(ctx context.Context, productID uuid.UUID, tiers []models.PriceRange) error {
	s.replacedWith = tiers
	return s.err
}

func sampleProduct() *models.Product {
	toQty := decimal.NewFromInt(50)
	return &models.Product{
		ID:          uuid.New(),
		Name:        "Lino natural",
		SKU:         "LIN-001",
		ProductType: enums.ProductTypeMeteredFabric,
		BasePrice:   decimal.RequireFromString("12.00"),
		IsActive:    true,
		PriceRanges: []models.PriceRange{
			{FromQty: decimal.NewFromInt(1), ToQty: &toQty, UnitPrice: decimal.RequireFromString("12.00"), DiscountPct: decimal.Zero},
			{FromQty: decimal.NewFromInt(51), UnitPrice: decimal.RequireFromString("10.80"), DiscountPct: decimal.RequireFromString("10.00")},
		},
	}
}

func TestListProductsSuccess(t *testing.T) {
	handler := ListProducts(&stubProductsService{product: sampleProduct()}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/public/v1/products", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data productListResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Products) != 1 {
		t.Fatalf("expected 1 product got %d", len(envelope.Data.Products))
	}
	if len(envelope.Data.Products[0].Tiers) != 2 {
		t.Fatalf("expected 2 tiers got %d", len(envelope.Data.Products[0].Tiers))
	}
	if envelope.Data.NextCursor != "cursor-1" {
		t.Fatalf("unexpected cursor: %s", envelope.Data.NextCursor)
	}
}

func TestGetProductNotFound(t *testing.T) {
	handler := GetProduct(&stubProductsService{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}, nil)

	req := adminRequest(http.MethodGet, "/api/public/v1/products/x", "", map[string]string{"productId": uuid.NewString()})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestAdminCreateProductParsesInput(t *testing.T) {
	svc := &stubProductsService{product: sampleProduct()}
	handler := AdminCreateProduct(svc, nil)

	body := `{
		"name": "Bono 50 metros",
		"sku": "BONO-50",
		"product_type": "voucher",
		"base_price": "450.00",
		"voucher_template": {"initial_meters": "50", "initial_shipments": 5, "price": "450.00"}
	}`
	req := adminRequest(http.MethodPost, "/api/admin/v1/products", body, nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.createInput.ProductType != enums.ProductTypeVoucher {
		t.Fatalf("unexpected product type: %s", svc.createInput.ProductType)
	}
	if svc.createInput.VoucherTemplate == nil || svc.createInput.VoucherTemplate.InitialShipments != 5 {
		t.Fatalf("unexpected template: %+v", svc.createInput.VoucherTemplate)
	}
}

func TestAdminCreateProductRejectsBadType(t *testing.T) {
	handler := AdminCreateProduct(&stubProductsService{}, nil)

	body := `{"name":"x","sku":"X-1","product_type":"digital","base_price":"1.00"}`
	req := adminRequest(http.MethodPost, "/api/admin/v1/products", body, nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminReplaceTiersParsesLadder(t *testing.T) {
	svc := &stubProductsService{product: sampleProduct()}
	handler := AdminReplaceTiers(svc, nil)

	body := `{"tiers":[{"from_qty":"1","to_qty":"25","unit_price":"12.00"},{"from_qty":"26","unit_price":"11.00","discount_pct":"8.33"}]}`
	req := adminRequest(http.MethodPut, "/api/admin/v1/products/x/tiers", body, map[string]string{"productId": uuid.NewString()})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.replacedWith) != 2 {
		t.Fatalf("expected 2 tiers got %d", len(svc.replacedWith))
	}
	if svc.replacedWith[0].ToQty == nil || !svc.replacedWith[0].ToQty.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("unexpected first tier upper bound: %+v", svc.replacedWith[0].ToQty)
	}
}
