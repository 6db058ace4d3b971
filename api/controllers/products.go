package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/telaprint/telaprint-backend/api/responses"
	"github.com/telaprint/telaprint-backend/api/validators"
	"github.com/telaprint/telaprint-backend/internal/products"
	"github.com/telaprint/telaprint-backend/pkg/db/models"
	"github.com/telaprint/telaprint-backend/pkg/enums"
	pkgerrors "github.com/telaprint/telaprint-backend/pkg/errors"
	"github.com/telaprint/telaprint-backend/pkg/logger"
)

type priceRangeRequest struct {
	FromQty     string  `json:"from_qty" validate:"required"`
	ToQty       *string `json:"to_qty,omitempty"`
	UnitPrice   string  `json:"unit_price" validate:"required"`
	DiscountPct string  `json:"discount_pct"`
}

type voucherTemplateRequest struct {
	InitialMeters    string `json:"initial_meters" validate:"required"`
	InitialShipments int    `json:"initial_shipments" validate:"min=0"`
	Price            string `json:"price" validate:"required"`
}

type createProductRequest struct {
	Name            string                  `json:"name" validate:"required"`
	SKU             string                  `json:"sku" validate:"required"`
	ProductType     string                  `json:"product_type" validate:"required"`
	BasePrice       string                  `json:"base_price" validate:"required"`
	Tiers           []priceRangeRequest     `json:"tiers" validate:"dive"`
	VoucherTemplate *voucherTemplateRequest `json:"voucher_template,omitempty"`
}

type replaceTiersRequest struct {
	Tiers []priceRangeRequest `json:"tiers" validate:"required,min=1,dive"`
}

type priceRangeResponse struct {
	FromQty     decimal.Decimal  `json:"from_qty"`
	ToQty       *decimal.Decimal `json:"to_qty,omitempty"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	DiscountPct decimal.Decimal  `json:"discount_pct"`
}

type voucherTemplateResponse struct {
	InitialMeters    decimal.Decimal `json:"initial_meters"`
	InitialShipments int             `json:"initial_shipments"`
	Price            decimal.Decimal `json:"price"`
}

type productResponse struct {
	ID              uuid.UUID                `json:"id"`
	Name            string                   `json:"name"`
	SKU             string                   `json:"sku"`
	ProductType     string                   `json:"product_type"`
	BasePrice       decimal.Decimal          `json:"base_price"`
	IsActive        bool                     `json:"is_active"`
	Tiers           []priceRangeResponse     `json:"tiers"`
	VoucherTemplate *voucherTemplateResponse `json:"voucher_template,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
}

type productListResponse struct {
	Products   []productResponse `json:"products"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

func toProductResponse(product *models.Product) productResponse {
	tiers := make([]priceRangeResponse, 0, len(product.PriceRanges))
	for _, tier := range product.PriceRanges {
		tiers = append(tiers, priceRangeResponse{
			FromQty:     tier.FromQty,
			ToQty:       tier.ToQty,
			UnitPrice:   tier.UnitPrice,
			DiscountPct: tier.DiscountPct,
		})
	}
	resp := productResponse{
		ID:          product.ID,
		Name:        product.Name,
		SKU:         product.SKU,
		ProductType: product.ProductType.String(),
		BasePrice:   product.BasePrice,
		IsActive:    product.IsActive,
		Tiers:       tiers,
		CreatedAt:   product.CreatedAt,
	}
	if product.VoucherTemplate != nil {
		resp.VoucherTemplate = &voucherTemplateResponse{
			InitialMeters:    product.VoucherTemplate.InitialMeters,
			InitialShipments: product.VoucherTemplate.InitialShipments,
			Price:            product.VoucherTemplate.Price,
		}
	}
	return resp
}

func toProductListResponse(list []models.Product, next string) productListResponse {
	resp := productListResponse{Products: make([]productResponse, 0, len(list)), NextCursor: next}
	for i := range list {
		resp.Products = append(resp.Products, toProductResponse(&list[i]))
	}
	return resp
}

func parseTiers(reqs []priceRangeRequest) ([]models.PriceRange, error) {
	tiers := make([]models.PriceRange, 0, len(reqs))
	for _, req := range reqs {
		fromQty, err := decimal.NewFromString(req.FromQty)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tier from_qty")
		}
		unitPrice, err := decimal.NewFromString(req.UnitPrice)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tier unit_price")
		}
		tier := models.PriceRange{FromQty: fromQty, UnitPrice: unitPrice, DiscountPct: decimal.Zero}
		if req.ToQty != nil {
			toQty, err := decimal.NewFromString(*req.ToQty)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tier to_qty")
			}
			tier.ToQty = &toQty
		}
		if req.DiscountPct != "" {
			pct, err := decimal.NewFromString(req.DiscountPct)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tier discount_pct")
			}
			tier.DiscountPct = pct
		}
		tiers = append(tiers, tier)
	}
	return tiers, nil
}

// ListProducts returns the active catalog.
func ListProducts(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, next, err := svc.ListCatalog(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toProductListResponse(list, next))
	}
}

// GetProduct returns one catalog product with its tier ladder.
func GetProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetDetail(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toProductResponse(product))
	}
}

// AdminListProducts returns the full catalog, inactive products included.
func AdminListProducts(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, next, err := svc.ListAdmin(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toProductListResponse(list, next))
	}
}

// AdminCreateProduct adds a catalog product, optionally with tiers and a
// voucher template.
func AdminCreateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productType, err := enums.ParseProductType(req.ProductType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product type"))
			return
		}
		basePrice, err := decimal.NewFromString(req.BasePrice)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid base price"))
			return
		}
		tiers, err := parseTiers(req.Tiers)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := products.CreateProductInput{
			Name:        req.Name,
			SKU:         req.SKU,
			ProductType: productType,
			BasePrice:   basePrice,
			Tiers:       tiers,
		}
		if req.VoucherTemplate != nil {
			template, err := parseVoucherTemplate(req.VoucherTemplate)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.VoucherTemplate = template
		}

		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toProductResponse(product))
	}
}

func parseVoucherTemplate(req *voucherTemplateRequest) (*models.VoucherTemplate, error) {
	meters, err := decimal.NewFromString(req.InitialMeters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid template initial_meters")
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid template price")
	}
	return &models.VoucherTemplate{
		InitialMeters:    meters,
		InitialShipments: req.InitialShipments,
		Price:            price,
	}, nil
}

// AdminReplaceTiers swaps a product's tier ladder atomically.
func AdminReplaceTiers(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req replaceTiersRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tiers, err := parseTiers(req.Tiers)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ReplaceTiers(r.Context(), productID, tiers); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetDetail(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toProductResponse(product))
	}
}
