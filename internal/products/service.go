package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/telaprint/telaprint-backend/internal/pricing"
	"github.com/telaprint/telaprint-backend/pkg/db/models"
	"github.com/telaprint/telaprint-backend/pkg/enums"
	pkgerrors "github.com/telaprint/telaprint-backend/pkg/errors"
	"github.com/telaprint/telaprint-backend/pkg/pagination"
)

// CreateProductInput is the admin payload for a new catalog entry.
type CreateProductInput struct {
	Name            string
	SKU             string
	ProductType     enums.ProductType
	BasePrice       decimal.Decimal
	Tiers           []models.PriceRange
	VoucherTemplate *models.VoucherTemplate
}

// Service exposes catalog reads plus the admin mutations.
type Service interface {
	GetDetail(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListCatalog(ctx context.Context, params pagination.Params) ([]models.Product, string, error)
	ListAdmin(ctx context.Context, params pagination.Params) ([]models.Product, string, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	ReplaceTiers(ctx context.Context, productID uuid.UUID, tiers []models.PriceRange) error
}

type service struct {
	repo Repository
}

// NewService builds the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetDetail(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) ListCatalog(ctx context.Context, params pagination.Params) ([]models.Product, string, error) {
	return s.repo.List(ctx, params, true)
}

func (s *service) ListAdmin(ctx context.Context, params pagination.Params) ([]models.Product, string, error) {
	return s.repo.List(ctx, params, false)
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	sku := strings.TrimSpace(input.SKU)
	if name == "" || sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name and sku are required")
	}
	if !input.ProductType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown product type")
	}

	product := &models.Product{
		ID:          uuid.New(),
		Name:        name,
		SKU:         sku,
		ProductType: input.ProductType,
		BasePrice:   input.BasePrice,
		IsActive:    true,
	}

	switch {
	case input.ProductType.IsMetered():
		if err := pricing.ValidateTierList(input.Tiers); err != nil {
			return nil, err
		}
		for i := range input.Tiers {
			input.Tiers[i].ID = uuid.New()
			input.Tiers[i].ProductID = product.ID
		}
		product.PriceRanges = input.Tiers
	case input.ProductType == enums.ProductTypeVoucher:
		if input.VoucherTemplate == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "voucher products require a template")
		}
		if !input.VoucherTemplate.InitialMeters.IsPositive() && input.VoucherTemplate.InitialShipments <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "voucher template must grant meters or shipments")
		}
		template := *input.VoucherTemplate
		template.ID = uuid.New()
		template.ProductID = product.ID
		product.VoucherTemplate = &template
		if !input.BasePrice.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "voucher products require a positive price")
		}
	default:
		if input.BasePrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "base price cannot be negative")
		}
	}

	return s.repo.Create(ctx, product)
}

// ReplaceTiers validates and swaps a metered product's tier list.
func (s *service) ReplaceTiers(ctx context.Context, productID uuid.UUID, tiers []models.PriceRange) error {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if !product.ProductType.IsMetered() {
		return pkgerrors.New(pkgerrors.CodeValidation, "only metered products carry price tiers")
	}
	if err := pricing.ValidateTierList(tiers); err != nil {
		return err
	}
	for i := range tiers {
		if tiers[i].ID == uuid.Nil {
			tiers[i].ID = uuid.New()
		}
	}
	return s.repo.ReplaceTiers(ctx, productID, tiers)
}
