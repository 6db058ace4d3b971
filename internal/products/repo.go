package products

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/telaprint/telaprint-backend/pkg/db/models"
	pkgerrors "github.com/telaprint/telaprint-backend/pkg/errors"
	"github.com/telaprint/telaprint-backend/pkg/pagination"
)

// Repository persists catalog products, their price tiers, and voucher
// templates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	List(ctx context.Context, params pagination.Params, activeOnly bool) ([]models.Product, string, error)
	ReplaceTiers(ctx context.Context, productID uuid.UUID, tiers []models.PriceRange) error
	TemplateByProductID(ctx context.Context, productID uuid.UUID) (*models.VoucherTemplate, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a products repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("PriceRanges").
		Preload("VoucherTemplate").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("PriceRanges").
		Preload("VoucherTemplate").
		Where("id IN ?", ids).
		Where("is_active = ?", true).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, activeOnly bool) ([]models.Product, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Preload("PriceRanges").
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(products) > limit {
		products = products[:limit]
		tail := products[limit-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: tail.CreatedAt, ID: tail.ID})
	}
	return products, next, nil
}

// ReplaceTiers swaps a product's full tier list in one statement pair.
func (r *repository) ReplaceTiers(ctx context.Context, productID uuid.UUID, tiers []models.PriceRange) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Delete(&models.PriceRange{}).Error; err != nil {
			return err
		}
		if len(tiers) == 0 {
			return nil
		}
		for i := range tiers {
			tiers[i].ProductID = productID
		}
		return tx.Create(&tiers).Error
	})
}

func (r *repository) TemplateByProductID(ctx context.Context, productID uuid.UUID) (*models.VoucherTemplate, error) {
	var template models.VoucherTemplate
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "voucher template not found")
		}
		return nil, err
	}
	return &template, nil
}
