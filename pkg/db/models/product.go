package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/telaprint/telaprint-backend/pkg/enums"
)

// Product is a catalog entry. Metered fabric carries tiered PriceRanges;
// voucher and consumable types are flat priced via BasePrice.
type Product struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string            `gorm:"column:name;not null"`
	SKU             string            `gorm:"column:sku;not null;unique"`
	ProductType     enums.ProductType `gorm:"column:product_type;type:text;not null;default:'metered_fabric'"`
	BasePrice       decimal.Decimal   `gorm:"column:base_price;type:numeric(12,2);not null"`
	IsActive        bool              `gorm:"column:is_active;not null"`
	PriceRanges     []PriceRange      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	VoucherTemplate *VoucherTemplate  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
