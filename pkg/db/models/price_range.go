package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceRange is one quantity band of a product's tiered pricing. ToQty is nil
// on the final open-ended tier. Bands must partition the configured range with
// no gaps or overlaps; pricing.ValidateTierList enforces that shape.
type PriceRange struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID   uuid.UUID        `gorm:"column:product_id;type:uuid;not null;index"`
	FromQty     decimal.Decimal  `gorm:"column:from_qty;type:numeric(10,2);not null"`
	ToQty       *decimal.Decimal `gorm:"column:to_qty;type:numeric(10,2)"`
	UnitPrice   decimal.Decimal  `gorm:"column:unit_price;type:numeric(12,2);not null"`
	DiscountPct decimal.Decimal  `gorm:"column:discount_pct;type:numeric(5,2);not null;default:0"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
}
