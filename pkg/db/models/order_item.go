package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/telaprint/telaprint-backend/pkg/enums"
	"github.com/telaprint/telaprint-backend/pkg/types"
)

// OrderItem is one priced line of an order. Extras is the typed customization
// union, validated at the API boundary before it reaches persistence.
type OrderItem struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	// ProductID is nil on quote-converted orders, which price a custom
	// print rather than a catalog entry.
	ProductID   *uuid.UUID        `gorm:"column:product_id;type:uuid"`
	ProductType enums.ProductType `gorm:"column:product_type;type:text;not null"`
	Quantity    decimal.Decimal   `gorm:"column:quantity;type:numeric(10,2);not null"`
	UnitPrice   decimal.Decimal   `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Subtotal    decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Extras      types.Extras      `gorm:"column:extras;type:jsonb"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
}
