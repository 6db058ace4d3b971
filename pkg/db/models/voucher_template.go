package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VoucherTemplate is the purchasable blueprint for an issued voucher. It is
// never consumed directly; paying for the owning product mints a Voucher.
type VoucherTemplate struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID        uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex"`
	InitialMeters    decimal.Decimal `gorm:"column:initial_meters;type:numeric(10,2);not null"`
	InitialShipments int             `gorm:"column:initial_shipments;not null"`
	Price            decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
}
