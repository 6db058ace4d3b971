package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/telaprint/telaprint-backend/pkg/enums"
)

// Order is a paid-or-pending purchase. VoucherID records the first voucher the
// reconciliation path consumed for it and is set at most once. VoucherMeters
// is the split the customer was credited for at checkout; reconciliation
// drains exactly that figure, not whatever the balance holds at confirmation.
type Order struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber       int64                `gorm:"column:order_number;not null;uniqueIndex:idx_orders_number"`
	UserID            uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	Status            enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentMethod     enums.PaymentMethod  `gorm:"column:payment_method;type:text;not null;default:'card'"`
	PaymentReference  *string              `gorm:"column:payment_reference"`
	VoucherID         *uuid.UUID           `gorm:"column:voucher_id;type:uuid"`
	QuoteID           *uuid.UUID           `gorm:"column:quote_id;type:uuid"`
	Subtotal          decimal.Decimal      `gorm:"column:subtotal;type:numeric(12,2);not null"`
	OriginalSubtotal  decimal.Decimal      `gorm:"column:original_subtotal;type:numeric(12,2);not null"`
	PrioritySurcharge decimal.Decimal      `gorm:"column:priority_surcharge;type:numeric(12,2);not null;default:0"`
	Tax               decimal.Decimal      `gorm:"column:tax;type:numeric(12,2);not null;default:0"`
	Total             decimal.Decimal      `gorm:"column:total;type:numeric(12,2);not null"`
	UseVoucherBalance bool                 `gorm:"column:use_voucher_balance;not null;default:false"`
	VoucherMeters     decimal.Decimal      `gorm:"column:voucher_meters;type:numeric(10,2);not null;default:0"`
	Notes             *string              `gorm:"column:notes"`
	Items             []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusHistory     []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PaidAt            *time.Time           `gorm:"column:paid_at"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
