package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/telaprint/telaprint-backend/pkg/enums"
)

// Quote is a customer request for a custom print price. OrderID doubles as the
// idempotency key for the one-way conversion into an order.
type Quote struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Status          enums.QuoteStatus   `gorm:"column:status;type:text;not null;default:'pending_review'"`
	EstimatedMeters decimal.Decimal     `gorm:"column:estimated_meters;type:numeric(10,2);not null"`
	PricePerMeter   *decimal.Decimal    `gorm:"column:price_per_meter;type:numeric(12,2)"`
	Total           *decimal.Decimal    `gorm:"column:total;type:numeric(12,2)"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;type:text;not null;default:'card'"`
	PaymentLink     *string             `gorm:"column:payment_link"`
	UseVoucher      bool                `gorm:"column:use_voucher;not null;default:false"`
	Notes           *string             `gorm:"column:notes"`
	OrderID         *uuid.UUID          `gorm:"column:order_id;type:uuid"`
	ConvertedAt     *time.Time          `gorm:"column:converted_at"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
