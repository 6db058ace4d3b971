package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Voucher is an issued prepaid balance of meters and free shipments.
// Remaining balances only move through the ledger's consume path, which bumps
// Version for the optimistic concurrency check.
type Voucher struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code               string          `gorm:"column:code;not null;uniqueIndex:idx_vouchers_code"`
	UserID             uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	OrderID            *uuid.UUID      `gorm:"column:order_id;type:uuid"`
	TemplateID         uuid.UUID       `gorm:"column:template_id;type:uuid;not null"`
	InitialMeters      decimal.Decimal `gorm:"column:initial_meters;type:numeric(10,2);not null"`
	RemainingMeters    decimal.Decimal `gorm:"column:remaining_meters;type:numeric(10,2);not null"`
	InitialShipments   int             `gorm:"column:initial_shipments;not null"`
	RemainingShipments int             `gorm:"column:remaining_shipments;not null"`
	ExpiresAt          *time.Time      `gorm:"column:expires_at"`
	IsActive           bool            `gorm:"column:is_active;not null"`
	UsageCount         int             `gorm:"column:usage_count;not null;default:0"`
	Version            int64           `gorm:"column:version;not null;default:0"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// IsExpired reports whether the voucher has passed its expiry at the given time.
func (v Voucher) IsExpired(now time.Time) bool {
	return v.ExpiresAt != nil && now.After(*v.ExpiresAt)
}

// RecomputeActive re-derives IsActive after a balance mutation: a voucher goes
// inactive exactly when both balances are drained or the expiry has passed.
func (v *Voucher) RecomputeActive(now time.Time) {
	drained := !v.RemainingMeters.IsPositive() && v.RemainingShipments <= 0
	v.IsActive = !drained && !v.IsExpired(now)
}
