package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/telaprint/telaprint-backend/pkg/enums"
)

// LoyaltyAccount accumulates spend and points per user. Tier is derived from
// TotalSpent thresholds, never stored out of step with it.
type LoyaltyAccount struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID         `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	LoyaltyPoints int64             `gorm:"column:loyalty_points;not null;default:0"`
	TotalSpent    decimal.Decimal   `gorm:"column:total_spent;type:numeric(14,2);not null;default:0"`
	Tier          enums.LoyaltyTier `gorm:"column:tier;type:text;not null;default:'bronze'"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
