package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/telaprint/telaprint-backend/pkg/enums"
)

// OrderStatusHistory is the append-only audit trail of order transitions.
type OrderStatusHistory struct {
	ID         uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	FromStatus enums.OrderStatus      `gorm:"column:from_status;type:text;not null"`
	ToStatus   enums.OrderStatus      `gorm:"column:to_status;type:text;not null"`
	Trigger    enums.ReconcileTrigger `gorm:"column:trigger;type:text;not null"`
	Actor      *string                `gorm:"column:actor"`
	Note       *string                `gorm:"column:note"`
	CreatedAt  time.Time              `gorm:"column:created_at;autoCreateTime"`
}

// TableName pins the singular table name from the schema; gorm would
// otherwise pluralize to order_status_histories.
func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}
