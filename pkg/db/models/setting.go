package models

import "time"

// Setting is one hot-reloadable configuration entry (tax rate, discount pct,
// loyalty points per euro). Values are strings parsed by the settings service.
type Setting struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
