package models

import (
	"encoding/json"
	"time"
)

// AppSetting stores small configuration documents consumed by the admin
// back-office, keyed by name (e.g. the image uploader credentials).
type AppSetting struct {
	Key       string          `gorm:"column:key;primaryKey"`
	Value     json.RawMessage `gorm:"column:value;type:jsonb;not null"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
