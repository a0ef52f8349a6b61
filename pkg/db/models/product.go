package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is the canonical catalog listing. Prices on this row are the only
// authority during checkout; anything a client submits is discarded.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string           `gorm:"column:name;not null"`
	Description string           `gorm:"column:description"`
	Price       decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	PromoPrice  *decimal.Decimal `gorm:"column:promo_price;type:numeric(12,2)"`
	Highlights  pq.StringArray   `gorm:"column:highlights;type:text[];not null;default:ARRAY[]::text[]"`
	ImageURL    *string          `gorm:"column:image_url"`

	// Physical dimensions, all required for a shipping quote.
	WeightKg *decimal.Decimal `gorm:"column:weight_kg;type:numeric(8,3)"`
	HeightCm *decimal.Decimal `gorm:"column:height_cm;type:numeric(8,2)"`
	WidthCm  *decimal.Decimal `gorm:"column:width_cm;type:numeric(8,2)"`
	LengthCm *decimal.Decimal `gorm:"column:length_cm;type:numeric(8,2)"`

	ObservationRequired bool `gorm:"column:observation_required;not null;default:false"`
	IsFeatured          bool `gorm:"column:is_featured;not null;default:false"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
