package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atelierdoce/storefront-backend/pkg/db/models"
)

// ProductDTO is the catalog projection returned to storefront and admin clients.
type ProductDTO struct {
	ID                  uuid.UUID        `json:"id"`
	Name                string           `json:"name"`
	Description         string           `json:"description"`
	Price               decimal.Decimal  `json:"price"`
	PromoPrice          *decimal.Decimal `json:"promo_price,omitempty"`
	EffectivePrice      decimal.Decimal  `json:"effective_price"`
	Highlights          []string         `json:"highlights"`
	ImageURL            *string          `json:"image_url,omitempty"`
	WeightKg            *decimal.Decimal `json:"weight_kg,omitempty"`
	HeightCm            *decimal.Decimal `json:"height_cm,omitempty"`
	WidthCm             *decimal.Decimal `json:"width_cm,omitempty"`
	LengthCm            *decimal.Decimal `json:"length_cm,omitempty"`
	ObservationRequired bool             `json:"observation_required"`
	IsFeatured          bool             `json:"is_featured"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// ResolvedProduct is the checkout-facing snapshot of one product with its
// authoritative unit price already resolved.
type ResolvedProduct struct {
	ID                  uuid.UUID
	Name                string
	Description         string
	UnitPrice           decimal.Decimal
	ObservationRequired bool
}

func toProductDTO(product *models.Product) *ProductDTO {
	if product == nil {
		return nil
	}
	dto := &ProductDTO{
		ID:                  product.ID,
		Name:                product.Name,
		Description:         product.Description,
		Price:               product.Price,
		PromoPrice:          product.PromoPrice,
		Highlights:          append([]string{}, product.Highlights...),
		ImageURL:            product.ImageURL,
		WeightKg:            product.WeightKg,
		HeightCm:            product.HeightCm,
		WidthCm:             product.WidthCm,
		LengthCm:            product.LengthCm,
		ObservationRequired: product.ObservationRequired,
		IsFeatured:          product.IsFeatured,
		CreatedAt:           product.CreatedAt,
		UpdatedAt:           product.UpdatedAt,
	}
	if effective, err := resolvePrice(product); err == nil {
		dto.EffectivePrice = effective
	} else {
		dto.EffectivePrice = product.Price
	}
	return dto
}
