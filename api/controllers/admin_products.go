package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/atelierdoce/storefront-backend/api/responses"
	"github.com/atelierdoce/storefront-backend/api/validators"
	"github.com/atelierdoce/storefront-backend/internal/catalog"
	"github.com/atelierdoce/storefront-backend/pkg/logger"
)

type createProductRequest struct {
	Name                string           `json:"name" validate:"required,max=200"`
	Description         string           `json:"description" validate:"max=4000"`
	Price               decimal.Decimal  `json:"price" validate:"required"`
	PromoPrice          *decimal.Decimal `json:"promo_price"`
	Highlights          []string         `json:"highlights"`
	ImageURL            *string          `json:"image_url"`
	WeightKg            *decimal.Decimal `json:"weight_kg"`
	HeightCm            *decimal.Decimal `json:"height_cm"`
	WidthCm             *decimal.Decimal `json:"width_cm"`
	LengthCm            *decimal.Decimal `json:"length_cm"`
	ObservationRequired bool             `json:"observation_required"`
}

type updateProductRequest struct {
	Name                *string          `json:"name" validate:"omitempty,max=200"`
	Description         *string          `json:"description" validate:"omitempty,max=4000"`
	Price               *decimal.Decimal `json:"price"`
	PromoPrice          *decimal.Decimal `json:"promo_price"`
	ClearPromoPrice     bool             `json:"clear_promo_price"`
	Highlights          *[]string        `json:"highlights"`
	ImageURL            *string          `json:"image_url"`
	WeightKg            *decimal.Decimal `json:"weight_kg"`
	HeightCm            *decimal.Decimal `json:"height_cm"`
	WidthCm             *decimal.Decimal `json:"width_cm"`
	LengthCm            *decimal.Decimal `json:"length_cm"`
	ObservationRequired *bool            `json:"observation_required"`
}

type setFeaturedRequest struct {
	Featured bool `json:"featured"`
}

// AdminCreateProduct creates one catalog product.
func AdminCreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.CreateProduct(r.Context(), catalog.CreateProductInput{
			Name:                req.Name,
			Description:         req.Description,
			Price:               req.Price,
			PromoPrice:          req.PromoPrice,
			Highlights:          req.Highlights,
			ImageURL:            req.ImageURL,
			WeightKg:            req.WeightKg,
			HeightCm:            req.HeightCm,
			WidthCm:             req.WidthCm,
			LengthCm:            req.LengthCm,
			ObservationRequired: req.ObservationRequired,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// AdminUpdateProduct applies a partial update to one product.
func AdminUpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := parseUUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.UpdateProduct(r.Context(), productID, catalog.UpdateProductInput{
			Name:                req.Name,
			Description:         req.Description,
			Price:               req.Price,
			PromoPrice:          req.PromoPrice,
			ClearPromoPrice:     req.ClearPromoPrice,
			Highlights:          req.Highlights,
			ImageURL:            req.ImageURL,
			WeightKg:            req.WeightKg,
			HeightCm:            req.HeightCm,
			WidthCm:             req.WidthCm,
			LengthCm:            req.LengthCm,
			ObservationRequired: req.ObservationRequired,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// AdminDeleteProduct removes one product from the catalog.
func AdminDeleteProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := parseUUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// AdminSetFeaturedProduct marks one product as the storefront highlight,
// clearing any previous one in the same transaction.
func AdminSetFeaturedProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := parseUUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req setFeaturedRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SetFeatured(r.Context(), productID, req.Featured); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"product_id": productID, "featured": req.Featured})
	}
}
