package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/atelierdoce/storefront-backend/api/responses"
	"github.com/atelierdoce/storefront-backend/api/validators"
	"github.com/atelierdoce/storefront-backend/internal/shipping"
	"github.com/atelierdoce/storefront-backend/pkg/logger"
)

// calculateShippingRequest keeps the storefront's original wire vocabulary:
// CEPs and Portuguese dimension names.
type calculateShippingRequest struct {
	FromCEP  string                   `json:"from_cep" validate:"required"`
	ToCEP    string                   `json:"to_cep" validate:"required"`
	Products []shippingProductRequest `json:"products" validate:"required,min=1,dive"`
}

type shippingProductRequest struct {
	ID          string           `json:"id" validate:"required"`
	Largura     *decimal.Decimal `json:"largura"`
	Altura      *decimal.Decimal `json:"altura"`
	Comprimento *decimal.Decimal `json:"comprimento"`
	Peso        *decimal.Decimal `json:"peso"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	Quantity    int              `json:"quantity"`
}

// CalculateShipping quotes carrier options for a cart.
func CalculateShipping(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req calculateShippingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]shipping.QuoteLine, 0, len(req.Products))
		for _, product := range req.Products {
			lines = append(lines, shipping.QuoteLine{
				ProductID: product.ID,
				WidthCm:   product.Largura,
				HeightCm:  product.Altura,
				LengthCm:  product.Comprimento,
				WeightKg:  product.Peso,
				UnitPrice: product.UnitPrice,
				Quantity:  product.Quantity,
			})
		}

		options, err := svc.Quote(r.Context(), shipping.QuoteInput{
			FromCEP: req.FromCEP,
			ToCEP:   req.ToCEP,
			Lines:   lines,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, options)
	}
}
