package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atelierdoce/storefront-backend/api/responses"
	"github.com/atelierdoce/storefront-backend/api/validators"
	"github.com/atelierdoce/storefront-backend/internal/checkout"
	"github.com/atelierdoce/storefront-backend/pkg/logger"
)

type checkoutRequest struct {
	Customer checkoutCustomerRequest `json:"customer" validate:"required"`
	Address  checkoutAddressRequest  `json:"address" validate:"required"`
	Items    []checkoutItemRequest   `json:"items" validate:"required,min=1,dive"`
	Shipping checkoutShippingRequest `json:"shipping" validate:"required"`
	BackURLs checkoutBackURLsRequest `json:"back_urls" validate:"required"`
}

type checkoutCustomerRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,max=40"`
	TaxID string `json:"tax_id" validate:"required,max=20"`
}

type checkoutAddressRequest struct {
	PostalCode string  `json:"postal_code" validate:"required,max=10"`
	Street     string  `json:"street" validate:"required,max=200"`
	Number     string  `json:"number" validate:"required,max=20"`
	Complement *string `json:"complement" validate:"omitempty,max=200"`
	District   string  `json:"district" validate:"required,max=100"`
	City       string  `json:"city" validate:"required,max=100"`
	State      string  `json:"state" validate:"required,len=2"`
}

type checkoutItemRequest struct {
	ProductID   uuid.UUID `json:"product_id" validate:"required"`
	Quantity    int       `json:"quantity" validate:"required,min=1"`
	Observation *string   `json:"observation" validate:"omitempty,max=500"`
}

type checkoutShippingRequest struct {
	Name  string          `json:"name" validate:"required,max=100"`
	Price decimal.Decimal `json:"price"`
}

type checkoutBackURLsRequest struct {
	Success string `json:"success" validate:"required,url"`
	Failure string `json:"failure" validate:"required,url"`
	Pending string `json:"pending" validate:"omitempty,url"`
}

// Checkout validates the submission, persists the pending order and returns
// the gateway redirect. Unit prices are intentionally absent from the schema.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]checkout.ItemInput, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, checkout.ItemInput{
				ProductID:   item.ProductID,
				Quantity:    item.Quantity,
				Observation: item.Observation,
			})
		}

		result, err := svc.Checkout(r.Context(), checkout.CheckoutInput{
			Customer: checkout.CustomerInput{
				Name:  req.Customer.Name,
				Email: req.Customer.Email,
				Phone: req.Customer.Phone,
				TaxID: req.Customer.TaxID,
			},
			Address: checkout.AddressInput{
				PostalCode: req.Address.PostalCode,
				Street:     req.Address.Street,
				Number:     req.Address.Number,
				Complement: req.Address.Complement,
				District:   req.Address.District,
				City:       req.Address.City,
				State:      req.Address.State,
			},
			Items: items,
			Shipping: checkout.ShippingInput{
				Name:  req.Shipping.Name,
				Price: req.Shipping.Price,
			},
			BackURLs: checkout.BackURLsInput{
				Success: req.BackURLs.Success,
				Failure: req.BackURLs.Failure,
				Pending: req.BackURLs.Pending,
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

type createPreferenceRequest struct {
	Items             []checkoutItemRequest   `json:"items" validate:"required,min=1,dive"`
	Payer             preferencePayerRequest  `json:"payer" validate:"required"`
	SelectedShipping  checkoutShippingRequest `json:"selected_shipping" validate:"required"`
	ExternalReference string                  `json:"external_reference" validate:"required,max=100"`
	BackURLs          checkoutBackURLsRequest `json:"back_urls" validate:"required"`
	NotificationURL   string                  `json:"notification_url" validate:"required,url"`
}

type preferencePayerRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Surname string `json:"surname" validate:"max=100"`
	Email   string `json:"email" validate:"required,email"`
}

// CreatePaymentPreference builds a gateway preference for an existing
// external reference.
func CreatePaymentPreference(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPreferenceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]checkout.ItemInput, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, checkout.ItemInput{
				ProductID:   item.ProductID,
				Quantity:    item.Quantity,
				Observation: item.Observation,
			})
		}

		result, err := svc.CreatePreference(r.Context(), checkout.PreferenceInput{
			Items: items,
			Payer: checkout.PayerInput{
				Name:    req.Payer.Name,
				Surname: req.Payer.Surname,
				Email:   req.Payer.Email,
			},
			Shipping: checkout.ShippingInput{
				Name:  req.SelectedShipping.Name,
				Price: req.SelectedShipping.Price,
			},
			ExternalReference: req.ExternalReference,
			BackURLs: checkout.BackURLsInput{
				Success: req.BackURLs.Success,
				Failure: req.BackURLs.Failure,
				Pending: req.BackURLs.Pending,
			},
			NotificationURL: req.NotificationURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
