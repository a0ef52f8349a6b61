package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerInput identifies the buyer on a checkout submission.
type CustomerInput struct {
	Name  string
	Email string
	Phone string
	TaxID string
}

// AddressInput is the delivery address captured at checkout.
type AddressInput struct {
	PostalCode string
	Street     string
	Number     string
	Complement *string
	District   string
	City       string
	State      string
}

// ItemInput references one catalog product by id. Prices are never accepted
// from the client; the catalog resolves them.
type ItemInput struct {
	ProductID   uuid.UUID
	Quantity    int
	Observation *string
}

// ShippingInput is the carrier option the shopper selected.
type ShippingInput struct {
	Name  string
	Price decimal.Decimal
}

// BackURLsInput are the browser redirect targets after payment. Pending
// defaults to the success URL when omitted.
type BackURLsInput struct {
	Success string
	Failure string
	Pending string
}

// CheckoutInput is the full checkout submission.
type CheckoutInput struct {
	Customer CustomerInput
	Address  AddressInput
	Items    []ItemInput
	Shipping ShippingInput
	BackURLs BackURLsInput
}

// CheckoutResult reports the created order and its payment preference.
type CheckoutResult struct {
	OrderID      uuid.UUID       `json:"order_id"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	PreferenceID string          `json:"preference_id"`
	InitPoint    string          `json:"init_point"`
}

// PreferenceInput is the standalone preference-builder contract, used when the
// order already exists and only the gateway preference is needed.
type PreferenceInput struct {
	Items             []ItemInput
	Payer             PayerInput
	Shipping          ShippingInput
	ExternalReference string
	BackURLs          BackURLsInput
	NotificationURL   string
}

// PayerInput is the gateway-facing buyer identity.
type PayerInput struct {
	Name    string
	Surname string
	Email   string
}

// PreferenceResult carries the gateway-issued checkout redirect.
type PreferenceResult struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}
