package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atelierdoce/storefront-backend/pkg/db/models"
	"github.com/atelierdoce/storefront-backend/pkg/enums"
)

// OrderDTO is the back-office projection of one order.
type OrderDTO struct {
	ID uuid.UUID `json:"id"`

	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	CustomerTaxID string `json:"customer_tax_id"`

	PostalCode string  `json:"postal_code"`
	Street     string  `json:"street"`
	Number     string  `json:"number"`
	Complement *string `json:"complement,omitempty"`
	District   string  `json:"district"`
	City       string  `json:"city"`
	State      string  `json:"state"`

	Items []OrderItemDTO `json:"items"`

	ShippingName  string          `json:"shipping_name"`
	ShippingPrice decimal.Decimal `json:"shipping_price"`
	TotalAmount   decimal.Decimal `json:"total_amount"`

	Status           enums.OrderStatus   `json:"status"`
	PaymentStatus    enums.PaymentStatus `json:"payment_status"`
	PaymentID        *string             `json:"payment_id,omitempty"`
	PreferenceID     *string             `json:"preference_id,omitempty"`
	PaymentUpdatedAt *time.Time          `json:"payment_updated_at,omitempty"`
	WebhookUpdatedAt *time.Time          `json:"webhook_updated_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// OrderItemDTO is one snapshotted cart line.
type OrderItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Observation string          `json:"observation,omitempty"`
}

func toOrderDTO(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			Name:        item.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Observation: item.Observation,
		})
	}
	return &OrderDTO{
		ID:               order.ID,
		CustomerName:     order.CustomerName,
		CustomerEmail:    order.CustomerEmail,
		CustomerPhone:    order.CustomerPhone,
		CustomerTaxID:    order.CustomerTaxID,
		PostalCode:       order.PostalCode,
		Street:           order.Street,
		Number:           order.Number,
		Complement:       order.Complement,
		District:         order.District,
		City:             order.City,
		State:            order.State,
		Items:            items,
		ShippingName:     order.ShippingName,
		ShippingPrice:    order.ShippingPrice,
		TotalAmount:      order.TotalAmount,
		Status:           order.Status,
		PaymentStatus:    order.PaymentStatus,
		PaymentID:        order.PaymentID,
		PreferenceID:     order.PreferenceID,
		PaymentUpdatedAt: order.PaymentUpdatedAt,
		WebhookUpdatedAt: order.WebhookUpdatedAt,
		CreatedAt:        order.CreatedAt,
	}
}
