package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atelierdoce/storefront-backend/pkg/enums"
)

// Order is the system of record for a checkout submission. Its id is the
// external reference handed to the payment gateway and echoed by webhooks.
// Monetary fields are frozen at creation time and never recomputed from the
// catalog afterward.
type Order struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`

	CustomerName  string `gorm:"column:customer_name;not null"`
	CustomerEmail string `gorm:"column:customer_email;not null"`
	CustomerPhone string `gorm:"column:customer_phone;not null"`
	CustomerTaxID string `gorm:"column:customer_tax_id;not null"`

	PostalCode string  `gorm:"column:postal_code;not null"`
	Street     string  `gorm:"column:street;not null"`
	Number     string  `gorm:"column:number;not null"`
	Complement *string `gorm:"column:complement"`
	District   string  `gorm:"column:district;not null"`
	City       string  `gorm:"column:city;not null"`
	State      string  `gorm:"column:state;not null"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	ShippingName  string          `gorm:"column:shipping_name;not null"`
	ShippingPrice decimal.Decimal `gorm:"column:shipping_price;type:numeric(12,2);not null"`
	TotalAmount   decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null"`

	Status        enums.OrderStatus   `gorm:"column:status;not null;default:'pending_payment'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null;default:'pending'"`
	PaymentID     *string             `gorm:"column:payment_id"`
	PreferenceID  *string             `gorm:"column:preference_id"`

	// Full gateway payment payload from the last applied webhook, kept verbatim
	// for reconciliation and support.
	PaymentPayload json.RawMessage `gorm:"column:payment_payload;type:jsonb"`

	// Gateway-reported payment update time; a webhook older than this is stale
	// and must not overwrite the row.
	PaymentUpdatedAt *time.Time `gorm:"column:payment_updated_at"`
	WebhookUpdatedAt *time.Time `gorm:"column:webhook_updated_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// OrderItem snapshots one cart line at checkout time. Name and unit price are
// copies, deliberately decoupled from later catalog edits.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Name        string          `gorm:"column:name;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Observation string          `gorm:"column:observation;not null;default:''"`
}
