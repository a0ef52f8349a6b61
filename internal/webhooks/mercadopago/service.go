package mercadopagowebhook

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/atelierdoce/storefront-backend/internal/orders"
	pkgerrors "github.com/atelierdoce/storefront-backend/pkg/errors"
	"github.com/atelierdoce/storefront-backend/pkg/logger"
	"github.com/atelierdoce/storefront-backend/pkg/mercadopago"
	"github.com/atelierdoce/storefront-backend/pkg/metrics"
)

const gatewayLabel = "mercadopago"

type paymentFetcher interface {
	GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error)
}

type orderUpdater interface {
	ApplyPaymentUpdate(ctx context.Context, input orders.ApplyPaymentUpdateInput) (bool, error)
}

// Outcome classifies what a webhook delivery did.
type Outcome string

const (
	// OutcomeApplied means the order's payment fields were updated.
	OutcomeApplied Outcome = "applied"
	// OutcomeIgnored means the notification carried nothing actionable and
	// was acknowledged without side effects.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeStale means a newer update was already applied.
	OutcomeStale Outcome = "stale"
)

// Notification is the identifying content of one gateway delivery, from the
// JSON body (type/data.id) or the query string (topic/id).
type Notification struct {
	Type    string
	DataID  string
	Topic   string
	QueryID string
}

// PaymentID extracts the gateway payment id, or "" when the notification is
// not about a payment.
func (n Notification) PaymentID() string {
	if n.Type == "payment" && n.DataID != "" {
		return n.DataID
	}
	if n.Topic == "payment" && n.QueryID != "" {
		return n.QueryID
	}
	return ""
}

// Result reports how a delivery was handled.
type Result struct {
	Outcome Outcome
	OrderID uuid.UUID
}

// Service reconciles gateway payment notifications against stored orders.
type Service struct {
	gateway paymentFetcher
	orders  orderUpdater
	logger  *logger.Logger
	metrics *metrics.WebhookMetrics
}

// NewService constructs the webhook reconciler.
func NewService(gateway paymentFetcher, ordersSvc orderUpdater, logg *logger.Logger, m *metrics.WebhookMetrics) (*Service, error) {
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway client required")
	}
	if ordersSvc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	return &Service{gateway: gateway, orders: ordersSvc, logger: logg, metrics: m}, nil
}

// Process handles one delivery. The notification is untrusted: the payment id
// is only a pointer, and the authoritative state is fetched back from the
// gateway. A returned error means the delivery should be retried by the
// gateway; a nil error always acknowledges.
func (s *Service) Process(ctx context.Context, notification Notification) (*Result, error) {
	s.metrics.IncReceived(gatewayLabel)

	paymentID := notification.PaymentID()
	if paymentID == "" {
		s.ignore(ctx, "unrecognized notification", "unrecognized")
		return &Result{Outcome: OutcomeIgnored}, nil
	}

	if s.logger != nil {
		ctx = s.logger.WithPaymentID(ctx, paymentID)
	}

	payment, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		s.metrics.IncFailed(gatewayLabel)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fetching payment details")
	}

	if payment.ExternalReference == "" {
		s.ignore(ctx, "payment has no external reference", "no_external_reference")
		return &Result{Outcome: OutcomeIgnored}, nil
	}

	orderID, err := uuid.Parse(payment.ExternalReference)
	if err != nil {
		s.ignore(ctx, "external reference is not an order id", "bad_external_reference")
		return &Result{Outcome: OutcomeIgnored}, nil
	}

	if s.logger != nil {
		ctx = s.logger.WithOrderID(ctx, orderID.String())
	}

	applied, err := s.orders.ApplyPaymentUpdate(ctx, orders.ApplyPaymentUpdateInput{
		OrderID:          orderID,
		PaymentID:        payment.ID,
		PaymentStatus:    payment.Status,
		RawPayload:       payment.Raw,
		GatewayUpdatedAt: payment.DateLastUpdated,
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			// Terminal: the gateway knows an order we do not. Retrying will
			// not help, so acknowledge and leave the trail in the log.
			s.ignore(ctx, "payment references unknown order", "unknown_order")
			return &Result{Outcome: OutcomeIgnored, OrderID: orderID}, nil
		}
		s.metrics.IncFailed(gatewayLabel)
		return nil, err
	}

	if !applied {
		s.metrics.IncSkipped(gatewayLabel, "stale")
		return &Result{Outcome: OutcomeStale, OrderID: orderID}, nil
	}

	s.metrics.IncApplied(gatewayLabel, payment.Status)
	if s.logger != nil {
		ctx = s.logger.WithField(ctx, "payment_status", payment.Status)
		s.logger.Info(ctx, "payment update applied")
	}
	return &Result{Outcome: OutcomeApplied, OrderID: orderID}, nil
}

func (s *Service) ignore(ctx context.Context, msg, reason string) {
	s.metrics.IncSkipped(gatewayLabel, reason)
	if s.logger != nil {
		s.logger.Warn(s.logger.WithField(ctx, "reason", reason), msg)
	}
}
