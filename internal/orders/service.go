package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atelierdoce/storefront-backend/pkg/db"
	"github.com/atelierdoce/storefront-backend/pkg/enums"
	pkgerrors "github.com/atelierdoce/storefront-backend/pkg/errors"
	"github.com/atelierdoce/storefront-backend/pkg/logger"
)

// Service exposes order reads, admin mutations and the webhook-driven payment
// update path.
type Service interface {
	GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	ListOrders(ctx context.Context) ([]OrderDTO, error)
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
	ApplyPaymentUpdate(ctx context.Context, input ApplyPaymentUpdateInput) (bool, error)
}

// ApplyPaymentUpdateInput carries the reconciled gateway state for one order.
type ApplyPaymentUpdateInput struct {
	OrderID          uuid.UUID
	PaymentID        string
	PaymentStatus    string
	RawPayload       json.RawMessage
	GatewayUpdatedAt *time.Time
}

type service struct {
	repo   Repository
	logger *logger.Logger
	now    func() time.Time
}

// NewService constructs an orders service instance.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo, logger: logg, now: time.Now}, nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", orderID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finding order")
	}
	return toOrderDTO(order), nil
}

func (s *service) ListOrders(ctx context.Context) ([]OrderDTO, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	dtos := make([]OrderDTO, 0, len(orders))
	for i := range orders {
		dtos = append(dtos, *toOrderDTO(&orders[i]))
	}
	return dtos, nil
}

func (s *service) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting order")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", orderID))
	}
	return nil
}

// ApplyPaymentUpdate overwrites the payment fields from a reconciled webhook.
// A delivery whose gateway timestamp is older than the stored one is stale and
// is skipped without error; identical redelivery overwrites idempotently. The
// boolean result reports whether the row changed.
func (s *service) ApplyPaymentUpdate(ctx context.Context, input ApplyPaymentUpdateInput) (bool, error) {
	order, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		if db.IsNotFound(err) {
			return false, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", input.OrderID))
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finding order")
	}

	if order.PaymentUpdatedAt != nil && input.GatewayUpdatedAt != nil &&
		input.GatewayUpdatedAt.Before(*order.PaymentUpdatedAt) {
		if s.logger != nil {
			ctx = s.logger.WithFields(ctx, map[string]any{
				"stored_at":  order.PaymentUpdatedAt,
				"gateway_at": input.GatewayUpdatedAt,
			})
			s.logger.Warn(ctx, "stale payment update skipped")
		}
		return false, nil
	}

	paymentStatus := enums.PaymentStatus(input.PaymentStatus)
	now := s.now().UTC()

	updates := map[string]any{
		"payment_status":     paymentStatus,
		"payment_id":         input.PaymentID,
		"payment_payload":    input.RawPayload,
		"webhook_updated_at": now,
	}
	if input.GatewayUpdatedAt != nil {
		updates["payment_updated_at"] = input.GatewayUpdatedAt.UTC()
	}
	if status, changed := derivedOrderStatus(order.Status, paymentStatus); changed {
		updates["status"] = status
	}

	if _, err := s.repo.Update(ctx, input.OrderID, updates); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order payment fields")
	}
	return true, nil
}

// derivedOrderStatus maps the gateway payment status onto the storefront
// lifecycle. Intermediate gateway states leave the order untouched.
func derivedOrderStatus(current enums.OrderStatus, payment enums.PaymentStatus) (enums.OrderStatus, bool) {
	switch payment {
	case enums.PaymentStatusApproved:
		return enums.OrderStatusPaid, current != enums.OrderStatusPaid
	case enums.PaymentStatusCancelled, enums.PaymentStatusRejected, enums.PaymentStatusRefunded:
		return enums.OrderStatusCanceled, current != enums.OrderStatusCanceled
	}
	return current, false
}
