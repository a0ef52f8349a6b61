package mercadopagowebhook

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierdoce/storefront-backend/internal/orders"
	pkgerrors "github.com/atelierdoce/storefront-backend/pkg/errors"
	"github.com/atelierdoce/storefront-backend/pkg/mercadopago"
)

type fakeGateway struct {
	payments map[string]*mercadopago.Payment
	err      error
	calls    int
}

func (f *fakeGateway) GetPayment(_ context.Context, paymentID string) (*mercadopago.Payment, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if payment, ok := f.payments[paymentID]; ok {
		return payment, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
}

type fakeOrders struct {
	inputs  []orders.ApplyPaymentUpdateInput
	applied bool
	err     error
}

func (f *fakeOrders) ApplyPaymentUpdate(_ context.Context, input orders.ApplyPaymentUpdateInput) (bool, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return false, f.err
	}
	return f.applied, nil
}

func newReconciler(t *testing.T, gateway *fakeGateway, ordersSvc *fakeOrders) *Service {
	t.Helper()
	svc, err := NewService(gateway, ordersSvc, nil, nil)
	require.NoError(t, err)
	return svc
}

func approvedPayment(orderID uuid.UUID) *mercadopago.Payment {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &mercadopago.Payment{
		ID:                "555",
		Status:            "approved",
		ExternalReference: orderID.String(),
		DateLastUpdated:   &at,
		Raw:               json.RawMessage(`{"id":555,"status":"approved"}`),
	}
}

func TestProcessAppliesUpdate(t *testing.T) {
	orderID := uuid.New()
	gateway := &fakeGateway{payments: map[string]*mercadopago.Payment{"555": approvedPayment(orderID)}}
	ordersSvc := &fakeOrders{applied: true}
	svc := newReconciler(t, gateway, ordersSvc)

	result, err := svc.Process(context.Background(), Notification{Type: "payment", DataID: "555"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, result.Outcome)
	assert.Equal(t, orderID, result.OrderID)

	require.Len(t, ordersSvc.inputs, 1)
	input := ordersSvc.inputs[0]
	assert.Equal(t, "555", input.PaymentID)
	assert.Equal(t, "approved", input.PaymentStatus)
	require.NotNil(t, input.GatewayUpdatedAt)
}

func TestProcessQueryStyleNotification(t *testing.T) {
	orderID := uuid.New()
	gateway := &fakeGateway{payments: map[string]*mercadopago.Payment{"777": approvedPayment(orderID)}}
	ordersSvc := &fakeOrders{applied: true}
	svc := newReconciler(t, gateway, ordersSvc)

	result, err := svc.Process(context.Background(), Notification{Topic: "payment", QueryID: "777"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, result.Outcome)
	assert.Equal(t, 1, gateway.calls)
}

func TestProcessUnrecognizedNotification(t *testing.T) {
	gateway := &fakeGateway{}
	ordersSvc := &fakeOrders{}
	svc := newReconciler(t, gateway, ordersSvc)

	result, err := svc.Process(context.Background(), Notification{Type: "merchant_order", DataID: "1"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, result.Outcome)
	assert.Zero(t, gateway.calls)
	assert.Empty(t, ordersSvc.inputs)
}

func TestProcessFetchFailureIsRetryable(t *testing.T) {
	gateway := &fakeGateway{err: pkgerrors.New(pkgerrors.CodeUpstreamUnavailable, "gateway down")}
	svc := newReconciler(t, gateway, &fakeOrders{})

	_, err := svc.Process(context.Background(), Notification{Type: "payment", DataID: "555"})
	require.Error(t, err)
}

func TestProcessNoExternalReference(t *testing.T) {
	gateway := &fakeGateway{payments: map[string]*mercadopago.Payment{
		"555": {ID: "555", Status: "approved"},
	}}
	ordersSvc := &fakeOrders{}
	svc := newReconciler(t, gateway, ordersSvc)

	result, err := svc.Process(context.Background(), Notification{Type: "payment", DataID: "555"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, result.Outcome)
	assert.Empty(t, ordersSvc.inputs)
}

func TestProcessUnknownOrderAcknowledged(t *testing.T) {
	orderID := uuid.New()
	gateway := &fakeGateway{payments: map[string]*mercadopago.Payment{"555": approvedPayment(orderID)}}
	ordersSvc := &fakeOrders{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	svc := newReconciler(t, gateway, ordersSvc)

	result, err := svc.Process(context.Background(), Notification{Type: "payment", DataID: "555"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, result.Outcome)
}

func TestProcessStaleDelivery(t *testing.T) {
	orderID := uuid.New()
	gateway := &fakeGateway{payments: map[string]*mercadopago.Payment{"555": approvedPayment(orderID)}}
	ordersSvc := &fakeOrders{applied: false}
	svc := newReconciler(t, gateway, ordersSvc)

	result, err := svc.Process(context.Background(), Notification{Type: "payment", DataID: "555"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeStale, result.Outcome)
}

func TestProcessDoubleDeliveryIdempotent(t *testing.T) {
	orderID := uuid.New()
	gateway := &fakeGateway{payments: map[string]*mercadopago.Payment{"555": approvedPayment(orderID)}}
	ordersSvc := &fakeOrders{applied: true}
	svc := newReconciler(t, gateway, ordersSvc)

	notification := Notification{Type: "payment", DataID: "555"}
	first, err := svc.Process(context.Background(), notification)
	require.NoError(t, err)
	second, err := svc.Process(context.Background(), notification)
	require.NoError(t, err)

	assert.Equal(t, OutcomeApplied, first.Outcome)
	assert.Equal(t, OutcomeApplied, second.Outcome)
	require.Len(t, ordersSvc.inputs, 2)
	assert.Equal(t, ordersSvc.inputs[0], ordersSvc.inputs[1])
}
