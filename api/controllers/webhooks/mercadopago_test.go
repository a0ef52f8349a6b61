package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierdoce/storefront-backend/internal/orders"
	mercadopagowebhook "github.com/atelierdoce/storefront-backend/internal/webhooks/mercadopago"
	"github.com/atelierdoce/storefront-backend/pkg/logger"
	"github.com/atelierdoce/storefront-backend/pkg/mercadopago"
)

type fakeGateway struct {
	payment *mercadopago.Payment
	err     error
	calls   int
}

func (f *fakeGateway) GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.payment, nil
}

type fakeOrders struct {
	applied bool
	err     error
	inputs  []orders.ApplyPaymentUpdateInput
}

func (f *fakeOrders) ApplyPaymentUpdate(ctx context.Context, input orders.ApplyPaymentUpdateInput) (bool, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return false, f.err
	}
	return f.applied, nil
}

func newHandler(t *testing.T, gateway *fakeGateway, ordersSvc *fakeOrders) http.HandlerFunc {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := mercadopagowebhook.NewService(gateway, ordersSvc, logg, nil)
	require.NoError(t, err)
	return MercadoPagoWebhook(svc, logg)
}

func TestMercadoPagoWebhookRejectsNonPost(t *testing.T) {
	handler := newHandler(t, &fakeGateway{}, &fakeOrders{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/webhooks/mercadopago", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "method not allowed", strings.TrimSpace(rec.Body.String()))
}

func TestMercadoPagoWebhookAppliesBodyNotification(t *testing.T) {
	orderID := uuid.New()
	gateway := &fakeGateway{payment: &mercadopago.Payment{
		ID:                "987",
		Status:            "approved",
		ExternalReference: orderID.String(),
		Raw:               json.RawMessage(`{"id":987}`),
	}}
	ordersSvc := &fakeOrders{applied: true}
	handler := newHandler(t, gateway, ordersSvc)

	body := strings.NewReader(`{"type":"payment","data":{"id":"987"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mercadopago", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", strings.TrimSpace(rec.Body.String()))
	require.Len(t, ordersSvc.inputs, 1)
	assert.Equal(t, orderID, ordersSvc.inputs[0].OrderID)
	assert.Equal(t, "approved", ordersSvc.inputs[0].PaymentStatus)
}

func TestMercadoPagoWebhookFallsBackToQueryParams(t *testing.T) {
	orderID := uuid.New()
	gateway := &fakeGateway{payment: &mercadopago.Payment{
		ID:                "654",
		Status:            "approved",
		ExternalReference: orderID.String(),
	}}
	ordersSvc := &fakeOrders{applied: true}
	handler := newHandler(t, gateway, ordersSvc)

	// Malformed body, identifying info only in the query string.
	body := strings.NewReader(`{not json`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mercadopago?topic=payment&id=654", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, gateway.calls)
	require.Len(t, ordersSvc.inputs, 1)
}

func TestMercadoPagoWebhookAcknowledgesUnrecognized(t *testing.T) {
	gateway := &fakeGateway{}
	handler := newHandler(t, gateway, &fakeOrders{})

	body := strings.NewReader(`{"type":"merchant_order","data":{"id":"111"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mercadopago", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", strings.TrimSpace(rec.Body.String()))
	assert.Zero(t, gateway.calls)
}

func TestMercadoPagoWebhookFetchFailureAsksForRetry(t *testing.T) {
	gateway := &fakeGateway{err: errors.New("gateway unreachable")}
	handler := newHandler(t, gateway, &fakeOrders{})

	body := strings.NewReader(`{"type":"payment","data":{"id":"987"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mercadopago", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "error", strings.TrimSpace(rec.Body.String()))
}

func TestMercadoPagoWebhookStaleDeliveryStillAcknowledged(t *testing.T) {
	orderID := uuid.New()
	gateway := &fakeGateway{payment: &mercadopago.Payment{
		ID:                "987",
		Status:            "approved",
		ExternalReference: orderID.String(),
	}}
	ordersSvc := &fakeOrders{applied: false}
	handler := newHandler(t, gateway, ordersSvc)

	body := strings.NewReader(`{"type":"payment","data":{"id":"987"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mercadopago", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", strings.TrimSpace(rec.Body.String()))
}
