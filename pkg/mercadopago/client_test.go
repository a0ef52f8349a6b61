package mercadopago

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/atelierdoce/storefront-backend/pkg/errors"
	"github.com/atelierdoce/storefront-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func preferenceRequest() PreferenceRequest {
	return PreferenceRequest{
		Items: []PreferenceItem{{
			ID:         "prod-1",
			Title:      "Bolo de cenoura",
			Quantity:   2,
			UnitPrice:  decimal.RequireFromString("45.90"),
			CurrencyID: "BRL",
		}},
		Payer:             PreferencePayer{Name: "Maria", Surname: "Souza", Email: "maria@example.com"},
		BackURLs:          PreferenceBackURLs{Success: "https://shop.test/ok", Failure: "https://shop.test/fail", Pending: "https://shop.test/ok"},
		AutoReturn:        "approved",
		ExternalReference: "order-123",
		NotificationURL:   "https://shop.test/webhooks",
	}
}

func TestCreatePreferenceSendsIdempotencyKey(t *testing.T) {
	var gotPath, gotAuth, gotKey string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("X-Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pref-1","init_point":"https://mp.test/init/pref-1"}`))
	}))
	defer server.Close()

	client, err := NewClient("TEST-token", testLogger(), WithBaseURL(server.URL))
	require.NoError(t, err)

	pref, err := client.CreatePreference(context.Background(), preferenceRequest(), "order-123")
	require.NoError(t, err)

	assert.Equal(t, "/checkout/preferences", gotPath)
	assert.Equal(t, "Bearer TEST-token", gotAuth)
	assert.Equal(t, "order-123", gotKey)
	assert.Equal(t, "order-123", gotBody["external_reference"])
	assert.Equal(t, "approved", gotBody["auto_return"])
	assert.Equal(t, "pref-1", pref.ID)
	assert.Equal(t, "https://mp.test/init/pref-1", pref.InitPoint)
}

func TestCreatePreferenceRejectedIncludesCauses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid items","status":400,"cause":[{"code":4020,"description":"unit_price must be positive"}]}`))
	}))
	defer server.Close()

	client, err := NewClient("TEST-token", testLogger(), WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = client.CreatePreference(context.Background(), preferenceRequest(), "order-123")
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUpstreamRejected, typed.Code())

	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{"unit_price must be positive"}, details["cause"])
}

func TestCreatePreferenceServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewClient("TEST-token", testLogger(), WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = client.CreatePreference(context.Background(), preferenceRequest(), "order-123")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUpstreamUnavailable, pkgerrors.As(err).Code())
}

func TestCreatePreferenceRequiresItems(t *testing.T) {
	client, err := NewClient("TEST-token", testLogger())
	require.NoError(t, err)

	req := preferenceRequest()
	req.Items = nil
	_, err = client.CreatePreference(context.Background(), req, "order-123")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInvalidArgument, pkgerrors.As(err).Code())
}

func TestGetPaymentParsesUpdateTimestamp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/987654", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":987654,"status":"approved","external_reference":"order-123","date_last_updated":"2026-01-20T14:30:00-03:00","extra":"kept"}`))
	}))
	defer server.Close()

	client, err := NewClient("TEST-token", testLogger(), WithBaseURL(server.URL))
	require.NoError(t, err)

	payment, err := client.GetPayment(context.Background(), "987654")
	require.NoError(t, err)

	assert.Equal(t, "987654", payment.ID)
	assert.Equal(t, "approved", payment.Status)
	assert.Equal(t, "order-123", payment.ExternalReference)
	require.NotNil(t, payment.DateLastUpdated)
	expected, _ := time.Parse(time.RFC3339, "2026-01-20T14:30:00-03:00")
	assert.True(t, payment.DateLastUpdated.Equal(expected))
	// Raw keeps the verbatim gateway payload, unknown fields included.
	assert.Contains(t, string(payment.Raw), `"extra":"kept"`)
}

func TestGetPaymentNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewClient("TEST-token", testLogger(), WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = client.GetPayment(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestNewClientRequiresAccessToken(t *testing.T) {
	_, err := NewClient("   ", testLogger())
	require.Error(t, err)
}
