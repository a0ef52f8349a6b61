package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atelierdoce/storefront-backend/pkg/logger"
)

func TestAdminAuth(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	makeRequest := func(configured, header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		AdminAuth(configured, logg)(okHandler).ServeHTTP(rec, req)
		return rec
	}

	t.Run("valid token", func(t *testing.T) {
		rec := makeRequest("secret-token", "Bearer secret-token")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected request to pass, got %d", rec.Code)
		}
	})

	t.Run("wrong token reads as not found", func(t *testing.T) {
		rec := makeRequest("secret-token", "Bearer wrong")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404 for wrong token, got %d", rec.Code)
		}
	})

	t.Run("missing header reads as not found", func(t *testing.T) {
		rec := makeRequest("secret-token", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404 without credentials, got %d", rec.Code)
		}
	})

	t.Run("missing scheme reads as not found", func(t *testing.T) {
		rec := makeRequest("secret-token", "secret-token")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404 without bearer scheme, got %d", rec.Code)
		}
	})

	t.Run("unconfigured token fails closed", func(t *testing.T) {
		rec := makeRequest("", "Bearer anything")
		if rec.Code != http.StatusPreconditionFailed {
			t.Fatalf("expected 412 when no token is configured, got %d", rec.Code)
		}
	})
}
