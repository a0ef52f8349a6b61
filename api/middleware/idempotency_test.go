package middleware

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atelierdoce/storefront-backend/pkg/logger"
)

type fakeIdempotencyStore struct {
	data map[string]string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{data: map[string]string{}}
}

func (f *fakeIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = fmt.Sprint(value)
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "test:idempotency:" + scope + ":" + id
}

func (f *fakeIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func TestIdempotencyOnCheckout(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	var handlerCalls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"order_id":"abc"}}`))
	})

	store := newFakeIdempotencyStore()
	wrapped := Idempotency(store, logg)(handler)

	makeRequest := func(key, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		return rec
	}

	t.Run("missing key rejected", func(t *testing.T) {
		rec := makeRequest("", `{"items":[]}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 without key, got %d", rec.Code)
		}
	})

	t.Run("replay returns stored response", func(t *testing.T) {
		handlerCalls = 0

		first := makeRequest("key-1", `{"items":[1]}`)
		if first.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", first.Code)
		}
		second := makeRequest("key-1", `{"items":[1]}`)
		if second.Code != http.StatusCreated {
			t.Fatalf("expected replayed 201, got %d", second.Code)
		}
		if second.Body.String() != first.Body.String() {
			t.Fatalf("expected identical replayed body, got %q vs %q", second.Body.String(), first.Body.String())
		}
		if second.Header().Get("Content-Type") != "application/json" {
			t.Fatalf("expected replayed content type, got %q", second.Header().Get("Content-Type"))
		}
		if handlerCalls != 1 {
			t.Fatalf("expected a single handler invocation, got %d", handlerCalls)
		}
	})

	t.Run("key reuse with different body rejected", func(t *testing.T) {
		rec := makeRequest("key-1", `{"items":[2]}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for conflicting reuse, got %d", rec.Code)
		}
	})

	t.Run("other routes pass through without a key", func(t *testing.T) {
		handlerCalls = 0
		req := httptest.NewRequest(http.MethodPost, "/api/v1/shipping/calculate", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected pass-through, got %d", rec.Code)
		}
		if handlerCalls != 1 {
			t.Fatalf("expected handler invocation, got %d", handlerCalls)
		}
	})
}
