package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atelierdoce/storefront-backend/internal/catalog"
	pkgerrors "github.com/atelierdoce/storefront-backend/pkg/errors"
	"github.com/atelierdoce/storefront-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestGetProduct(t *testing.T) {
	logg := testLogger()
	productID := uuid.New()

	makeRequest := func(rawID string, svc catalog.Service) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+rawID, nil)
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("productID", rawID)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
		rec := httptest.NewRecorder()
		GetProduct(svc, logg).ServeHTTP(rec, req)
		return rec
	}

	t.Run("invalid id", func(t *testing.T) {
		rec := makeRequest("not-a-uuid", &stubCatalogService{})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for invalid id, got %d", rec.Code)
		}
	})

	t.Run("not found", func(t *testing.T) {
		stub := &stubCatalogService{getErr: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
		rec := makeRequest(productID.String(), stub)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		stub := &stubCatalogService{product: &catalog.ProductDTO{
			ID:             productID,
			Name:           "Bolo de cenoura",
			Price:          decimal.RequireFromString("55.00"),
			EffectivePrice: decimal.RequireFromString("45.90"),
		}}
		rec := makeRequest(productID.String(), stub)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var envelope struct {
			Data catalog.ProductDTO `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if envelope.Data.ID != productID {
			t.Fatalf("expected product %s, got %s", productID, envelope.Data.ID)
		}
		if !envelope.Data.EffectivePrice.Equal(decimal.RequireFromString("45.90")) {
			t.Fatalf("expected effective price 45.90, got %s", envelope.Data.EffectivePrice)
		}
	})
}

func TestGetFeaturedProduct(t *testing.T) {
	logg := testLogger()

	t.Run("none featured", func(t *testing.T) {
		stub := &stubCatalogService{featuredErr: pkgerrors.New(pkgerrors.CodeNotFound, "no featured product")}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/featured", nil)
		rec := httptest.NewRecorder()
		GetFeaturedProduct(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404 when nothing is featured, got %d", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		stub := &stubCatalogService{product: &catalog.ProductDTO{ID: uuid.New(), IsFeatured: true}}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/featured", nil)
		rec := httptest.NewRecorder()
		GetFeaturedProduct(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}

type stubCatalogService struct {
	product     *catalog.ProductDTO
	getErr      error
	featuredErr error
}

func (s *stubCatalogService) ListProducts(ctx context.Context) ([]catalog.ProductDTO, error) {
	if s.product == nil {
		return []catalog.ProductDTO{}, nil
	}
	return []catalog.ProductDTO{*s.product}, nil
}

func (s *stubCatalogService) GetProduct(ctx context.Context, productID uuid.UUID) (*catalog.ProductDTO, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.product, nil
}

func (s *stubCatalogService) GetFeaturedProduct(ctx context.Context) (*catalog.ProductDTO, error) {
	if s.featuredErr != nil {
		return nil, s.featuredErr
	}
	return s.product, nil
}

func (s *stubCatalogService) CreateProduct(ctx context.Context, input catalog.CreateProductInput) (*catalog.ProductDTO, error) {
	panic("unimplemented")
}

func (s *stubCatalogService) UpdateProduct(ctx context.Context, productID uuid.UUID, input catalog.UpdateProductInput) (*catalog.ProductDTO, error) {
	panic("unimplemented")
}

func (s *stubCatalogService) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	panic("unimplemented")
}

func (s *stubCatalogService) SetFeatured(ctx context.Context, productID uuid.UUID, featured bool) error {
	panic("unimplemented")
}

func (s *stubCatalogService) ResolvePrice(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	panic("unimplemented")
}

func (s *stubCatalogService) ResolveProduct(ctx context.Context, productID uuid.UUID) (*catalog.ResolvedProduct, error) {
	panic("unimplemented")
}
