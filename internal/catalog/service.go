package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/atelierdoce/storefront-backend/pkg/db"
	"github.com/atelierdoce/storefront-backend/pkg/db/models"
	pkgerrors "github.com/atelierdoce/storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes catalog reads, admin mutations and price resolution.
type Service interface {
	ListProducts(ctx context.Context) ([]ProductDTO, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	GetFeaturedProduct(ctx context.Context) (*ProductDTO, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	SetFeatured(ctx context.Context, productID uuid.UUID, featured bool) error
	ResolvePrice(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)
	ResolveProduct(ctx context.Context, productID uuid.UUID) (*ResolvedProduct, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name                string
	Description         string
	Price               decimal.Decimal
	PromoPrice          *decimal.Decimal
	Highlights          []string
	ImageURL            *string
	WeightKg            *decimal.Decimal
	HeightCm            *decimal.Decimal
	WidthCm             *decimal.Decimal
	LengthCm            *decimal.Decimal
	ObservationRequired bool
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name                *string
	Description         *string
	Price               *decimal.Decimal
	PromoPrice          *decimal.Decimal
	ClearPromoPrice     bool
	Highlights          *[]string
	ImageURL            *string
	WeightKg            *decimal.Decimal
	HeightCm            *decimal.Decimal
	WidthCm             *decimal.Decimal
	LengthCm            *decimal.Decimal
	ObservationRequired *bool
}

type service struct {
	repo     Repository
	dbClient txRunner
}

// NewService constructs a catalog service instance.
func NewService(repo Repository, dbClient txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

func (s *service) ListProducts(ctx context.Context) ([]ProductDTO, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}
	dtos := make([]ProductDTO, 0, len(products))
	for i := range products {
		dtos = append(dtos, *toProductDTO(&products[i]))
	}
	return dtos, nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return toProductDTO(product), nil
}

func (s *service) GetFeaturedProduct(ctx context.Context) (*ProductDTO, error) {
	product, err := s.repo.FindFeatured(ctx)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no featured product")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finding featured product")
	}
	return toProductDTO(product), nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "price must not be negative")
	}
	product := &models.Product{
		Name:                input.Name,
		Description:         input.Description,
		Price:               input.Price,
		PromoPrice:          input.PromoPrice,
		Highlights:          pq.StringArray(input.Highlights),
		ImageURL:            input.ImageURL,
		WeightKg:            input.WeightKg,
		HeightCm:            input.HeightCm,
		WidthCm:             input.WidthCm,
		LengthCm:            input.LengthCm,
		ObservationRequired: input.ObservationRequired,
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating product")
	}
	return toProductDTO(created), nil
}

func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidArgument, "price must not be negative")
		}
		updates["price"] = *input.Price
	}
	if input.ClearPromoPrice {
		updates["promo_price"] = nil
	} else if input.PromoPrice != nil {
		updates["promo_price"] = *input.PromoPrice
	}
	if input.Highlights != nil {
		updates["highlights"] = pq.StringArray(*input.Highlights)
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}
	if input.WeightKg != nil {
		updates["weight_kg"] = *input.WeightKg
	}
	if input.HeightCm != nil {
		updates["height_cm"] = *input.HeightCm
	}
	if input.WidthCm != nil {
		updates["width_cm"] = *input.WidthCm
	}
	if input.LengthCm != nil {
		updates["length_cm"] = *input.LengthCm
	}
	if input.ObservationRequired != nil {
		updates["observation_required"] = *input.ObservationRequired
	}
	if len(updates) == 0 {
		return s.GetProduct(ctx, productID)
	}

	affected, err := s.repo.Update(ctx, productID, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating product")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", productID))
	}
	return s.GetProduct(ctx, productID)
}

func (s *service) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting product")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", productID))
	}
	return nil
}

// SetFeatured clears every featured flag and sets the target inside one
// transaction, so the single-featured invariant holds even when the write
// fails midway.
func (s *service) SetFeatured(ctx context.Context, productID uuid.UUID, featured bool) error {
	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.ClearFeatured(ctx); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing featured flags")
		}
		affected, err := repo.SetFeaturedFlag(ctx, productID, featured)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "setting featured flag")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", productID))
		}
		return nil
	})
}

// ResolvePrice returns the authoritative unit price for a product. The
// promotional price wins only when present, positive and strictly lower than
// the base price.
func (s *service) ResolvePrice(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return resolvePrice(product)
}

// ResolveProduct returns the checkout snapshot for one product, with the unit
// price resolved by the same rule as ResolvePrice.
func (s *service) ResolveProduct(ctx context.Context, productID uuid.UUID) (*ResolvedProduct, error) {
	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	price, err := resolvePrice(product)
	if err != nil {
		return nil, err
	}
	return &ResolvedProduct{
		ID:                  product.ID,
		Name:                product.Name,
		Description:         product.Description,
		UnitPrice:           price,
		ObservationRequired: product.ObservationRequired,
	}, nil
}

func (s *service) findProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", productID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finding product")
	}
	return product, nil
}

func resolvePrice(product *models.Product) (decimal.Decimal, error) {
	if product == nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if promo := product.PromoPrice; promo != nil && promo.IsPositive() && promo.LessThan(product.Price) {
		return *promo, nil
	}
	if product.Price.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeInvalidProductState,
			fmt.Sprintf("product %s has no valid price", product.ID)).
			WithDetails(map[string]any{"product_id": product.ID.String()})
	}
	return product.Price, nil
}
