package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierdoce/storefront-backend/pkg/db/models"
)

// Repository defines persistence operations for the products table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindFeatured(ctx context.Context) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	ClearFeatured(ctx context.Context) error
	SetFeaturedFlag(ctx context.Context, id uuid.UUID, featured bool) (int64, error)
}
