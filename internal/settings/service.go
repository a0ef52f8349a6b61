package settings

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atelierdoce/storefront-backend/pkg/db"
	"github.com/atelierdoce/storefront-backend/pkg/db/models"
	pkgerrors "github.com/atelierdoce/storefront-backend/pkg/errors"
)

const uploaderKey = "uploader"

// UploaderSettings are the public image-uploader credentials the back-office
// embeds in its upload widget. The upload itself happens client-side.
type UploaderSettings struct {
	CloudName    string `json:"cloud_name" validate:"required"`
	UploadPreset string `json:"upload_preset" validate:"required"`
}

// Repository defines persistence for keyed settings documents.
type Repository interface {
	Find(ctx context.Context, key string) (*models.AppSetting, error)
	Upsert(ctx context.Context, setting *models.AppSetting) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a settings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Find(ctx context.Context, key string) (*models.AppSetting, error) {
	var setting models.AppSetting
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *repository) Upsert(ctx context.Context, setting *models.AppSetting) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(setting).Error
}

// Service reads and writes the admin settings documents.
type Service interface {
	GetUploaderSettings(ctx context.Context) (*UploaderSettings, error)
	SetUploaderSettings(ctx context.Context, settings UploaderSettings) error
}

type service struct {
	repo Repository
}

// NewService constructs a settings service instance.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetUploaderSettings(ctx context.Context) (*UploaderSettings, error) {
	setting, err := s.repo.Find(ctx, uploaderKey)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "uploader settings not configured")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading uploader settings")
	}

	var settings UploaderSettings
	if err := json.Unmarshal(setting.Value, &settings); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding uploader settings")
	}
	return &settings, nil
}

func (s *service) SetUploaderSettings(ctx context.Context, settings UploaderSettings) error {
	value, err := json.Marshal(settings)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding uploader settings")
	}
	if err := s.repo.Upsert(ctx, &models.AppSetting{Key: uploaderKey, Value: value}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing uploader settings")
	}
	return nil
}
