package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/qolae/readers-dashboard-api/internal/models"
	appErrors "github.com/qolae/readers-dashboard-api/pkg/errors"
	"github.com/qolae/readers-dashboard-api/pkg/pdfform"
	"github.com/qolae/readers-dashboard-api/pkg/storage"
)

type ndaVersionAdminStore interface {
	Current(ctx context.Context) (*models.NdaVersion, error)
	List(ctx context.Context) ([]models.NdaVersion, error)
	Create(ctx context.Context, v *models.NdaVersion) error
	SetCurrent(ctx context.Context, id string) error
}

// NdaVersionService manages agreement template versions. Publishing a
// version validates the template file before it can ever reach a reader.
type NdaVersionService struct {
	versions ndaVersionAdminStore
	store    *storage.ArtifactStore
	validate *validator.Validate
	logger   *zap.Logger
}

func NewNdaVersionService(versions ndaVersionAdminStore, store *storage.ArtifactStore, validate *validator.Validate, logger *zap.Logger) *NdaVersionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NdaVersionService{versions: versions, store: store, validate: validate, logger: logger}
}

func (s *NdaVersionService) Current(ctx context.Context) (*models.NdaVersion, error) {
	version, err := s.versions.Current(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no current agreement version")
		}
		return nil, err
	}
	return version, nil
}

func (s *NdaVersionService) List(ctx context.Context) ([]models.NdaVersion, error) {
	return s.versions.List(ctx)
}

// Create registers a new template version. The referenced template file
// must already exist in the template store and parse cleanly.
func (s *NdaVersionService) Create(ctx context.Context, v *models.NdaVersion) (*models.NdaVersion, error) {
	if v.Version == "" || v.TemplatePath == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "version and template_path are required")
	}
	raw, err := s.store.Read(s.store.TemplatePath(v.TemplatePath))
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "template file is not present in the template store")
	}
	tpl, err := pdfform.ParseTemplate(raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "template file does not parse")
	}
	if v.Title == "" {
		v.Title = tpl.Title
	}
	if err := s.versions.Create(ctx, v); err != nil {
		return nil, err
	}
	s.logger.Info("nda version registered", zap.String("version", v.Version))
	return v, nil
}

// Publish marks a version as the one new signatures bind to.
func (s *NdaVersionService) Publish(ctx context.Context, id string) error {
	if err := s.versions.SetCurrent(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "agreement version not found")
		}
		return err
	}
	return nil
}
