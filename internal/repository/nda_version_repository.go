package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/qolae/readers-dashboard-api/internal/models"
)

// NdaVersionRepository manages versioned NDA template metadata.
type NdaVersionRepository struct {
	db *sqlx.DB
}

// NewNdaVersionRepository creates a new instance of NdaVersionRepository.
func NewNdaVersionRepository(db *sqlx.DB) *NdaVersionRepository {
	return &NdaVersionRepository{db: db}
}

// Current returns the single active NDA version.
func (r *NdaVersionRepository) Current(ctx context.Context) (*models.NdaVersion, error) {
	const query = `SELECT id, version, title, template_path, counter_required, is_current, created_at FROM nda_versions WHERE is_current = TRUE LIMIT 1`
	var v models.NdaVersion
	if err := r.db.GetContext(ctx, &v, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find current nda version: %w", err)
	}
	return &v, nil
}

// List returns all NDA versions, newest first.
func (r *NdaVersionRepository) List(ctx context.Context) ([]models.NdaVersion, error) {
	const query = `SELECT id, version, title, template_path, counter_required, is_current, created_at FROM nda_versions ORDER BY created_at DESC`
	var versions []models.NdaVersion
	if err := r.db.SelectContext(ctx, &versions, query); err != nil {
		return nil, fmt.Errorf("list nda versions: %w", err)
	}
	return versions, nil
}

// Create inserts a new NDA version row.
func (r *NdaVersionRepository) Create(ctx context.Context, v *models.NdaVersion) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO nda_versions (id, version, title, template_path, counter_required, is_current, created_at) VALUES (:id, :version, :title, :template_path, :counter_required, :is_current, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, v); err != nil {
		return fmt.Errorf("create nda version: %w", err)
	}
	return nil
}

// SetCurrent activates one version and deactivates every other one inside a
// single transaction, preserving the at-most-one-current invariant.
func (r *NdaVersionRepository) SetCurrent(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set current: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `UPDATE nda_versions SET is_current = FALSE WHERE is_current = TRUE`); err != nil {
		return fmt.Errorf("clear current nda version: %w", err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE nda_versions SET is_current = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("set current nda version: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set current: %w", err)
	}
	return nil
}
