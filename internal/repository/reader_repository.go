package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/qolae/readers-dashboard-api/internal/models"
)

const readerColumns = `pin, full_name, email, role, password_hash, session_token, status, two_factor_code, two_factor_expires_at, two_factor_attempts, nda_signed, nda_signed_at, nda_artifact_path, nda_content_hash, assignments_completed, avg_turnaround_hours, total_earnings, created_at, updated_at`

// ReaderRepository provides database access for reader accounts.
type ReaderRepository struct {
	db *sqlx.DB
}

// NewReaderRepository creates a new instance of ReaderRepository.
func NewReaderRepository(db *sqlx.DB) *ReaderRepository {
	return &ReaderRepository{db: db}
}

// FindByPin returns a reader by pin.
func (r *ReaderRepository) FindByPin(ctx context.Context, pin string) (*models.Reader, error) {
	query := fmt.Sprintf(`SELECT %s FROM readers WHERE pin = $1 LIMIT 1`, readerColumns)
	var reader models.Reader
	if err := r.db.GetContext(ctx, &reader, query, pin); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find reader by pin: %w", err)
	}
	return &reader, nil
}

// FindByEmail returns a reader by email address.
func (r *ReaderRepository) FindByEmail(ctx context.Context, email string) (*models.Reader, error) {
	query := fmt.Sprintf(`SELECT %s FROM readers WHERE email = $1 LIMIT 1`, readerColumns)
	var reader models.Reader
	if err := r.db.GetContext(ctx, &reader, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find reader by email: %w", err)
	}
	return &reader, nil
}

// Create inserts a new reader row.
func (r *ReaderRepository) Create(ctx context.Context, reader *models.Reader) error {
	now := time.Now().UTC()
	if reader.CreatedAt.IsZero() {
		reader.CreatedAt = now
	}
	reader.UpdatedAt = now

	const query = `INSERT INTO readers (pin, full_name, email, role, password_hash, status, nda_signed, assignments_completed, avg_turnaround_hours, total_earnings, created_at, updated_at) VALUES (:pin, :full_name, :email, :role, :password_hash, :status, :nda_signed, :assignments_completed, :avg_turnaround_hours, :total_earnings, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, reader); err != nil {
		return fmt.Errorf("create reader: %w", err)
	}
	return nil
}

// Update updates mutable profile fields of a reader.
func (r *ReaderRepository) Update(ctx context.Context, reader *models.Reader) error {
	reader.UpdatedAt = time.Now().UTC()
	const query = `UPDATE readers SET full_name = :full_name, role = :role, updated_at = :updated_at WHERE pin = :pin`
	if _, err := r.db.NamedExecContext(ctx, query, reader); err != nil {
		return fmt.Errorf("update reader: %w", err)
	}
	return nil
}

// UpdateStatus moves a reader through the access lifecycle.
func (r *ReaderRepository) UpdateStatus(ctx context.Context, pin string, status models.ReaderStatus) error {
	const query = `UPDATE readers SET status = $2, updated_at = $3 WHERE pin = $1`
	if _, err := r.db.ExecContext(ctx, query, pin, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update reader status: %w", err)
	}
	return nil
}

// UpdateTwoFactor stores a freshly issued verification code and resets the
// attempt counter.
func (r *ReaderRepository) UpdateTwoFactor(ctx context.Context, pin, codeHash string, expiresAt time.Time) error {
	const query = `UPDATE readers SET two_factor_code = $2, two_factor_expires_at = $3, two_factor_attempts = 0, updated_at = $4 WHERE pin = $1`
	if _, err := r.db.ExecContext(ctx, query, pin, codeHash, expiresAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("update two factor code: %w", err)
	}
	return nil
}

// IncrementTwoFactorAttempts bumps the failed-attempt counter.
func (r *ReaderRepository) IncrementTwoFactorAttempts(ctx context.Context, pin string) error {
	const query = `UPDATE readers SET two_factor_attempts = two_factor_attempts + 1, updated_at = $2 WHERE pin = $1`
	if _, err := r.db.ExecContext(ctx, query, pin, time.Now().UTC()); err != nil {
		return fmt.Errorf("increment two factor attempts: %w", err)
	}
	return nil
}

// ClearTwoFactor wipes 2FA state after a successful verification.
func (r *ReaderRepository) ClearTwoFactor(ctx context.Context, pin string) error {
	const query = `UPDATE readers SET two_factor_code = NULL, two_factor_expires_at = NULL, two_factor_attempts = 0, updated_at = $2 WHERE pin = $1`
	if _, err := r.db.ExecContext(ctx, query, pin, time.Now().UTC()); err != nil {
		return fmt.Errorf("clear two factor state: %w", err)
	}
	return nil
}

// UpdateSessionToken stores (or clears) the active session token.
func (r *ReaderRepository) UpdateSessionToken(ctx context.Context, pin string, token *string) error {
	const query = `UPDATE readers SET session_token = $2, updated_at = $3 WHERE pin = $1`
	if _, err := r.db.ExecContext(ctx, query, pin, token, time.Now().UTC()); err != nil {
		return fmt.Errorf("update session token: %w", err)
	}
	return nil
}

// UpdateNdaSigned persists the outcome of a completed signing session.
func (r *ReaderRepository) UpdateNdaSigned(ctx context.Context, pin string, signedAt time.Time, artifactPath, contentHash string) error {
	const query = `UPDATE readers SET nda_signed = TRUE, nda_signed_at = $2, nda_artifact_path = $3, nda_content_hash = $4, updated_at = $5 WHERE pin = $1`
	if _, err := r.db.ExecContext(ctx, query, pin, signedAt, artifactPath, contentHash, time.Now().UTC()); err != nil {
		return fmt.Errorf("update nda signed: %w", err)
	}
	return nil
}

// UpdateCounters refreshes the lifetime counters after a completion event.
func (r *ReaderRepository) UpdateCounters(ctx context.Context, pin string, completed int, avgTurnaround, totalEarnings float64) error {
	const query = `UPDATE readers SET assignments_completed = $2, avg_turnaround_hours = $3, total_earnings = $4, updated_at = $5 WHERE pin = $1`
	if _, err := r.db.ExecContext(ctx, query, pin, completed, avgTurnaround, totalEarnings, time.Now().UTC()); err != nil {
		return fmt.Errorf("update reader counters: %w", err)
	}
	return nil
}

// List returns readers based on filters with total count.
func (r *ReaderRepository) List(ctx context.Context, filter models.ReaderFilter) ([]models.Reader, int, error) {
	baseQuery := `FROM readers WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.NdaSigned != nil {
		conditions = append(conditions, fmt.Sprintf("nda_signed = $%d", len(args)+1))
		args = append(args, *filter.NdaSigned)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(email) LIKE $%d OR LOWER(full_name) LIKE $%d OR LOWER(pin) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"pin":        true,
		"email":      true,
		"full_name":  true,
		"created_at": true,
		"updated_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", readerColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var readers []models.Reader
	if err := r.db.SelectContext(ctx, &readers, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list readers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count readers: %w", err)
	}

	return readers, total, nil
}
