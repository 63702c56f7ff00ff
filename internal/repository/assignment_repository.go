package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/qolae/readers-dashboard-api/internal/models"
)

const assignmentColumns = `id, sequence_number, reader_pin, reviewer_role, case_reference, document_path, assigned_at, deadline, correction_submitted, correction_submitted_at, correction_path, correction_notes, turnaround_hours, approved, approved_at, payment_status, payment_amount, payment_reference, payment_paid_at, created_at, updated_at`

// AssignmentRepository provides database access for review assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new instance of AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create inserts a new assignment, allocating the next human-visible
// sequence number atomically.
func (r *AssignmentRepository) Create(ctx context.Context, a *models.Assignment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	const query = `INSERT INTO assignments (id, sequence_number, reader_pin, reviewer_role, case_reference, document_path, assigned_at, deadline, correction_submitted, payment_status, created_at, updated_at)
		VALUES ($1, (SELECT COALESCE(MAX(sequence_number), 0) + 1 FROM assignments), $2, $3, $4, $5, $6, $7, FALSE, $8, $9, $10)
		RETURNING sequence_number`
	if err := r.db.GetContext(ctx, &a.SequenceNumber, query,
		a.ID, a.ReaderPin, a.ReviewerRole, a.CaseReference, a.DocumentPath,
		a.AssignedAt, a.Deadline, a.PaymentStatus, a.CreatedAt, a.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// FindByID returns an assignment by identifier.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assignments WHERE id = $1 LIMIT 1`, assignmentColumns)
	var a models.Assignment
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find assignment by id: %w", err)
	}
	return &a, nil
}

// List returns assignments based on filters with total count.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error) {
	baseQuery := `FROM assignments WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.ReaderPin != "" {
		conditions = append(conditions, fmt.Sprintf("reader_pin = $%d", len(args)+1))
		args = append(args, filter.ReaderPin)
	}
	if filter.PaymentStatus != nil {
		conditions = append(conditions, fmt.Sprintf("payment_status = $%d", len(args)+1))
		args = append(args, *filter.PaymentStatus)
	}
	if filter.Submitted != nil {
		conditions = append(conditions, fmt.Sprintf("correction_submitted = $%d", len(args)+1))
		args = append(args, *filter.Submitted)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY assigned_at DESC LIMIT %d OFFSET %d", assignmentColumns, baseQuery, pageSize, offset)

	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list assignments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count assignments: %w", err)
	}

	return assignments, total, nil
}

// SubmitCorrection records a reader's corrected report and the computed
// turnaround.
func (r *AssignmentRepository) SubmitCorrection(ctx context.Context, id string, path, notes string, submittedAt time.Time, turnaroundHours float64) error {
	const query = `UPDATE assignments SET correction_submitted = TRUE, correction_submitted_at = $2, correction_path = $3, correction_notes = $4, turnaround_hours = $5, updated_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, submittedAt, path, notes, turnaroundHours, time.Now().UTC()); err != nil {
		return fmt.Errorf("submit correction: %w", err)
	}
	return nil
}

// Approve marks a submitted correction as approved by the reviewer.
func (r *AssignmentRepository) Approve(ctx context.Context, id string, approvedAt time.Time) error {
	const query = `UPDATE assignments SET approved = TRUE, approved_at = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, approvedAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("approve assignment: %w", err)
	}
	return nil
}

// UpdatePayment transitions the payment lifecycle fields.
func (r *AssignmentRepository) UpdatePayment(ctx context.Context, id string, status models.PaymentStatus, amount *float64, reference *string, paidAt *time.Time) error {
	const query = `UPDATE assignments SET payment_status = $2, payment_amount = COALESCE($3, payment_amount), payment_reference = COALESCE($4, payment_reference), payment_paid_at = COALESCE($5, payment_paid_at), updated_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, amount, reference, paidAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	return nil
}

// CountOpenByPin returns the number of unsubmitted assignments for a reader.
func (r *AssignmentRepository) CountOpenByPin(ctx context.Context, pin string) (int, error) {
	const query = `SELECT COUNT(*) FROM assignments WHERE reader_pin = $1 AND correction_submitted = FALSE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, pin); err != nil {
		return 0, fmt.Errorf("count open assignments: %w", err)
	}
	return count, nil
}

// CountAwaitingApprovalByPin returns the number of submitted corrections
// still waiting on a reviewer decision.
func (r *AssignmentRepository) CountAwaitingApprovalByPin(ctx context.Context, pin string) (int, error) {
	const query = `SELECT COUNT(*) FROM assignments WHERE reader_pin = $1 AND correction_submitted = TRUE AND approved = FALSE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, pin); err != nil {
		return 0, fmt.Errorf("count corrections awaiting approval: %w", err)
	}
	return count, nil
}

// SumUnpaidByPin returns the total approved-but-unpaid amount for a reader.
func (r *AssignmentRepository) SumUnpaidByPin(ctx context.Context, pin string) (float64, error) {
	const query = `SELECT COALESCE(SUM(payment_amount), 0) FROM assignments WHERE reader_pin = $1 AND payment_status IN ('APPROVED', 'PROCESSING')`
	var total float64
	if err := r.db.GetContext(ctx, &total, query, pin); err != nil {
		return 0, fmt.Errorf("sum unpaid amount: %w", err)
	}
	return total, nil
}
