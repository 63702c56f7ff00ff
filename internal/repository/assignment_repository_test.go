package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qolae/readers-dashboard-api/internal/models"
)

func newAssignmentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func assignmentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "sequence_number", "reader_pin", "reviewer_role", "case_reference", "document_path",
		"assigned_at", "deadline",
		"correction_submitted", "correction_submitted_at", "correction_path", "correction_notes",
		"turnaround_hours", "approved", "approved_at",
		"payment_status", "payment_amount", "payment_reference", "payment_paid_at",
		"created_at", "updated_at",
	}).AddRow(
		"a-1", 7, "JS-100001", "FIRST_REVIEWER", "CASE-2026-014", "reports/case-2026-014.pdf",
		time.Now(), time.Now().Add(24*time.Hour),
		false, nil, nil, nil,
		nil, false, nil,
		"PENDING", nil, nil, nil,
		time.Now(), time.Now(),
	)
}

func TestAssignmentRepositoryCreateAllocatesSequence(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery("INSERT INTO assignments").
		WithArgs(sqlmock.AnyArg(), "JS-100001", "FIRST_REVIEWER", "CASE-2026-014", "reports/case-2026-014.pdf",
			sqlmock.AnyArg(), sqlmock.AnyArg(), "PENDING", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"sequence_number"}).AddRow(7))

	a := &models.Assignment{
		ReaderPin:     "JS-100001",
		ReviewerRole:  models.RoleFirstReviewer,
		CaseReference: "CASE-2026-014",
		DocumentPath:  "reports/case-2026-014.pdf",
		AssignedAt:    time.Now(),
		Deadline:      time.Now().Add(24 * time.Hour),
		PaymentStatus: models.PaymentPending,
	}
	require.NoError(t, repo.Create(context.Background(), a))
	assert.Equal(t, 7, a.SequenceNumber)
	assert.NotEmpty(t, a.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM assignments WHERE id = \\$1 LIMIT 1").
		WithArgs("a-1").
		WillReturnRows(assignmentRows())

	a, err := repo.FindByID(context.Background(), "a-1")
	require.NoError(t, err)
	assert.Equal(t, 7, a.SequenceNumber)
	assert.Equal(t, models.PaymentPending, a.PaymentStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListByReader(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM assignments WHERE 1=1 AND reader_pin = \\$1 ORDER BY assigned_at DESC LIMIT 20 OFFSET 0").
		WithArgs("JS-100001").
		WillReturnRows(assignmentRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM assignments WHERE 1=1 AND reader_pin = $1")).
		WithArgs("JS-100001").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	assignments, total, err := repo.List(context.Background(), models.AssignmentFilter{ReaderPin: "JS-100001"})
	require.NoError(t, err)
	assert.Len(t, assignments, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositorySubmitCorrection(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments SET correction_submitted = TRUE, correction_submitted_at = $2, correction_path = $3, correction_notes = $4, turnaround_hours = $5, updated_at = $6 WHERE id = $1")).
		WithArgs("a-1", sqlmock.AnyArg(), "corrections/v2.pdf", "typo fixes", 6.5, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SubmitCorrection(context.Background(), "a-1", "corrections/v2.pdf", "typo fixes", time.Now(), 6.5)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCountAwaitingApproval(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM assignments WHERE reader_pin = $1 AND correction_submitted = TRUE AND approved = FALSE")).
		WithArgs("JS-100001").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountAwaitingApprovalByPin(context.Background(), "JS-100001")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositorySumUnpaid(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(payment_amount), 0) FROM assignments WHERE reader_pin = $1 AND payment_status IN ('APPROVED', 'PROCESSING')")).
		WithArgs("JS-100001").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(475.5))

	total, err := repo.SumUnpaidByPin(context.Background(), "JS-100001")
	require.NoError(t, err)
	assert.Equal(t, 475.5, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
