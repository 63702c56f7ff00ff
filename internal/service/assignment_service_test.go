package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qolae/readers-dashboard-api/internal/dto"
	"github.com/qolae/readers-dashboard-api/internal/models"
	appErrors "github.com/qolae/readers-dashboard-api/pkg/errors"
)

type mockAssignments struct {
	byID map[string]*models.Assignment

	created     *models.Assignment
	unpaidTotal float64
	payments    int
}

func newMockAssignments() *mockAssignments {
	return &mockAssignments{byID: make(map[string]*models.Assignment)}
}

func (m *mockAssignments) Create(_ context.Context, a *models.Assignment) error {
	a.ID = "a-1"
	a.SequenceNumber = 7
	m.created = a
	m.byID[a.ID] = a
	return nil
}

func (m *mockAssignments) FindByID(_ context.Context, id string) (*models.Assignment, error) {
	a, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *a
	return &copied, nil
}

func (m *mockAssignments) List(_ context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error) {
	var out []models.Assignment
	for _, a := range m.byID {
		if filter.ReaderPin != "" && a.ReaderPin != filter.ReaderPin {
			continue
		}
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (m *mockAssignments) SubmitCorrection(_ context.Context, id, path, notes string, submittedAt time.Time, turnaroundHours float64) error {
	a := m.byID[id]
	a.CorrectionSubmitted = true
	a.CorrectionSubmittedAt = &submittedAt
	a.CorrectionPath = &path
	a.CorrectionNotes = &notes
	a.TurnaroundHours = &turnaroundHours
	return nil
}

func (m *mockAssignments) Approve(_ context.Context, id string, approvedAt time.Time) error {
	a := m.byID[id]
	a.Approved = true
	a.ApprovedAt = &approvedAt
	return nil
}

func (m *mockAssignments) UpdatePayment(_ context.Context, id string, status models.PaymentStatus, amount *float64, reference *string, paidAt *time.Time) error {
	a := m.byID[id]
	a.PaymentStatus = status
	a.PaymentAmount = amount
	a.PaymentReference = reference
	a.PaymentPaidAt = paidAt
	m.payments++
	return nil
}

func (m *mockAssignments) SumUnpaidByPin(context.Context, string) (float64, error) {
	return m.unpaidTotal, nil
}

type mockCounters struct {
	reader *models.Reader

	completed     int
	avgTurnaround float64
	totalEarnings float64
	updates       int
}

func (m *mockCounters) FindByPin(_ context.Context, pin string) (*models.Reader, error) {
	if m.reader == nil || m.reader.Pin != pin {
		return nil, sql.ErrNoRows
	}
	return m.reader, nil
}

func (m *mockCounters) UpdateCounters(_ context.Context, _ string, completed int, avgTurnaround, totalEarnings float64) error {
	m.completed = completed
	m.avgTurnaround = avgTurnaround
	m.totalEarnings = totalEarnings
	m.updates++
	return nil
}

type mockAssignmentNotifier struct {
	notices int
}

func (m *mockAssignmentNotifier) SendAssignmentNotice(_, _ string, _ int, _ time.Time) {
	m.notices++
}

type assignmentFixture struct {
	svc         *AssignmentService
	assignments *mockAssignments
	readers     *mockCounters
	notifier    *mockAssignmentNotifier
	activity    *mockActivity
	now         time.Time
}

func newAssignmentFixture(t *testing.T) *assignmentFixture {
	t.Helper()

	assignments := newMockAssignments()
	readers := &mockCounters{reader: &models.Reader{
		Pin:       "JS-100001",
		FullName:  "Jordan Smith",
		Email:     "jordan@example.org",
		Role:      models.RoleFirstReviewer,
		Status:    models.StatusActive,
		NdaSigned: true,
	}}
	notifier := &mockAssignmentNotifier{}
	activity := &mockActivity{}

	svc := NewAssignmentService(assignments, readers, notifier, activity,
		validator.New(), nil, 24*time.Hour, nil)

	f := &assignmentFixture{
		svc:         svc,
		assignments: assignments,
		readers:     readers,
		notifier:    notifier,
		activity:    activity,
		now:         time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC),
	}
	svc.now = func() time.Time { return f.now }
	return f
}

func validAssignmentRequest() dto.CreateAssignmentRequest {
	return dto.CreateAssignmentRequest{
		ReaderPin:     "JS-100001",
		ReviewerRole:  models.RoleFirstReviewer,
		CaseReference: "CASE-2026-014",
		DocumentPath:  "reports/case-2026-014.pdf",
	}
}

func TestCreateAssignmentDefaultsDeadline(t *testing.T) {
	f := newAssignmentFixture(t)

	assignment, err := f.svc.Create(context.Background(), validAssignmentRequest(), "ADMIN-1", "10.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, f.now.Add(24*time.Hour), assignment.Deadline)
	assert.Equal(t, models.PaymentPending, assignment.PaymentStatus)
	assert.Equal(t, 1, f.notifier.notices)
	assert.Contains(t, f.activity.types(), models.ActivityAssignmentCreated)
}

func TestCreateAssignmentRejectsPastDeadline(t *testing.T) {
	f := newAssignmentFixture(t)
	req := validAssignmentRequest()
	past := f.now.Add(-time.Hour)
	req.Deadline = &past

	_, err := f.svc.Create(context.Background(), req, "ADMIN-1", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateAssignmentRequiresSignedNda(t *testing.T) {
	f := newAssignmentFixture(t)
	f.readers.reader.NdaSigned = false

	_, err := f.svc.Create(context.Background(), validAssignmentRequest(), "ADMIN-1", "")
	assert.ErrorIs(t, err, appErrors.ErrNdaRequired)
}

func TestCreateAssignmentRequiresActiveReader(t *testing.T) {
	f := newAssignmentFixture(t)
	f.readers.reader.Status = models.StatusOnHold

	_, err := f.svc.Create(context.Background(), validAssignmentRequest(), "ADMIN-1", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestGetForReaderEnforcesOwnership(t *testing.T) {
	f := newAssignmentFixture(t)
	_, err := f.svc.Create(context.Background(), validAssignmentRequest(), "ADMIN-1", "")
	require.NoError(t, err)

	_, err = f.svc.GetForReader(context.Background(), "a-1", "XX-999999")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestGetUnknownAssignment(t *testing.T) {
	f := newAssignmentFixture(t)

	// sql.ErrNoRows from the store must come back as NOT_FOUND, not a 500.
	_, err := f.svc.Get(context.Background(), "no-such-id")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}

func TestSubmitCorrectionRecordsTurnaround(t *testing.T) {
	f := newAssignmentFixture(t)
	_, err := f.svc.Create(context.Background(), validAssignmentRequest(), "ADMIN-1", "")
	require.NoError(t, err)

	f.now = f.now.Add(6 * time.Hour)
	assignment, err := f.svc.SubmitCorrection(context.Background(), "a-1", "JS-100001",
		dto.SubmitCorrectionRequest{CorrectionPath: "corrections/case-2026-014-v2.pdf"}, "10.0.0.1")
	require.NoError(t, err)

	assert.True(t, assignment.CorrectionSubmitted)
	require.NotNil(t, assignment.TurnaroundHours)
	assert.InDelta(t, 6.0, *assignment.TurnaroundHours, 0.01)
	assert.Contains(t, f.activity.types(), models.ActivityCorrectionSubmitted)
}

func TestSubmitCorrectionAfterApprovalIsFinal(t *testing.T) {
	f := newAssignmentFixture(t)
	_, err := f.svc.Create(context.Background(), validAssignmentRequest(), "ADMIN-1", "")
	require.NoError(t, err)
	f.assignments.byID["a-1"].CorrectionSubmitted = true
	f.assignments.byID["a-1"].Approved = true

	_, err = f.svc.SubmitCorrection(context.Background(), "a-1", "JS-100001",
		dto.SubmitCorrectionRequest{CorrectionPath: "corrections/late.pdf"}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrFinalized.Code, appErrors.FromError(err).Code)
}

func TestApproveRequiresSubmittedCorrection(t *testing.T) {
	f := newAssignmentFixture(t)
	_, err := f.svc.Create(context.Background(), validAssignmentRequest(), "ADMIN-1", "")
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), "a-1", "ADMIN-1", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestApproveFoldsTurnaroundIntoAverage(t *testing.T) {
	f := newAssignmentFixture(t)
	f.readers.reader.AssignmentsCompleted = 3
	f.readers.reader.AvgTurnaroundHours = 10

	_, err := f.svc.Create(context.Background(), validAssignmentRequest(), "ADMIN-1", "")
	require.NoError(t, err)

	f.now = f.now.Add(6 * time.Hour)
	_, err = f.svc.SubmitCorrection(context.Background(), "a-1", "JS-100001",
		dto.SubmitCorrectionRequest{CorrectionPath: "corrections/case-2026-014-v2.pdf"}, "")
	require.NoError(t, err)

	assignment, err := f.svc.Approve(context.Background(), "a-1", "ADMIN-1", "")
	require.NoError(t, err)

	assert.True(t, assignment.Approved)
	assert.Equal(t, 4, f.readers.completed)
	// (10*3 + 6) / 4
	assert.InDelta(t, 9.0, f.readers.avgTurnaround, 0.01)
	assert.Contains(t, f.activity.types(), models.ActivityCorrectionApproved)
}

func TestListForReaderHidesCaseReference(t *testing.T) {
	f := newAssignmentFixture(t)
	_, err := f.svc.Create(context.Background(), validAssignmentRequest(), "ADMIN-1", "")
	require.NoError(t, err)

	projected, page, err := f.svc.ListForReader(context.Background(), "JS-100001", models.AssignmentFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Len(t, projected, 1)
	assert.Equal(t, 1, page.TotalCount)
	assert.Equal(t, 7, projected[0].SequenceNumber)
}
