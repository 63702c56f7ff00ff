package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/qolae/readers-dashboard-api/internal/dto"
	"github.com/qolae/readers-dashboard-api/internal/models"
	appErrors "github.com/qolae/readers-dashboard-api/pkg/errors"
)

type assignmentStore interface {
	Create(ctx context.Context, a *models.Assignment) error
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error)
	SubmitCorrection(ctx context.Context, id string, path, notes string, submittedAt time.Time, turnaroundHours float64) error
	Approve(ctx context.Context, id string, approvedAt time.Time) error
}

type counterStore interface {
	FindByPin(ctx context.Context, pin string) (*models.Reader, error)
	UpdateCounters(ctx context.Context, pin string, completed int, avgTurnaround, totalEarnings float64) error
}

type assignmentNotifier interface {
	SendAssignmentNotice(email, name string, sequence int, deadline time.Time)
}

// AssignmentService manages the review lifecycle of a report: assignment,
// correction submission and approval. Payment moves are handled separately
// by PaymentService.
type AssignmentService struct {
	assignments assignmentStore
	readers     counterStore
	notifier    assignmentNotifier
	activity    activityRecorder
	validate    *validator.Validate
	metrics     *MetricsService

	defaultDeadline time.Duration
	logger          *zap.Logger
	now             func() time.Time
}

func NewAssignmentService(
	assignments assignmentStore,
	readers counterStore,
	notifier assignmentNotifier,
	activity activityRecorder,
	validate *validator.Validate,
	metrics *MetricsService,
	defaultDeadline time.Duration,
	logger *zap.Logger,
) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultDeadline <= 0 {
		defaultDeadline = 24 * time.Hour
	}
	return &AssignmentService{
		assignments:     assignments,
		readers:         readers,
		notifier:        notifier,
		activity:        activity,
		validate:        validate,
		metrics:         metrics,
		defaultDeadline: defaultDeadline,
		logger:          logger,
		now:             time.Now,
	}
}

// Create assigns a document to a reader. Only active readers with a signed
// confidentiality agreement may receive work.
func (s *AssignmentService) Create(ctx context.Context, req dto.CreateAssignmentRequest, adminPin, ip string) (*models.Assignment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	reader, err := s.readers.FindByPin(ctx, req.ReaderPin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reader not found")
		}
		return nil, err
	}
	if reader.Status != models.StatusActive {
		return nil, appErrors.Clone(appErrors.ErrConflict, "reader is not active")
	}
	if !reader.NdaSigned {
		return nil, appErrors.ErrNdaRequired
	}

	assignedAt := s.now()
	deadline := assignedAt.Add(s.defaultDeadline)
	if req.Deadline != nil {
		if req.Deadline.Before(assignedAt) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "deadline must be in the future")
		}
		deadline = *req.Deadline
	}

	assignment := &models.Assignment{
		ReaderPin:     req.ReaderPin,
		ReviewerRole:  req.ReviewerRole,
		CaseReference: req.CaseReference,
		DocumentPath:  req.DocumentPath,
		AssignedAt:    assignedAt,
		Deadline:      deadline,
		PaymentStatus: models.PaymentPending,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, err
	}

	s.notifier.SendAssignmentNotice(reader.Email, reader.FullName, assignment.SequenceNumber, deadline)
	s.record(ctx, req.ReaderPin, models.ActivityAssignmentCreated,
		fmt.Sprintf("report #%d assigned by %s", assignment.SequenceNumber, adminPin), ip, &assignment.ID)

	return assignment, nil
}

func (s *AssignmentService) Get(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, err
	}
	return assignment, nil
}

// GetForReader loads an assignment and verifies ownership.
func (s *AssignmentService) GetForReader(ctx context.Context, id, pin string) (*models.Assignment, error) {
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, err
	}
	if assignment.ReaderPin != pin {
		return nil, appErrors.ErrForbidden
	}
	return assignment, nil
}

func (s *AssignmentService) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, *models.Pagination, error) {
	assignments, total, err := s.assignments.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	return assignments, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// ListForReader returns the reader-facing projection of a reader's work.
func (s *AssignmentService) ListForReader(ctx context.Context, pin string, filter models.AssignmentFilter) ([]dto.ReaderAssignment, *models.Pagination, error) {
	filter.ReaderPin = pin
	assignments, total, err := s.assignments.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	projected := make([]dto.ReaderAssignment, 0, len(assignments))
	for _, a := range assignments {
		projected = append(projected, dto.ToReaderAssignment(a))
	}
	return projected, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// SubmitCorrection records the reader's corrected report. Resubmission is
// allowed until the correction is approved; afterwards the assignment is
// read-only.
func (s *AssignmentService) SubmitCorrection(ctx context.Context, id, pin string, req dto.SubmitCorrectionRequest, ip string) (*models.Assignment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid correction payload")
	}
	assignment, err := s.GetForReader(ctx, id, pin)
	if err != nil {
		return nil, err
	}
	if assignment.Approved {
		return nil, appErrors.Clone(appErrors.ErrFinalized, "correction has already been approved")
	}

	submittedAt := s.now()
	turnaround := submittedAt.Sub(assignment.AssignedAt).Hours()
	if err := s.assignments.SubmitCorrection(ctx, id, req.CorrectionPath, req.Notes, submittedAt, turnaround); err != nil {
		return nil, err
	}

	assignment.CorrectionSubmitted = true
	assignment.CorrectionSubmittedAt = &submittedAt
	assignment.CorrectionPath = &req.CorrectionPath
	assignment.TurnaroundHours = &turnaround

	s.metrics.RecordCorrection()
	s.record(ctx, pin, models.ActivityCorrectionSubmitted,
		fmt.Sprintf("correction submitted for report #%d after %.1fh", assignment.SequenceNumber, turnaround), ip, &assignment.ID)

	return assignment, nil
}

// Approve finalizes the review side of an assignment and folds the
// turnaround into the reader's rolling average.
func (s *AssignmentService) Approve(ctx context.Context, id, adminPin, ip string) (*models.Assignment, error) {
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, err
	}
	if !assignment.CorrectionSubmitted {
		return nil, appErrors.Clone(appErrors.ErrConflict, "no correction has been submitted")
	}
	if assignment.Approved {
		return nil, appErrors.Clone(appErrors.ErrFinalized, "correction has already been approved")
	}

	approvedAt := s.now()
	if err := s.assignments.Approve(ctx, id, approvedAt); err != nil {
		return nil, err
	}
	assignment.Approved = true
	assignment.ApprovedAt = &approvedAt

	if err := s.updateReaderCounters(ctx, assignment); err != nil {
		s.logger.Warn("reader counters not updated", zap.String("pin", assignment.ReaderPin), zap.Error(err))
	}

	s.record(ctx, assignment.ReaderPin, models.ActivityCorrectionApproved,
		fmt.Sprintf("correction approved for report #%d by %s", assignment.SequenceNumber, adminPin), ip, &assignment.ID)

	return assignment, nil
}

func (s *AssignmentService) updateReaderCounters(ctx context.Context, assignment *models.Assignment) error {
	reader, err := s.readers.FindByPin(ctx, assignment.ReaderPin)
	if err != nil {
		return err
	}
	completed := reader.AssignmentsCompleted + 1
	avg := reader.AvgTurnaroundHours
	if assignment.TurnaroundHours != nil {
		avg = (reader.AvgTurnaroundHours*float64(reader.AssignmentsCompleted) + *assignment.TurnaroundHours) / float64(completed)
	}
	return s.readers.UpdateCounters(ctx, assignment.ReaderPin, completed, avg, reader.TotalEarnings)
}

func (s *AssignmentService) record(ctx context.Context, pin, activityType, description, ip string, assignmentID *string) {
	entry := &models.ActivityLogEntry{
		ReaderPin:    pin,
		ActivityType: activityType,
		Description:  description,
		IPAddress:    ip,
		AssignmentID: assignmentID,
	}
	if err := s.activity.Create(ctx, entry); err != nil {
		s.logger.Warn("activity log write failed", zap.String("type", activityType), zap.Error(err))
	}
}
