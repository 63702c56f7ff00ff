package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/qolae/readers-dashboard-api/internal/dto"
	"github.com/qolae/readers-dashboard-api/internal/models"
	appErrors "github.com/qolae/readers-dashboard-api/pkg/errors"
)

// paymentTransitions lists the legal payment moves. PAID is terminal;
// ON_HOLD can only be released back to where the money flow resumes.
var paymentTransitions = map[models.PaymentStatus][]models.PaymentStatus{
	models.PaymentPending:    {models.PaymentApproved, models.PaymentOnHold},
	models.PaymentApproved:   {models.PaymentProcessing, models.PaymentOnHold},
	models.PaymentProcessing: {models.PaymentPaid, models.PaymentOnHold},
	models.PaymentOnHold:     {models.PaymentPending, models.PaymentApproved},
	models.PaymentPaid:       {},
}

type paymentStore interface {
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	UpdatePayment(ctx context.Context, id string, status models.PaymentStatus, amount *float64, reference *string, paidAt *time.Time) error
	SumUnpaidByPin(ctx context.Context, pin string) (float64, error)
}

type paymentNotifier interface {
	SendPaymentUpdate(email, name string, sequence int, status string, amount float64)
}

// PaymentService advances the payment lifecycle of approved assignments.
type PaymentService struct {
	assignments paymentStore
	readers     counterStore
	notifier    paymentNotifier
	activity    activityRecorder
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
}

func NewPaymentService(
	assignments paymentStore,
	readers counterStore,
	notifier paymentNotifier,
	activity activityRecorder,
	metrics *MetricsService,
	logger *zap.Logger,
) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		assignments: assignments,
		readers:     readers,
		notifier:    notifier,
		activity:    activity,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// Update moves an assignment's payment to the requested status. Movement
// past PENDING requires the correction to have been approved, and reaching
// PAID requires an amount on record.
func (s *PaymentService) Update(ctx context.Context, id string, req dto.UpdatePaymentRequest, adminPin, ip string) (*models.Assignment, error) {
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, err
	}

	if !paymentTransitionAllowed(assignment.PaymentStatus, req.Status) {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("cannot move payment from %s to %s", assignment.PaymentStatus, req.Status))
	}
	if !assignment.Approved && req.Status != models.PaymentOnHold {
		return nil, appErrors.Clone(appErrors.ErrConflict, "correction must be approved before payment can advance")
	}

	amount := assignment.PaymentAmount
	if req.Amount != nil {
		if *req.Amount <= 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "payment amount must be positive")
		}
		amount = req.Amount
	}

	reference := assignment.PaymentReference
	if req.Reference != "" {
		reference = &req.Reference
	}

	var paidAt *time.Time
	if req.Status == models.PaymentPaid {
		if amount == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "an amount is required before marking a payment as paid")
		}
		t := s.now()
		paidAt = &t
		s.metrics.RecordPaymentPaid()
	}

	if err := s.assignments.UpdatePayment(ctx, id, req.Status, amount, reference, paidAt); err != nil {
		return nil, err
	}

	assignment.PaymentStatus = req.Status
	assignment.PaymentAmount = amount
	assignment.PaymentReference = reference
	assignment.PaymentPaidAt = paidAt

	reader, err := s.readers.FindByPin(ctx, assignment.ReaderPin)
	if err == nil {
		if req.Status == models.PaymentPaid {
			if err := s.readers.UpdateCounters(ctx, reader.Pin, reader.AssignmentsCompleted,
				reader.AvgTurnaroundHours, reader.TotalEarnings+*amount); err != nil {
				s.logger.Warn("earnings not updated", zap.String("pin", reader.Pin), zap.Error(err))
			}
		}
		notifyAmount := 0.0
		if amount != nil {
			notifyAmount = *amount
		}
		s.notifier.SendPaymentUpdate(reader.Email, reader.FullName, assignment.SequenceNumber, string(req.Status), notifyAmount)
	}

	s.record(ctx, assignment.ReaderPin, models.ActivityPaymentUpdated,
		fmt.Sprintf("payment for report #%d set to %s by %s", assignment.SequenceNumber, req.Status, adminPin), ip, &assignment.ID)

	return assignment, nil
}

// UnpaidTotal sums approved and in-flight amounts owed to a reader.
func (s *PaymentService) UnpaidTotal(ctx context.Context, pin string) (float64, error) {
	return s.assignments.SumUnpaidByPin(ctx, pin)
}

func paymentTransitionAllowed(from, to models.PaymentStatus) bool {
	for _, allowed := range paymentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s *PaymentService) record(ctx context.Context, pin, activityType, description, ip string, assignmentID *string) {
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
