package dto

import (
	"time"

	"github.com/qolae/readers-dashboard-api/internal/models"
)

// CreateAssignmentRequest assigns a document to a reader.
type CreateAssignmentRequest struct {
	ReaderPin     string            `json:"reader_pin" validate:"required"`
	ReviewerRole  models.ReaderRole `json:"reviewer_role" validate:"required,oneof=FIRST_REVIEWER SECOND_REVIEWER"`
	CaseReference string            `json:"case_reference" validate:"required"`
	DocumentPath  string            `json:"document_path" validate:"required"`
	Deadline      *time.Time        `json:"deadline,omitempty"`
}

// SubmitCorrectionRequest carries a reader's corrected report.
type SubmitCorrectionRequest struct {
	CorrectionPath string `json:"correction_path" validate:"required"`
	Notes          string `json:"notes"`
}

// UpdatePaymentRequest moves an assignment's payment lifecycle forward.
type UpdatePaymentRequest struct {
	Status    models.PaymentStatus `json:"status" validate:"required,oneof=APPROVED PROCESSING PAID ON_HOLD PENDING"`
	Amount    *float64             `json:"amount,omitempty"`
	Reference string               `json:"reference,omitempty"`
}

// ReaderAssignment is the reader-facing projection of an assignment.
// The internal case reference is deliberately absent.
type ReaderAssignment struct {
	ID                  string               `json:"id"`
	SequenceNumber      int                  `json:"sequence_number"`
	ReviewerRole        models.ReaderRole    `json:"reviewer_role"`
	DocumentPath        string               `json:"document_path"`
	AssignedAt          time.Time            `json:"assigned_at"`
	Deadline            time.Time            `json:"deadline"`
	CorrectionSubmitted bool                 `json:"correction_submitted"`
	Approved            bool                 `json:"approved"`
	PaymentStatus       models.PaymentStatus `json:"payment_status"`
	PaymentAmount       *float64             `json:"payment_amount,omitempty"`
}

// ToReaderAssignment strips administrator-only fields from an assignment.
func ToReaderAssignment(a models.Assignment) ReaderAssignment {
	return ReaderAssignment{
		ID:                  a.ID,
		SequenceNumber:      a.SequenceNumber,
		ReviewerRole:        a.ReviewerRole,
		DocumentPath:        a.DocumentPath,
		AssignedAt:          a.AssignedAt,
		Deadline:            a.Deadline,
		CorrectionSubmitted: a.CorrectionSubmitted,
		Approved:            a.Approved,
		PaymentStatus:       a.PaymentStatus,
		PaymentAmount:       a.PaymentAmount,
	}
}
