package models

import "time"

// PaymentStatus tracks the payment lifecycle of a completed assignment.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentApproved   PaymentStatus = "APPROVED"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentPaid       PaymentStatus = "PAID"
	PaymentOnHold     PaymentStatus = "ON_HOLD"
)

// Assignment is one document-review task bound to exactly one reader.
// CaseReference is an internal identifier that must never reach a reader;
// it is excluded from JSON serialisation and from reader-facing queries.
type Assignment struct {
	ID             string     `db:"id" json:"id"`
	SequenceNumber int        `db:"sequence_number" json:"sequence_number"`
	ReaderPin      string     `db:"reader_pin" json:"reader_pin"`
	ReviewerRole   ReaderRole `db:"reviewer_role" json:"reviewer_role"`
	CaseReference  string     `db:"case_reference" json:"-"`
	DocumentPath   string     `db:"document_path" json:"document_path"`
	AssignedAt     time.Time  `db:"assigned_at" json:"assigned_at"`
	Deadline       time.Time  `db:"deadline" json:"deadline"`

	CorrectionSubmitted   bool       `db:"correction_submitted" json:"correction_submitted"`
	CorrectionSubmittedAt *time.Time `db:"correction_submitted_at" json:"correction_submitted_at,omitempty"`
	CorrectionPath        *string    `db:"correction_path" json:"correction_path,omitempty"`
	CorrectionNotes       *string    `db:"correction_notes" json:"correction_notes,omitempty"`
	TurnaroundHours       *float64   `db:"turnaround_hours" json:"turnaround_hours,omitempty"`
	Approved              bool       `db:"approved" json:"approved"`
	ApprovedAt            *time.Time `db:"approved_at" json:"approved_at,omitempty"`

	PaymentStatus    PaymentStatus `db:"payment_status" json:"payment_status"`
	PaymentAmount    *float64      `db:"payment_amount" json:"payment_amount,omitempty"`
	PaymentReference *string       `db:"payment_reference" json:"payment_reference,omitempty"`
	PaymentPaidAt    *time.Time    `db:"payment_paid_at" json:"payment_paid_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Completed reports whether the assignment reached its terminal state:
// correction approved and payment settled. No further edits are allowed.
func (a *Assignment) Completed() bool {
	return a.Approved && a.PaymentStatus == PaymentPaid
}

// AssignmentFilter captures filtering criteria for listing assignments.
type AssignmentFilter struct {
	ReaderPin     string
	PaymentStatus *PaymentStatus
	Submitted     *bool
	Page          int
	PageSize      int
}
