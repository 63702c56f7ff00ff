package models

import "time"

// Activity types recorded in the append-only log.
const (
	ActivityLogin               = "LOGIN"
	ActivityLogout              = "LOGOUT"
	ActivityTwoFactorIssued     = "TWO_FACTOR_ISSUED"
	ActivityTwoFactorFailed     = "TWO_FACTOR_FAILED"
	ActivityNdaPreview          = "NDA_PREVIEW"
	ActivityNdaSigned           = "NDA_SIGNED"
	ActivityAssignmentCreated   = "ASSIGNMENT_CREATED"
	ActivityCorrectionSubmitted = "CORRECTION_SUBMITTED"
	ActivityCorrectionApproved  = "CORRECTION_APPROVED"
	ActivityPaymentUpdated      = "PAYMENT_UPDATED"
	ActivityReaderCreated       = "READER_CREATED"
	ActivityReaderStatusChanged = "READER_STATUS_CHANGED"
	ActivityAPIRequest          = "API_REQUEST"
)

// ActivityLogEntry is a write-once audit record keyed by reader pin.
// Entries are never mutated or deleted by the application.
type ActivityLogEntry struct {
	ID           string    `db:"id" json:"id"`
	ReaderPin    string    `db:"reader_pin" json:"reader_pin"`
	ActivityType string    `db:"activity_type" json:"activity_type"`
	Description  string    `db:"description" json:"description"`
	IPAddress    string    `db:"ip_address" json:"ip_address"`
	AssignmentID *string   `db:"assignment_id" json:"assignment_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ActivityFilter captures filtering criteria for listing activity entries.
type ActivityFilter struct {
	ReaderPin    string
	ActivityType string
	Page         int
	PageSize     int
}
