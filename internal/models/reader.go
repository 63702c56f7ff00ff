package models

import "time"

// ReaderRole classifies a reader within the review workflow.
type ReaderRole string

const (
	RoleFirstReviewer  ReaderRole = "FIRST_REVIEWER"
	RoleSecondReviewer ReaderRole = "SECOND_REVIEWER"
	RoleAdmin          ReaderRole = "ADMIN"
)

// ReaderStatus is the access lifecycle of a reader account.
type ReaderStatus string

const (
	StatusPending   ReaderStatus = "PENDING"
	StatusActive    ReaderStatus = "ACTIVE"
	StatusOnHold    ReaderStatus = "ON_HOLD"
	StatusSuspended ReaderStatus = "SUSPENDED"
)

// Reader represents a reviewer account stored in the readers table.
// Accounts are created by an administrator and follow a soft lifecycle
// only; rows are never hard-deleted.
type Reader struct {
	Pin          string       `db:"pin" json:"pin"`
	FullName     string       `db:"full_name" json:"full_name"`
	Email        string       `db:"email" json:"email"`
	Role         ReaderRole   `db:"role" json:"role"`
	PasswordHash string       `db:"password_hash" json:"-"`
	SessionToken *string      `db:"session_token" json:"-"`
	Status       ReaderStatus `db:"status" json:"status"`

	TwoFactorCode      *string    `db:"two_factor_code" json:"-"`
	TwoFactorExpiresAt *time.Time `db:"two_factor_expires_at" json:"-"`
	TwoFactorAttempts  int        `db:"two_factor_attempts" json:"-"`

	NdaSigned       bool       `db:"nda_signed" json:"nda_signed"`
	NdaSignedAt     *time.Time `db:"nda_signed_at" json:"nda_signed_at,omitempty"`
	NdaArtifactPath *string    `db:"nda_artifact_path" json:"-"`
	NdaContentHash  *string    `db:"nda_content_hash" json:"-"`

	AssignmentsCompleted int     `db:"assignments_completed" json:"assignments_completed"`
	AvgTurnaroundHours   float64 `db:"avg_turnaround_hours" json:"avg_turnaround_hours"`
	TotalEarnings        float64 `db:"total_earnings" json:"total_earnings"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ReaderFilter captures filtering criteria for listing readers.
type ReaderFilter struct {
	Role      *ReaderRole
	Status    *ReaderStatus
	NdaSigned *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
