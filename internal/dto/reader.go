package dto

import "github.com/qolae/readers-dashboard-api/internal/models"

// CreateReaderRequest is the administrator invitation payload.
type CreateReaderRequest struct {
	FullName string            `json:"full_name" validate:"required"`
	Email    string            `json:"email" validate:"required,email"`
	Role     models.ReaderRole `json:"role" validate:"required,oneof=FIRST_REVIEWER SECOND_REVIEWER"`
}

// UpdateReaderRequest updates reader self-service fields.
type UpdateReaderRequest struct {
	FullName string `json:"full_name" validate:"required"`
}

// UpdateReaderStatusRequest moves a reader through the access lifecycle.
type UpdateReaderStatusRequest struct {
	Status models.ReaderStatus `json:"status" validate:"required,oneof=PENDING ACTIVE ON_HOLD SUSPENDED"`
	Reason string              `json:"reason"`
}
