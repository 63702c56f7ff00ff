package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest starts the two-factor login flow.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse acknowledges password verification; the session is only
// issued after the second factor succeeds.
type LoginResponse struct {
	Pin             string    `json:"pin"`
	CodeDeliveredTo string    `json:"code_delivered_to"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// VerifyCodeRequest completes the two-factor login flow.
type VerifyCodeRequest struct {
	Pin       string `json:"pin" validate:"required"`
	Code      string `json:"code" validate:"required,len=6"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// SessionResponse returns the issued session token and reader info.
type SessionResponse struct {
	Token     string     `json:"token"`
	ExpiresIn int64      `json:"expires_in"`
	IssuedAt  time.Time  `json:"issued_at"`
	Reader    ReaderInfo `json:"reader"`
}

// ReaderInfo describes the authenticated reader in responses.
type ReaderInfo struct {
	Pin       string       `json:"pin"`
	Email     string       `json:"email"`
	FullName  string       `json:"full_name"`
	Role      ReaderRole   `json:"role"`
	Status    ReaderStatus `json:"status"`
	NdaSigned bool         `json:"nda_signed"`
}

// JWTClaims represents the JWT payload for session tokens.
type JWTClaims struct {
	Pin   string     `json:"pin"`
	Role  ReaderRole `json:"role"`
	Email string     `json:"email"`
	jwt.RegisteredClaims
}
