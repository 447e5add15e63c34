package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest starts the two-step login: password check then OTP mail.
// Role is part of the credential tuple, matching the role-scoped login form.
type LoginRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required"`
	Role     UserRole `json:"role" validate:"required"`
}

// LoginChallenge is returned after a successful password check; the caller
// completes login by presenting the mailed OTP against the challenge.
type LoginChallenge struct {
	ChallengeID string    `json:"challenge_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// VerifyOTPRequest completes the login challenge.
type VerifyOTPRequest struct {
	ChallengeID string `json:"challenge_id" validate:"required"`
	OTP         string `json:"otp" validate:"required"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	User        UserInfo  `json:"user"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID         string   `json:"id"`
	Code       string   `json:"code"`
	Email      string   `json:"email"`
	FullName   string   `json:"full_name"`
	Role       UserRole `json:"role"`
	Department *string  `json:"department,omitempty"`
}

// LoginOTP is a single-use, bcrypt-hashed one-time password bound to a user.
type LoginOTP struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	OTPHash   string    `db:"otp_hash" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	Used      bool      `db:"used" json:"used"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
