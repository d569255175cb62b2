package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role identifies the kind of authenticated subject.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

// JWTClaims rides in access tokens and carries the authenticated identity that
// service calls receive instead of ambient globals.
type JWTClaims struct {
	SubjectID int64 `json:"sid"`
	Role      Role  `json:"role"`
	jwt.RegisteredClaims
}

// Session is a server-tracked refresh session stored with a TTL.
type Session struct {
	ID        string    `json:"id"`
	SubjectID int64     `json:"subject_id"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginRequest is the credentials payload for any subject kind.
type LoginRequest struct {
	Role     Role   `json:"role" validate:"required,oneof=ADMIN TEACHER STUDENT"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token pair and subject identity.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
	SubjectID    int64     `json:"subject_id"`
	Role         Role      `json:"role"`
	Username     string    `json:"username"`
}

// RefreshTokenRequest exchanges a refresh token for a new pair.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}
