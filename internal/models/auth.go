package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a librarian.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and librarian info.
type LoginResponse struct {
	AccessToken string        `json:"access_token"`
	ExpiresIn   int64         `json:"expires_in"`
	Librarian   LibrarianInfo `json:"librarian"`
	IssuedAt    time.Time     `json:"issued_at"`
}

// LibrarianInfo describes the authenticated librarian in responses.
type LibrarianInfo struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// SessionClaims is the JWT payload carried by librarian sessions. Handlers
// read the librarian identity from here rather than any ambient state.
type SessionClaims struct {
	LibrarianID string `json:"librarian_id"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	jwt.RegisteredClaims
}
