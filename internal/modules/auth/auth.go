package auth

import (
	"context"
	"errors"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidToken is returned when a bearer token fails verification.
var ErrInvalidToken = errors.New("invalid token")

// Service defines the interface for authentication-related business logic.
type Service interface {
	// Login checks the admin credentials and returns a signed token.
	Login(ctx context.Context, email, password string) (string, error)
	// Verify parses a token issued by Login and returns its subject.
	Verify(token string) (string, error)
}

// Admin is the single operator account allowed to modify the catalog.
type Admin struct {
	Email        string
	PasswordHash string
}
