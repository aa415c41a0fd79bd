package auth

import (
	"github.com/google/uuid"
)

// User represents an authenticated user (registered or guest).
type User struct {
	ID       uuid.UUID
	Email    *string
	Username string
	UserType string // "registered" or "guest"
	IsGuest  bool
}

// TokenPair holds access and refresh tokens.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// RegisterRequest for email/password registration.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// LoginRequest for email/password authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GuestRequest for creating ephemeral guest accounts.
type GuestRequest struct {
	Username string `json:"username"`
}

// ConvertGuestRequest upgrades a guest to a registered account.
type ConvertGuestRequest struct {
	GuestID  uuid.UUID `json:"guest_id"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
}

// OAuthProvider constants.
const (
	OAuthProviderGoogle = "google"
)
