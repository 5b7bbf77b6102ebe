package model

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// User represents an account with its content-personalization profile.
// The profile fields feed the generation prompt; all of them are optional
// and substituted with defaults when missing.
type User struct {
	ID             int64          `db:"id" json:"id"`
	Name           string         `db:"name" json:"name"`
	Email          string         `db:"email" json:"email"`
	PasswordHashed string         `db:"password_hashed" json:"-"` // "-" hides from JSON output
	Company        *string        `db:"company" json:"company"`
	Role           *string        `db:"role" json:"role"`
	Industry       *string        `db:"industry" json:"industry"`
	Niche          *string        `db:"niche" json:"niche"`
	Audience       *string        `db:"audience" json:"audience"`
	Keywords       *string        `db:"keywords" json:"keywords"` // free text, comma separated
	Bio            *string        `db:"bio" json:"bio"`
	Interests      pq.StringArray `db:"interests" json:"interests"`
	AvatarURL      *string        `db:"avatar_url" json:"avatar_url"`
	AvatarKey      *string        `db:"avatar_key" json:"-"`
	SetupCompleted bool           `db:"setup_completed" json:"setup_completed"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// SignupRequest represents the data needed to create a new account
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the data needed to log in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CompleteSetupRequest carries the onboarding wizard fields.
// All fields are optional; empty values leave the column NULL.
type CompleteSetupRequest struct {
	Company   string   `json:"company"`
	Role      string   `json:"role"`
	Industry  string   `json:"industry"`
	Niche     string   `json:"niche"`
	Audience  string   `json:"audience"`
	Keywords  string   `json:"keywords"`
	Bio       string   `json:"bio"`
	Interests []string `json:"interests"`
}

// UpdateProfileRequest carries profile-settings edits after setup.
// Nil pointers mean "leave unchanged".
type UpdateProfileRequest struct {
	Name      *string   `json:"name"`
	Company   *string   `json:"company"`
	Role      *string   `json:"role"`
	Industry  *string   `json:"industry"`
	Niche     *string   `json:"niche"`
	Audience  *string   `json:"audience"`
	Keywords  *string   `json:"keywords"`
	Bio       *string   `json:"bio"`
	Interests *[]string `json:"interests"`
}

// CheckSetupResponse is the body for GET /api/auth/check-setup
type CheckSetupResponse struct {
	NeedsSetup bool `json:"needsSetup"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists is returned when attempting to create a user with a taken email
	ErrEmailExists = errors.New("email already in use")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")
)
