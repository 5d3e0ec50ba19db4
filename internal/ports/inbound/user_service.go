// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserService defines the account use cases
type UserService interface {
	Register(ctx context.Context, cmd RegisterCommand) (*UserDTO, error)
	Authenticate(ctx context.Context, cmd LoginCommand) (*UserDTO, error)
	FindOrCreateOAuthIdentity(ctx context.Context, cmd OAuthIdentityCommand) (*UserDTO, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
}

// RegisterCommand contains user registration data
type RegisterCommand struct {
	Email              string   `json:"email" validate:"required,email"`
	Password           string   `json:"password" validate:"required"`
	FirstName          string   `json:"firstName" validate:"required,max=100"`
	LastName           string   `json:"lastName" validate:"required,max=100"`
	CuisinePreferences []string `json:"cuisinePreferences" validate:"max=20,dive,max=64"`
	Newsletter         bool     `json:"newsletter"`
}

// LoginCommand contains user login data
type LoginCommand struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// OAuthIdentityCommand carries an identity already verified by the provider
type OAuthIdentityCommand struct {
	Email      string `json:"email" validate:"required,email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Provider   string `json:"provider" validate:"required,oneof=google facebook"`
	ExternalID string `json:"external_id" validate:"required"`
	AvatarURL  string `json:"avatar_url" validate:"omitempty,url"`
}

// UserDTO represents user data transfer object
type UserDTO struct {
	ID                 uuid.UUID `json:"id"`
	Email              string    `json:"email"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	DisplayName        string    `json:"display_name"`
	OAuthProvider      string    `json:"oauth_provider,omitempty"`
	AvatarURL          string    `json:"avatar_url,omitempty"`
	CuisinePreferences []string  `json:"cuisine_preferences"`
	CreatedAt          time.Time `json:"created_at"`
}
