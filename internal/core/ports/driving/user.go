package driving

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// RegistrationResponse is returned after a successful sign-up
type RegistrationResponse struct {
	Message string `json:"message" example:"Registration successfully completed"`
}

// UserService manages user accounts
type UserService interface {
	// Register creates an account after validating the username, email and password policy
	Register(ctx context.Context, req domain.RegistrationRequest) (*domain.User, error)

	// Get retrieves a user by ID
	Get(ctx context.Context, id string) (*domain.User, error)

	// GetByUsername retrieves a user by username
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}
