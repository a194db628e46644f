package driving

import (
	"context"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// AuthService issues and checks the sessions that scope every ingest and
// search call to one user.
type AuthService interface {
	// Authenticate checks credentials and opens a session
	Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)

	// ValidateToken resolves a bearer token to its caller. The session must
	// still exist, so a logged-out token is rejected before it expires.
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)

	RefreshToken(ctx context.Context, req domain.RefreshRequest) (*domain.LoginResponse, error)

	// Logout ends the session the token belongs to
	Logout(ctx context.Context, token string) error

	// LogoutAll ends every session of userID
	LogoutAll(ctx context.Context, userID string) error
}
