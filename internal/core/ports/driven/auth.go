package driven

import "github.com/custodia-labs/sercha-ingest/internal/core/domain"

// AuthAdapter does the password hashing and token signing behind the auth
// service. Session persistence lives in SessionStore.
type AuthAdapter interface {
	HashPassword(password string) (string, error)
	VerifyPassword(password, hash string) bool

	GenerateToken(claims *domain.TokenClaims) (string, error)

	// ParseToken verifies the signature and expiry. Expired tokens return
	// domain.ErrTokenExpired, anything else domain.ErrTokenInvalid.
	ParseToken(token string) (*domain.TokenClaims, error)
}
