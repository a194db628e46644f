package domain

import "time"

// Session represents an authenticated user session
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	UserAgent    string    `json:"user_agent,omitempty"`
	IPAddress    string    `json:"ip_address,omitempty"`
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// AuthContext contains authenticated user info for request context.
// UserID is the caller identity the ingestion pipeline scopes every point by.
type AuthContext struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	SessionID string `json:"session_id"`
}

// LoginRequest represents a login attempt. Username may also hold an email address.
type LoginRequest struct {
	Username string `json:"username" example:"jdoe_42"`
	Password string `json:"password" example:"Str0ngPassw0rd"`
}

// LoginResponse is returned after successful authentication
type LoginResponse struct {
	Token        string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         *UserSummary `json:"user"`
}

// RefreshRequest represents a token refresh attempt
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenClaims represents the JWT token payload. UserID is carried as "sub".
type TokenClaims struct {
	UserID    string `json:"sub"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	SessionID string `json:"sid"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// RegistrationRequest is the self-service sign-up payload
type RegistrationRequest struct {
	Username  string `json:"username" example:"jdoe_42"`
	Email     string `json:"email" example:"jdoe@example.com"`
	Password  string `json:"password" example:"Str0ngPassw0rd"`
	Password1 string `json:"password1" example:"Str0ngPassw0rd"`
}
