package services

import (
	"context"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driving"
)

// Username length bounds, in characters
const (
	MinUsernameLength = 5
	MaxUsernameLength = 100
)

// usernameForbidden lists characters rejected in usernames
const usernameForbidden = `;'"-`

// RegistrationMessage is returned to the client after a successful sign-up
const RegistrationMessage = "Registration successfully completed"

// Ensure userService implements UserService
var _ driving.UserService = (*userService)(nil)

// userService implements the UserService interface
type userService struct {
	userStore   driven.UserStore
	authAdapter driven.AuthAdapter
	policy      *PasswordPolicy
}

// NewUserService creates a new UserService
func NewUserService(
	userStore driven.UserStore,
	authAdapter driven.AuthAdapter,
	policy *PasswordPolicy,
) driving.UserService {
	if policy == nil {
		policy = NewPasswordPolicy(nil, nil)
	}
	return &userService{
		userStore:   userStore,
		authAdapter: authAdapter,
		policy:      policy,
	}
}

// Register validates the request, rejects duplicates and stores the new user
func (s *userService) Register(ctx context.Context, req domain.RegistrationRequest) (*domain.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := s.validateRegistration(ctx, req); err != nil {
		return nil, err
	}

	// Check if username or email already exists
	if existing, _ := s.userStore.GetByUsername(ctx, req.Username); existing != nil {
		return nil, domain.ErrAlreadyExists
	}
	if existing, _ := s.userStore.GetByEmail(ctx, req.Email); existing != nil {
		return nil, domain.ErrAlreadyExists
	}

	passwordHash, err := s.authAdapter.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userStore.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Get retrieves a user by ID
func (s *userService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.userStore.Get(ctx, id)
}

// GetByUsername retrieves a user by username
func (s *userService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.userStore.GetByUsername(ctx, strings.TrimSpace(username))
}

// validateRegistration collects every field problem at once
func (s *userService) validateRegistration(ctx context.Context, req domain.RegistrationRequest) error {
	verr := domain.NewValidationError()

	switch n := utf8.RuneCountInString(req.Username); {
	case n < MinUsernameLength:
		verr.Add("username", "Username must be at least 5 characters long")
	case n > MaxUsernameLength:
		verr.Add("username", "Username cannot contain more than 100 characters")
	case strings.Contains(req.Username, " "):
		verr.Add("username", "Username cannot contain spaces")
	case strings.ContainsAny(req.Username, usernameForbidden):
		verr.Add("username", "Username contains forbidden characters")
	}

	if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		verr.Add("email", "Enter a valid email address")
	}

	if req.Password != req.Password1 {
		verr.Add("password1", "The passwords must match")
	}

	if !verr.HasErrors() {
		if violations := s.policy.Validate(ctx, req.Password, req.Email); len(violations) > 0 {
			verr.Add("password", "Not a reliable password.")
			for rule, msg := range violations {
				verr.Add("password."+rule, msg)
			}
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}
