package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"authgate/internal/apperr"
	"authgate/internal/auth"
	"authgate/internal/model"
	"authgate/internal/repository"
)

const (
	bcryptCost        = 10
	minPasswordLength = 6
)

// NormalizeEmail canonicalizes an email for storage and lookup. Exactly one
// User may exist per normalized email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AuthService handles registration and credential verification.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (token string, identity model.Identity, err error)
}

type authService struct {
	users      repository.UserRepository
	jwtService *auth.JWTService
}

// NewAuthService creates a new authentication service.
func NewAuthService(users repository.UserRepository, jwtService *auth.JWTService) AuthService {
	return &authService{
		users:      users,
		jwtService: jwtService,
	}
}

// Register creates a new local-credential user with a hashed password.
func (s *authService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, apperr.ErrMissingCredentials
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", apperr.ErrMissingCredentials, minPasswordLength)
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, apperr.ErrEmailTaken
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Kind:         model.KindLocal,
		Role:         "user",
	}
	if err := s.users.Create(ctx, user); err != nil {
		// The unique email index catches registrations racing past the
		// existence check above.
		if isDuplicateKey(err) {
			return nil, apperr.ErrEmailTaken
		}
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}
	return user, nil
}

// Login verifies a credential pair and issues a session token on success.
// Provider-only accounts have no local password and always fail the hash check.
func (s *authService) Login(ctx context.Context, email, password string) (string, model.Identity, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return "", model.Identity{}, apperr.ErrMissingCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", model.Identity{}, apperr.ErrUserNotFound
		}
		return "", model.Identity{}, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}

	if user.Kind != model.KindLocal || user.PasswordHash == "" {
		return "", model.Identity{}, apperr.ErrIncorrectPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", model.Identity{}, apperr.ErrIncorrectPassword
	}

	identity := user.Identity()
	token, err := s.jwtService.Issue(identity)
	if err != nil {
		return "", model.Identity{}, fmt.Errorf("issue session token: %w", err)
	}
	return token, identity, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, repository.ErrNotFound) {
		return false
	}
	// gorm translates MySQL error 1062 when configured to; fall back to the
	// driver message otherwise.
	return strings.Contains(err.Error(), "Duplicate entry") ||
		strings.Contains(err.Error(), "duplicated key")
}
