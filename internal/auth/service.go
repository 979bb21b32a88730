package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Service combines the credential store with the token service to implement
// registration, login and bearer-token resolution.
type Service struct {
	users  UserRepository
	tokens *TokenService
}

// NewService creates an auth Service.
func NewService(users UserRepository, tokens *TokenService) *Service {
	return &Service{users: users, tokens: tokens}
}

// Register validates and stores a new account. The password is hashed
// before it reaches the repository.
func (s *Service) Register(ctx context.Context, name, email, password string) (*User, error) {
	email = NormalizeEmail(email)
	if err := ValidateRegistration(name, email, password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		VerifyDummy(password)
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("looking up user: %w", err)
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return "", nil, fmt.Errorf("verifying password for user %d: %w", user.ID, err)
	}
	if !ok {
		return "", user, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Authenticate resolves a bearer token into a Principal.
//
// An invalid token returns ErrTokenInvalid and the caller should continue
// anonymously. A valid token whose subject no longer exists returns an error
// wrapping ErrUserNotFound: the store and the token disagree, which is an
// internal fault rather than an authentication failure.
func (s *Service) Authenticate(ctx context.Context, token string) (*Principal, error) {
	subject, err := s.tokens.Validate(token)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	user, err := s.users.GetByEmail(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("resolving token subject: %w", err)
	}
	return NewPrincipal(user), nil
}
