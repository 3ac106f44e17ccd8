// Package account implements registration, login and profile lookup on top
// of the credential store and the token issuer.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/token"
	"storefront/internal/users"
)

// invalidCredentialsMessage is shared by every login failure so callers cannot
// tell an unknown identifier from a wrong secret.
const invalidCredentialsMessage = "invalid identifier or secret"

// CredentialStore is the subset of users.Store the service depends on.
type CredentialStore interface {
	Create(ctx context.Context, identifier, secret string) (string, error)
	FindByIdentifier(ctx context.Context, identifier string) (*users.User, error)
	FindByID(ctx context.Context, id string) (*users.User, error)
	VerifySecret(user *users.User, secret string) bool
	DummyVerify(secret string)
}

// TokenIssuer mints session tokens.
type TokenIssuer interface {
	Issue(userID string, ttl time.Duration) (token.Token, error)
}

// ProfileCache is an optional read-through cache for Profile.
type ProfileCache interface {
	Get(ctx context.Context, userID string) (*users.User, bool)
	Put(ctx context.Context, user *users.User)
}

// Service defines the account operations
type Service interface {
	Register(ctx context.Context, identifier, secret string) (string, error)
	Login(ctx context.Context, identifier, secret string) (token.Token, error)
	Profile(ctx context.Context, userID string) (*users.User, error)
}

type service struct {
	store    CredentialStore
	issuer   TokenIssuer
	tokenTTL time.Duration
	cache    ProfileCache
}

// Option customizes the service.
type Option func(*service)

// WithProfileCache enables profile caching.
func WithProfileCache(c ProfileCache) Option {
	return func(s *service) { s.cache = c }
}

// NewService creates a new account service
func NewService(store CredentialStore, issuer TokenIssuer, tokenTTL time.Duration, opts ...Option) Service {
	s := &service{
		store:    store,
		issuer:   issuer,
		tokenTTL: tokenTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a credential for identifier and returns the new user ID.
func (s *service) Register(ctx context.Context, identifier, secret string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", apperr.InvalidInput("identifier is required", nil)
	}
	if strings.ContainsRune(identifier, 0) {
		return "", apperr.InvalidInput("identifier must not contain NUL characters", nil)
	}
	if secret == "" {
		return "", apperr.InvalidInput("secret is required", nil)
	}

	userID, err := s.store.Create(ctx, identifier, secret)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrDuplicateIdentifier):
			return "", apperr.DuplicateIdentifier("identifier is already registered", err)
		case errors.Is(err, users.ErrSecretTooLong):
			return "", apperr.InvalidInput("secret must be at most 72 bytes", err)
		default:
			return "", fmt.Errorf("create user: %w", err)
		}
	}

	slog.Info("Registered user", "user_id", userID)
	return userID, nil
}

// Login checks the secret and issues a token for the matching user.
func (s *service) Login(ctx context.Context, identifier, secret string) (token.Token, error) {
	identifier = strings.TrimSpace(identifier)
	if strings.ContainsRune(identifier, 0) {
		s.store.DummyVerify(secret)
		return token.Token{}, apperr.InvalidCredentials(invalidCredentialsMessage)
	}

	user, err := s.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		if !errors.Is(err, users.ErrNotFound) {
			return token.Token{}, fmt.Errorf("find user: %w", err)
		}
		s.store.DummyVerify(secret)
		return token.Token{}, apperr.InvalidCredentials(invalidCredentialsMessage)
	}

	if !s.store.VerifySecret(user, secret) {
		return token.Token{}, apperr.InvalidCredentials(invalidCredentialsMessage)
	}

	tok, err := s.issuer.Issue(user.ID, s.tokenTTL)
	if err != nil {
		return token.Token{}, fmt.Errorf("issue token: %w", err)
	}

	return tok, nil
}

// Profile returns the public record for userID.
func (s *service) Profile(ctx context.Context, userID string) (*users.User, error) {
	if s.cache != nil {
		if u, ok := s.cache.Get(ctx, userID); ok {
			return u, nil
		}
	}

	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, apperr.NotFound("user not found", err)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if s.cache != nil {
		s.cache.Put(ctx, user)
	}
	return user, nil
}
