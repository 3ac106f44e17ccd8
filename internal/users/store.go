// Package users is the credential store: it owns user records and the salted
// one-way hashes of their secrets.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MaxSecretBytes is the longest secret bcrypt hashes without truncation.
const MaxSecretBytes = 72

// ErrSecretTooLong is returned for secrets bcrypt cannot hash (over 72 bytes).
var ErrSecretTooLong = errors.New("secret exceeds 72 bytes")

// Store creates and looks up users, hashing secrets on the way in.
type Store struct {
	repo      Repository
	cost      int
	dummyHash []byte
	now       func() time.Time
}

// NewStore wraps repo. cost is the bcrypt work factor.
func NewStore(repo Repository, cost int) (*Store, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), cost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &Store{
		repo:      repo,
		cost:      cost,
		dummyHash: dummy,
		now:       time.Now,
	}, nil
}

// Create registers identifier with a bcrypt hash of secret and returns the new
// user ID. Fails with ErrDuplicateIdentifier if the identifier is taken.
func (s *Store) Create(ctx context.Context, identifier, secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrSecretTooLong
		}
		return "", fmt.Errorf("hash secret: %w", err)
	}

	user := &User{
		ID:         uuid.NewString(),
		Identifier: identifier,
		SecretHash: string(hash),
		CreatedAt:  s.now().UTC(),
	}

	if err := s.repo.Insert(ctx, user); err != nil {
		return "", err
	}

	return user.ID, nil
}

// FindByIdentifier returns the user registered under identifier or ErrNotFound.
func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (*User, error) {
	return s.repo.FindByIdentifier(ctx, identifier)
}

// FindByID returns the user with the given ID or ErrNotFound.
func (s *Store) FindByID(ctx context.Context, id string) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// VerifySecret reports whether secret matches the user's stored hash.
// bcrypt compares the derived hashes in constant time. Secrets longer than
// MaxSecretBytes never match, since bcrypt would only compare their prefix.
func (s *Store) VerifySecret(user *User, secret string) bool {
	if len(secret) > MaxSecretBytes {
		s.DummyVerify(secret[:MaxSecretBytes])
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.SecretHash), []byte(secret)) == nil
}

// DummyVerify performs a comparison against a throwaway hash so that a login
// for an unknown identifier costs as much as one with a wrong secret.
func (s *Store) DummyVerify(secret string) {
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(secret))
}
