package users

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no user matches the lookup key
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateIdentifier is returned when the identifier is already registered
	ErrDuplicateIdentifier = errors.New("identifier already registered")
)

// Repository persists users. Insert must be atomic per identifier: of any
// number of concurrent inserts for the same identifier exactly one succeeds and
// the rest fail with ErrDuplicateIdentifier.
type Repository interface {
	Insert(ctx context.Context, user *User) error
	FindByIdentifier(ctx context.Context, identifier string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
}
