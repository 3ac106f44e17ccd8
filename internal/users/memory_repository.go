package users

import (
	"context"
	"sync"
)

// MemoryRepository is an in-process Repository. A single mutex covers both
// indexes, which gives Insert the same per-identifier atomicity as the
// database unique constraint.
type MemoryRepository struct {
	mu           sync.RWMutex
	byID         map[string]*User
	byIdentifier map[string]*User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:         make(map[string]*User),
		byIdentifier: make(map[string]*User),
	}
}

func (r *MemoryRepository) Insert(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byIdentifier[user.Identifier]; ok {
		return ErrDuplicateIdentifier
	}
	if _, ok := r.byID[user.ID]; ok {
		return ErrDuplicateIdentifier
	}

	stored := *user
	r.byID[user.ID] = &stored
	r.byIdentifier[user.Identifier] = &stored
	return nil
}

func (r *MemoryRepository) FindByIdentifier(_ context.Context, identifier string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byIdentifier[identifier]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// Count returns the number of stored users.
func (r *MemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
