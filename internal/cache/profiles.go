package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"storefront/internal/users"
)

// Profiles caches public user records keyed by user ID. Cache failures are
// logged and treated as misses; the database stays the source of truth.
type Profiles struct {
	store Store
	ttl   time.Duration
}

// NewProfiles creates a profile cache over store.
func NewProfiles(store Store, ttl time.Duration) *Profiles {
	return &Profiles{store: store, ttl: ttl}
}

// cachedProfile excludes the secret hash, which must never reach Redis.
type cachedProfile struct {
	ID         string    `json:"id"`
	Identifier string    `json:"identifier"`
	CreatedAt  time.Time `json:"created_at"`
}

func profileKey(userID string) string {
	return fmt.Sprintf("profile:%s", userID)
}

// Get returns the cached user, or false on a miss or cache error.
func (p *Profiles) Get(ctx context.Context, userID string) (*users.User, bool) {
	raw, err := p.store.Get(ctx, profileKey(userID))
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			slog.Warn("Profile cache read failed", "user_id", userID, "error", err)
		}
		return nil, false
	}

	var cp cachedProfile
	if err := json.Unmarshal([]byte(raw), &cp); err != nil {
		slog.Warn("Discarding corrupt profile cache entry", "user_id", userID, "error", err)
		_ = p.store.Delete(ctx, profileKey(userID))
		return nil, false
	}

	return &users.User{ID: cp.ID, Identifier: cp.Identifier, CreatedAt: cp.CreatedAt}, true
}

// Put stores the public fields of u.
func (p *Profiles) Put(ctx context.Context, u *users.User) {
	data, err := json.Marshal(cachedProfile{ID: u.ID, Identifier: u.Identifier, CreatedAt: u.CreatedAt})
	if err != nil {
		return
	}
	if err := p.store.Set(ctx, profileKey(u.ID), string(data), p.ttl); err != nil {
		slog.Warn("Profile cache write failed", "user_id", u.ID, "error", err)
	}
}
