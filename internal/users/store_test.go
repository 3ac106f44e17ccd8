package users

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestStore(t *testing.T) (*Store, *MemoryRepository) {
	t.Helper()
	repo := NewMemoryRepository()
	store, err := NewStore(repo, bcrypt.MinCost)
	require.NoError(t, err)
	return store, repo
}

func TestStore_CreateAndFind(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, "a@x.com", "pw123")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	byIdent, err := store.FindByIdentifier(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, id, byIdent.ID)
	assert.Equal(t, "a@x.com", byIdent.Identifier)
	assert.False(t, byIdent.CreatedAt.IsZero())

	byID, err := store.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, byIdent, byID)
}

func TestStore_SecretIsHashed(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "a@x.com", "pw123")
	require.NoError(t, err)

	u, err := store.FindByIdentifier(ctx, "a@x.com")
	require.NoError(t, err)
	assert.NotContains(t, u.SecretHash, "pw123")
	assert.True(t, strings.HasPrefix(u.SecretHash, "$2"), "expected bcrypt hash, got %q", u.SecretHash)

	assert.True(t, store.VerifySecret(u, "pw123"))
	assert.False(t, store.VerifySecret(u, "pw124"))
	assert.False(t, store.VerifySecret(u, ""))
}

func TestStore_SameSecretDifferentSalt(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "a@x.com", "same")
	require.NoError(t, err)
	_, err = store.Create(ctx, "b@x.com", "same")
	require.NoError(t, err)

	a, _ := store.FindByIdentifier(ctx, "a@x.com")
	b, _ := store.FindByIdentifier(ctx, "b@x.com")
	assert.NotEqual(t, a.SecretHash, b.SecretHash)
}

func TestStore_DuplicateIdentifier(t *testing.T) {
	store, repo := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "a@x.com", "pw123")
	require.NoError(t, err)

	_, err = store.Create(ctx, "a@x.com", "other")
	assert.ErrorIs(t, err, ErrDuplicateIdentifier)
	assert.Equal(t, 1, repo.Count())
}

func TestStore_ConcurrentCreateSingleWinner(t *testing.T) {
	store, repo := newTestStore(t)
	ctx := context.Background()

	const n = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Create(ctx, "race@x.com", "pw")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrDuplicateIdentifier):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, conflicts)
	assert.Equal(t, 1, repo.Count())
}

func TestStore_NotFound(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.FindByIdentifier(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.FindByID(ctx, "missing-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_SecretTooLong(t *testing.T) {
	store, repo := newTestStore(t)

	_, err := store.Create(context.Background(), "a@x.com", strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrSecretTooLong)
	assert.Equal(t, 0, repo.Count())
}

func TestStore_DummyVerifyDoesNotPanic(t *testing.T) {
	store, _ := newTestStore(t)
	store.DummyVerify("anything")
}

func TestStore_VerifySecret_RejectsOverlongSecret(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	secret := strings.Repeat("a", MaxSecretBytes)
	id, err := store.Create(ctx, "a@x.com", secret)
	require.NoError(t, err)
	user, err := store.FindByID(ctx, id)
	require.NoError(t, err)

	assert.True(t, store.VerifySecret(user, secret))
	assert.False(t, store.VerifySecret(user, secret+"WRONG-SUFFIX"))
	assert.False(t, store.VerifySecret(user, strings.Repeat("a", 200)))
}
