package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// DBTX is the subset of pgxpool.Pool / pgx.Tx the repository needs.
type DBTX interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores users in the users table.
type PostgresRepository struct {
	db DBTX
}

// NewPostgresRepository creates a new users repository
func NewPostgresRepository(db DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert adds the user. The conflict check and the write are one statement,
// so concurrent registrations of the same identifier cannot both land.
func (r *PostgresRepository) Insert(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, identifier, secret_hash, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (identifier) DO NOTHING
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query, user.ID, user.Identifier, user.SecretHash, user.CreatedAt).
		Scan(&user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDuplicateIdentifier
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateIdentifier
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// FindByIdentifier retrieves a user by login identifier
func (r *PostgresRepository) FindByIdentifier(ctx context.Context, identifier string) (*User, error) {
	query := `SELECT id, identifier, secret_hash, created_at FROM users WHERE identifier = $1`
	return r.scanOne(ctx, query, identifier)
}

// FindByID retrieves a user by ID
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT id, identifier, secret_hash, created_at FROM users WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, arg string) (*User, error) {
	var user User
	err := r.db.QueryRow(ctx, query, arg).
		Scan(&user.ID, &user.Identifier, &user.SecretHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}
