package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/claude/liftlog/internal/auth"
)

// CreateUser stores a new account. Returns auth.ErrUserExists when the
// email is already registered.
func (db *DB) CreateUser(ctx context.Context, email, passwordHash string) error {
	tag, err := db.Pool.Exec(ctx, `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		ON CONFLICT (email) DO NOTHING
	`, email, passwordHash)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserExists
	}
	return nil
}

// PasswordHash returns the stored hash for the email, or
// auth.ErrUnknownUser.
func (db *DB) PasswordHash(ctx context.Context, email string) (string, error) {
	var hash string
	err := db.Pool.QueryRow(ctx,
		`SELECT password_hash FROM users WHERE email = $1`, email).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", auth.ErrUnknownUser
	}
	if err != nil {
		return "", fmt.Errorf("querying user: %w", err)
	}
	return hash, nil
}

// Compile-time check: *DB satisfies the account store.
var _ auth.UserStore = (*DB)(nil)
