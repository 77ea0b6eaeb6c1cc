// Package localstore is the single-file SQLite backend: the default
// on-device persistence for workout history and local user accounts.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/claude/liftlog/internal/auth"
	"github.com/claude/liftlog/internal/models"
)

// Store persists workout history as one JSON row per session, ordered
// by insertion.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at dir/liftlog.db and
// ensures the schema exists.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "liftlog.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening local db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS workout_history (
		position   INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL UNIQUE,
		data       TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS users (
		email         TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating local schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Load returns all persisted sessions in insertion order.
func (s *Store) Load(ctx context.Context) ([]models.Workout, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM workout_history ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying workout history: %w", err)
	}
	defer rows.Close()

	var sessions []models.Workout
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning workout row: %w", err)
		}
		var w models.Workout
		if err := json.Unmarshal([]byte(data), &w); err != nil {
			return nil, fmt.Errorf("decoding workout %q: %w", data[:min(len(data), 40)], err)
		}
		sessions = append(sessions, w)
	}
	return sessions, rows.Err()
}

// Save replaces the persisted history with the given sessions.
func (s *Store) Save(ctx context.Context, sessions []models.Workout) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning save tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM workout_history`); err != nil {
		return fmt.Errorf("clearing workout history: %w", err)
	}
	for _, w := range sessions {
		data, err := json.Marshal(w)
		if err != nil {
			return fmt.Errorf("encoding workout %s: %w", w.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO workout_history (id, data) VALUES (?, ?)`, w.ID, string(data)); err != nil {
			return fmt.Errorf("inserting workout %s: %w", w.ID, err)
		}
	}
	return tx.Commit()
}

// CreateUser stores a new local account. Returns auth.ErrUserExists
// when the email is already registered.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (email, password_hash) VALUES (?, ?)`, email, passwordHash)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return auth.ErrUserExists
	}
	return nil
}

// PasswordHash returns the stored hash for the email, or
// auth.ErrUnknownUser.
func (s *Store) PasswordHash(ctx context.Context, email string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT password_hash FROM users WHERE email = ?`, email).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", auth.ErrUnknownUser
	}
	if err != nil {
		return "", fmt.Errorf("querying user: %w", err)
	}
	return hash, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
