package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the default single-file Store.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite: path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("sqlite: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}
	stmts, err := schemaStatements("sqlite")
	if err != nil {
		db.Close()
		return nil, err
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: init schema: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u *User) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, role, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Name, u.Email, u.PasswordHash, u.Role, u.IsActive, formatTime(now), formatTime(now))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("sqlite: insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: user id: %w", err)
	}
	u.ID, u.CreatedAt, u.UpdatedAt = id, now, now
	return nil
}

const sqliteUserColumns = `id, name, email, password_hash, role, is_active, created_at, updated_at`

func scanSQLiteUser(row *sql.Row) (*User, error) {
	var (
		u                    User
		createdAt, updatedAt string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: scan user: %w", err)
	}
	u.CreatedAt, u.UpdatedAt = parseTime(createdAt), parseTime(updatedAt)
	return &u, nil
}

func (s *SQLiteStore) UserByEmail(ctx context.Context, email string) (*User, error) {
	return scanSQLiteUser(s.db.QueryRowContext(ctx,
		`SELECT `+sqliteUserColumns+` FROM users WHERE email = ?`, email))
}

func (s *SQLiteStore) UserByID(ctx context.Context, id int64) (*User, error) {
	return scanSQLiteUser(s.db.QueryRowContext(ctx,
		`SELECT `+sqliteUserColumns+` FROM users WHERE id = ?`, id))
}

func (s *SQLiteStore) CreatePrompt(ctx context.Context, p *Prompt) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO prompts (user_id, title, description, prompt, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Title, p.Description, p.Prompt, formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("sqlite: insert prompt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: prompt id: %w", err)
	}
	p.ID, p.CreatedAt, p.UpdatedAt = id, now, now
	return nil
}

const sqlitePromptColumns = `id, user_id, title, description, prompt, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLitePrompt(row rowScanner) (*Prompt, error) {
	var (
		p                    Prompt
		createdAt, updatedAt string
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.Prompt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.CreatedAt, p.UpdatedAt = parseTime(createdAt), parseTime(updatedAt)
	return &p, nil
}

func (s *SQLiteStore) ListPrompts(ctx context.Context, userID int64) ([]Prompt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqlitePromptColumns+` FROM prompts WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list prompts: %w", err)
	}
	defer rows.Close()

	prompts := []Prompt{}
	for rows.Next() {
		p, err := scanSQLitePrompt(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan prompt: %w", err)
		}
		prompts = append(prompts, *p)
	}
	return prompts, rows.Err()
}

func (s *SQLiteStore) GetPrompt(ctx context.Context, userID, id int64) (*Prompt, error) {
	p, err := scanSQLitePrompt(s.db.QueryRowContext(ctx,
		`SELECT `+sqlitePromptColumns+` FROM prompts WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get prompt: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) UpdatePrompt(ctx context.Context, p *Prompt) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE prompts SET title = ?, description = ?, prompt = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		p.Title, p.Description, p.Prompt, formatTime(now), p.ID, p.UserID)
	if err != nil {
		return fmt.Errorf("sqlite: update prompt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	p.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) DeletePrompt(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM prompts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("sqlite: delete prompt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
