package library

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed schema/*/*.sql
var schemaFS embed.FS

var (
	// ErrNotFound is returned when a row does not exist or belongs to another user.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned when a signup email is already registered.
	ErrEmailTaken = errors.New("email already in use")
)

// Store persists users and prompts. Prompt lookups are always scoped to the
// owning user; a prompt of another user reads as ErrNotFound.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	UserByEmail(ctx context.Context, email string) (*User, error)
	UserByID(ctx context.Context, id int64) (*User, error)

	CreatePrompt(ctx context.Context, p *Prompt) error
	ListPrompts(ctx context.Context, userID int64) ([]Prompt, error)
	GetPrompt(ctx context.Context, userID, id int64) (*Prompt, error)
	UpdatePrompt(ctx context.Context, p *Prompt) error
	DeletePrompt(ctx context.Context, userID, id int64) error

	Close() error
}

// Open connects to Postgres when databaseURL is set, otherwise to the
// SQLite file at sqlitePath.
func Open(ctx context.Context, databaseURL, sqlitePath string) (Store, error) {
	if databaseURL != "" {
		pg, err := ConnectPostgres(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
	lite, err := OpenSQLite(ctx, sqlitePath)
	if err != nil {
		return nil, err
	}
	return lite, nil
}

// schemaStatements returns the statements of every migration under
// schema/<dialect>, in file name order.
func schemaStatements(dialect string) ([]string, error) {
	dir := "schema/" + dialect
	entries, err := fs.ReadDir(schemaFS, dir)
	if err != nil {
		return nil, fmt.Errorf("read schema dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var stmts []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := fs.ReadFile(schemaFS, dir+"/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		for _, stmt := range strings.Split(string(data), ";") {
			if stmt = strings.TrimSpace(stmt); stmt != "" {
				stmts = append(stmts, stmt)
			}
		}
	}
	return stmts, nil
}
