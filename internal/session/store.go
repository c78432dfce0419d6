// Package session persists the per-browser dashboard flags: the signed-in email
// and whether demo mode is on.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/claude/pulseboard/internal/demo"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned for an unknown session ID.
var ErrNotFound = errors.New("session not found")

// Flags is the state held for one session.
type Flags struct {
	ID        string    `json:"id"`
	UserEmail string    `json:"user_email"`
	DemoMode  bool      `json:"demo_mode"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SignedIn reports whether the session has an email to query with.
func (f Flags) SignedIn() bool { return f.UserEmail != "" }

// Store keeps session flags in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the session database at dir/sessions.db.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "sessions.db"))
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		id          TEXT PRIMARY KEY,
		user_email  TEXT NOT NULL DEFAULT '',
		demo_mode   INTEGER NOT NULL DEFAULT 0,
		updated_at  TIMESTAMP NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating session table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the session database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create starts a new session with both flags cleared.
func (s *Store) Create(ctx context.Context) (Flags, error) {
	return s.put(ctx, Flags{ID: uuid.NewString()})
}

// Get returns a session's flags.
func (s *Store) Get(ctx context.Context, id string) (Flags, error) {
	f := Flags{ID: id}
	var demoMode int
	err := s.db.QueryRowContext(ctx,
		`SELECT user_email, demo_mode, updated_at FROM sessions WHERE id = ?`, id,
	).Scan(&f.UserEmail, &demoMode, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Flags{}, ErrNotFound
	}
	if err != nil {
		return Flags{}, fmt.Errorf("reading session: %w", err)
	}
	f.DemoMode = demoMode == 1
	return f, nil
}

// Login signs the session in as email and leaves demo mode.
func (s *Store) Login(ctx context.Context, id, email string) (Flags, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Flags{}, fmt.Errorf("login requires an email")
	}
	return s.put(ctx, Flags{ID: id, UserEmail: email})
}

// Logout clears both flags.
func (s *Store) Logout(ctx context.Context, id string) (Flags, error) {
	return s.put(ctx, Flags{ID: id})
}

// EnterDemo turns demo mode on and signs in as the demo identity.
func (s *Store) EnterDemo(ctx context.Context, id string) (Flags, error) {
	return s.put(ctx, Flags{ID: id, UserEmail: demo.Email, DemoMode: true})
}

// ExitDemo turns demo mode off. The demo identity is signed out with it.
func (s *Store) ExitDemo(ctx context.Context, id string) (Flags, error) {
	return s.put(ctx, Flags{ID: id})
}

func (s *Store) put(ctx context.Context, f Flags) (Flags, error) {
	f.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	demoMode := 0
	if f.DemoMode {
		demoMode = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_email, demo_mode, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   user_email = excluded.user_email,
		   demo_mode = excluded.demo_mode,
		   updated_at = excluded.updated_at`,
		f.ID, f.UserEmail, demoMode, f.UpdatedAt,
	)
	if err != nil {
		return Flags{}, fmt.Errorf("writing session %s: %w", f.ID, err)
	}
	return f, nil
}
