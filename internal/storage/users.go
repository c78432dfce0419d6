package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/claude/pulseboard/internal/models"
	"github.com/jackc/pgx/v5"
)

// GetOrCreateUser finds or creates a user by email and returns the user ID.
// Updates last_seen on each call.
func (db *DB) GetOrCreateUser(ctx context.Context, email string) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO users (email)
		VALUES ($1)
		ON CONFLICT (email) DO UPDATE SET last_seen = NOW()
		RETURNING id
	`, normalizeEmail(email)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting user: %w", err)
	}
	return id, nil
}

// UserIDByEmail looks up a user. Returns models.ErrUserNotFound when absent.
func (db *DB) UserIDByEmail(ctx context.Context, email string) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx,
		`SELECT id FROM users WHERE email = $1`, normalizeEmail(email)).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, models.ErrUserNotFound
		}
		return 0, fmt.Errorf("looking up user: %w", err)
	}
	return id, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

const profileColumns = `email, name, age, gender, phone, country, role, created_at, last_seen`

func scanProfile(row pgx.Row) (*models.UserProfile, error) {
	var p models.UserProfile
	err := row.Scan(&p.Email, &p.Name, &p.Age, &p.Gender, &p.Phone, &p.Country, &p.Role, &p.CreatedAt, &p.LastSeen)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProfile returns a user's profile. Returns models.ErrUserNotFound when absent.
func (db *DB) GetProfile(ctx context.Context, email string) (*models.UserProfile, error) {
	p, err := scanProfile(db.Pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM users WHERE email = $1`, normalizeEmail(email)))
	if err != nil && !errors.Is(err, models.ErrUserNotFound) {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	return p, err
}

// UpdateProfile sets the fields present in u and returns the stored profile.
// Returns models.ErrUserNotFound when the user does not exist.
func (db *DB) UpdateProfile(ctx context.Context, u models.ProfileUpdate) (*models.UserProfile, error) {
	p, err := scanProfile(db.Pool.QueryRow(ctx, `
		UPDATE users SET
			name    = COALESCE($2, name),
			age     = COALESCE($3, age),
			gender  = COALESCE($4, gender),
			phone   = COALESCE($5, phone),
			country = COALESCE($6, country),
			role    = COALESCE($7, role)
		WHERE email = $1
		RETURNING `+profileColumns,
		normalizeEmail(u.Email), u.Name, u.Age, u.Gender, u.Phone, u.Country, u.Role))
	if err != nil && !errors.Is(err, models.ErrUserNotFound) {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	return p, err
}
