package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/famloop/backend/pkg/models"
)

const userColumns = `id, email, name, password_hash, role, profile_image_url, created_at, updated_at`

// GetByID fetches a user by ID. Returns nil without error when absent.
func (p *Postgres) GetByID(ctx context.Context, id int) (*models.User, error) {
	const op = "store.Users.GetByID"
	defer p.observe("select", time.Now())

	row := p.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// GetByEmail fetches a user by email. Returns nil without error when absent.
func (p *Postgres) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "store.Users.GetByEmail"
	defer p.observe("select", time.Now())

	row := p.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// CreateUser inserts a new user and returns the stored row
func (p *Postgres) CreateUser(ctx context.Context, email, name, passwordHash, role string, profileImageURL *string) (*models.User, error) {
	const op = "store.Users.CreateUser"
	defer p.observe("insert", time.Now())

	query := `INSERT INTO users (email, name, password_hash, role, profile_image_url)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING ` + userColumns

	row := p.db.QueryRowContext(ctx, query, email, name, passwordHash, role, profileImageURL)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// UpdatePassword replaces a user's password hash
func (p *Postgres) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	const op = "store.Users.UpdatePassword"
	defer p.observe("update", time.Now())

	_, err := p.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		passwordHash, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateProfile fills in name and profile image when provided. Used by the
// OAuth callback to backfill fields missing on locally created accounts.
func (p *Postgres) UpdateProfile(ctx context.Context, id int, name *string, profileImageURL *string) error {
	const op = "store.Users.UpdateProfile"
	defer p.observe("update", time.Now())

	_, err := p.db.ExecContext(ctx,
		`UPDATE users SET
		     name = COALESCE(NULLIF($1, ''), name),
		     profile_image_url = COALESCE($2, profile_image_url),
		     updated_at = NOW()
		 WHERE id = $3`,
		deref(name), profileImageURL, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.Role,
		&user.ProfileImageURL, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
