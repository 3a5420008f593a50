package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/unilibrary/bagdesk-api/internal/models"
)

// LibrarianRepository manages persistence for staff accounts.
type LibrarianRepository struct {
	db *sqlx.DB
}

// NewLibrarianRepository constructs a LibrarianRepository.
func NewLibrarianRepository(db *sqlx.DB) *LibrarianRepository {
	return &LibrarianRepository{db: db}
}

// FindByEmail fetches a librarian account by email.
func (r *LibrarianRepository) FindByEmail(ctx context.Context, email string) (*models.Librarian, error) {
	const query = `SELECT id, email, password_hash, full_name, active, last_login_at, created_at
        FROM librarians WHERE email = $1`
	var librarian models.Librarian
	if err := r.db.GetContext(ctx, &librarian, query, email); err != nil {
		return nil, err
	}
	return &librarian, nil
}

// FindByID fetches a librarian account by id.
func (r *LibrarianRepository) FindByID(ctx context.Context, id string) (*models.Librarian, error) {
	const query = `SELECT id, email, password_hash, full_name, active, last_login_at, created_at
        FROM librarians WHERE id = $1`
	var librarian models.Librarian
	if err := r.db.GetContext(ctx, &librarian, query, id); err != nil {
		return nil, err
	}
	return &librarian, nil
}

// UpdateLastLogin stamps the most recent successful login.
func (r *LibrarianRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE librarians SET last_login_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}
