package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// WaitlistRepository handles waitlist email capture
type WaitlistRepository interface {
	Create(ctx context.Context, email string) error
	Count(ctx context.Context) (int, error)
}

type sqliteWaitlistRepository struct {
	db *sql.DB
}

// NewWaitlistRepository creates a new waitlist repository
func NewWaitlistRepository(db *sql.DB) WaitlistRepository {
	return &sqliteWaitlistRepository{db: db}
}

// Create records an email; duplicates are ignored
func (r *sqliteWaitlistRepository) Create(ctx context.Context, email string) error {
	query := `INSERT OR IGNORE INTO waitlist (email, created_at) VALUES (?, ?)`

	if _, err := r.db.ExecContext(ctx, query, email, time.Now()); err != nil {
		return fmt.Errorf("failed to create waitlist entry: %w", err)
	}

	return nil
}

// Count returns the number of waitlist entries
func (r *sqliteWaitlistRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM waitlist`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count waitlist entries: %w", err)
	}

	return count, nil
}
