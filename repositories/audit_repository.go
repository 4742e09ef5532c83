package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/simplesign/simplesign/models"
)

// AuditRepository handles the append-only document audit trail
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLogEntry) error
	ListByDocument(ctx context.Context, documentID string) ([]models.AuditLogEntry, error)
	CountByAction(ctx context.Context, documentID, action string) (int, error)
}

type sqliteAuditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB) AuditRepository {
	return &sqliteAuditRepository{db: db}
}

// Create inserts a new audit log entry
func (r *sqliteAuditRepository) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	query := `
		INSERT INTO audit_logs (document_id, signer_id, action, ip_address, user_agent, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if entry.Metadata == "" {
		entry.Metadata = "{}"
	}

	var signerID interface{}
	if entry.SignerID != nil {
		signerID = *entry.SignerID
	}

	result, err := r.db.ExecContext(ctx, query,
		entry.DocumentID,
		signerID,
		entry.Action,
		entry.IPAddress,
		entry.UserAgent,
		entry.Metadata,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted ID: %w", err)
	}

	entry.ID = id
	return nil
}

// ListByDocument retrieves the audit trail for a document, oldest first
func (r *sqliteAuditRepository) ListByDocument(ctx context.Context, documentID string) ([]models.AuditLogEntry, error) {
	query := `
		SELECT id, document_id, signer_id, action, ip_address, user_agent, metadata, created_at
		FROM audit_logs
		WHERE document_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditLogEntry
	for rows.Next() {
		var entry models.AuditLogEntry
		var signerID sql.NullString

		err := rows.Scan(
			&entry.ID,
			&entry.DocumentID,
			&signerID,
			&entry.Action,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.Metadata,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log entry: %w", err)
		}

		if signerID.Valid {
			entry.SignerID = &signerID.String
		}

		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log: %w", err)
	}

	return entries, nil
}

// CountByAction returns how many entries with the given action tag exist
// for a document
func (r *sqliteAuditRepository) CountByAction(ctx context.Context, documentID, action string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_logs WHERE document_id = ? AND action = ?`,
		documentID, action,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit log entries: %w", err)
	}

	return count, nil
}
