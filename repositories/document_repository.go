package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/simplesign/simplesign/models"
)

// DocumentRepository interface defines document database operations
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id string) (*models.Document, error)
	GetByIDForUser(ctx context.Context, id, userID string) (*models.Document, error)
	ListByUser(ctx context.Context, userID string) ([]models.Document, error)
	UpdateStatus(ctx context.Context, id string, status models.DocumentStatus) error
	UpdateStatusIf(ctx context.Context, id string, from, to models.DocumentStatus) (bool, error)
	UpdateFileKey(ctx context.Context, id, fileKey string) error
	SetExpiry(ctx context.Context, id string, expiresAt *time.Time) error
	Delete(ctx context.Context, id string) error
}

// documentRepository implements DocumentRepository interface
type documentRepository struct {
	db *sql.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *sql.DB) DocumentRepository {
	return &documentRepository{db: db}
}

const documentColumns = `id, user_id, owner_email, owner_name, title, file_key, status, created_at, updated_at, expires_at`

// scanDocument scans a single document row
func scanDocument(row interface{ Scan(...interface{}) error }) (*models.Document, error) {
	var doc models.Document
	var expiresAt sql.NullTime

	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.OwnerEmail,
		&doc.OwnerName,
		&doc.Title,
		&doc.FileKey,
		&doc.Status,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&expiresAt,
	)
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		doc.ExpiresAt = &expiresAt.Time
	}

	return &doc, nil
}

// Create creates a new document
func (r *documentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (id, user_id, owner_email, owner_name, title, file_key, status, created_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	if doc.Status == "" {
		doc.Status = models.DocumentDraft
	}

	var expiresAt interface{}
	if doc.ExpiresAt != nil {
		expiresAt = *doc.ExpiresAt
	}

	_, err := r.db.ExecContext(ctx, query,
		doc.ID,
		doc.UserID,
		doc.OwnerEmail,
		doc.OwnerName,
		doc.Title,
		doc.FileKey,
		doc.Status,
		doc.CreatedAt,
		doc.UpdatedAt,
		expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by ID
func (r *documentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = ?`

	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return doc, nil
}

// GetByIDForUser retrieves a document by ID, scoped to its owner
func (r *documentRepository) GetByIDForUser(ctx context.Context, id, userID string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = ? AND user_id = ?`

	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return doc, nil
}

// ListByUser retrieves all documents owned by a user, newest first
func (r *documentRepository) ListByUser(ctx context.Context, userID string) ([]models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE user_id = ? ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *doc)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	return docs, nil
}

// UpdateStatus sets the document status unconditionally
func (r *documentRepository) UpdateStatus(ctx context.Context, id string, status models.DocumentStatus) error {
	query := `UPDATE documents SET status = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrNotFound
	}

	return nil
}

// UpdateStatusIf performs an atomic conditional transition: the status is
// changed only if it still equals from. Returns true when this caller won
// the swap. Concurrent last-signer submissions serialize on this.
func (r *documentRepository) UpdateStatusIf(ctx context.Context, id string, from, to models.DocumentStatus) (bool, error) {
	query := `UPDATE documents SET status = ?, updated_at = ? WHERE id = ? AND status = ?`

	result, err := r.db.ExecContext(ctx, query, to, time.Now(), id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update document status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// UpdateFileKey points the document at a new stored artifact
func (r *documentRepository) UpdateFileKey(ctx context.Context, id, fileKey string) error {
	query := `UPDATE documents SET file_key = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, fileKey, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update document file key: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrNotFound
	}

	return nil
}

// SetExpiry sets or clears the document's expiry timestamp
func (r *documentRepository) SetExpiry(ctx context.Context, id string, expiresAt *time.Time) error {
	query := `UPDATE documents SET expires_at = ?, updated_at = ? WHERE id = ?`

	var value interface{}
	if expiresAt != nil {
		value = *expiresAt
	}

	result, err := r.db.ExecContext(ctx, query, value, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update document expiry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrNotFound
	}

	return nil
}

// Delete deletes a document by ID; signers, fields and audit entries
// cascade at the database level
func (r *documentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrNotFound
	}

	return nil
}
