package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/simplesign/simplesign/models"
)

// FieldRepository interface defines signature field database operations
type FieldRepository interface {
	CreateBatch(ctx context.Context, fields []*models.SignatureField) error
	GetByID(ctx context.Context, id string) (*models.SignatureField, error)
	ListByDocument(ctx context.Context, documentID string) ([]models.SignatureField, error)
	ListBySigner(ctx context.Context, documentID, signerID string) ([]models.SignatureField, error)
	SetValue(ctx context.Context, id, value string) error
	UpdateGeometry(ctx context.Context, id string, x, y, width, height float64) error
	Delete(ctx context.Context, id string) error
	CountByDocument(ctx context.Context, documentID string) (int, error)
}

// fieldRepository implements FieldRepository interface
type fieldRepository struct {
	db *sql.DB
}

// NewFieldRepository creates a new field repository
func NewFieldRepository(db *sql.DB) FieldRepository {
	return &fieldRepository{db: db}
}

const fieldColumns = `id, document_id, signer_id, type, page, x, y, width, height, required, value, created_at`

func scanField(row interface{ Scan(...interface{}) error }) (*models.SignatureField, error) {
	var field models.SignatureField
	var value sql.NullString

	err := row.Scan(
		&field.ID,
		&field.DocumentID,
		&field.SignerID,
		&field.Type,
		&field.Page,
		&field.X,
		&field.Y,
		&field.Width,
		&field.Height,
		&field.Required,
		&value,
		&field.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if value.Valid {
		field.Value = &value.String
	}

	return &field, nil
}

// CreateBatch inserts all placed fields in a single transaction
func (r *fieldRepository) CreateBatch(ctx context.Context, fields []*models.SignatureField) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO signature_fields (id, document_id, signer_id, type, page, x, y, width, height, required, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, field := range fields {
		if field.CreatedAt.IsZero() {
			field.CreatedAt = time.Now()
		}

		if _, err := tx.ExecContext(ctx, query,
			field.ID,
			field.DocumentID,
			field.SignerID,
			field.Type,
			field.Page,
			field.X,
			field.Y,
			field.Width,
			field.Height,
			field.Required,
			field.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to create signature field: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit signature fields: %w", err)
	}

	return nil
}

// GetByID retrieves a signature field by ID
func (r *fieldRepository) GetByID(ctx context.Context, id string) (*models.SignatureField, error) {
	query := `SELECT ` + fieldColumns + ` FROM signature_fields WHERE id = ?`

	field, err := scanField(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get signature field: %w", err)
	}

	return field, nil
}

// ListByDocument retrieves all fields for a document ordered by page
func (r *fieldRepository) ListByDocument(ctx context.Context, documentID string) ([]models.SignatureField, error) {
	query := `SELECT ` + fieldColumns + ` FROM signature_fields WHERE document_id = ? ORDER BY page ASC, created_at ASC`
	return r.queryFields(ctx, query, documentID)
}

// ListBySigner retrieves the fields assigned to one signer ordered by page
func (r *fieldRepository) ListBySigner(ctx context.Context, documentID, signerID string) ([]models.SignatureField, error) {
	query := `SELECT ` + fieldColumns + ` FROM signature_fields WHERE document_id = ? AND signer_id = ? ORDER BY page ASC, created_at ASC`
	return r.queryFields(ctx, query, documentID, signerID)
}

func (r *fieldRepository) queryFields(ctx context.Context, query string, args ...interface{}) ([]models.SignatureField, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query signature fields: %w", err)
	}
	defer rows.Close()

	var fields []models.SignatureField
	for rows.Next() {
		field, err := scanField(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signature field: %w", err)
		}
		fields = append(fields, *field)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signature fields: %w", err)
	}

	return fields, nil
}

// SetValue fills a field with a signer-provided value
func (r *fieldRepository) SetValue(ctx context.Context, id, value string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE signature_fields SET value = ? WHERE id = ?`, value, id)
	if err != nil {
		return fmt.Errorf("failed to set field value: %w", err)
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

// UpdateGeometry moves or resizes an already placed field
func (r *fieldRepository) UpdateGeometry(ctx context.Context, id string, x, y, width, height float64) error {
	query := `UPDATE signature_fields SET x = ?, y = ?, width = ?, height = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, x, y, width, height, id)
	if err != nil {
		return fmt.Errorf("failed to update field geometry: %w", err)
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

// Delete removes a field and any value it held
func (r *fieldRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM signature_fields WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete signature field: %w", err)
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

// CountByDocument returns the number of fields placed on a document
func (r *fieldRepository) CountByDocument(ctx context.Context, documentID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM signature_fields WHERE document_id = ?`, documentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count signature fields: %w", err)
	}

	return count, nil
}
