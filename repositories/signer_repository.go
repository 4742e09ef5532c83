package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/simplesign/simplesign/models"
)

// SignerRepository interface defines signer database operations
type SignerRepository interface {
	CreateBatch(ctx context.Context, signers []*models.Signer) error
	GetByID(ctx context.Context, id string) (*models.Signer, error)
	GetByToken(ctx context.Context, accessToken string) (*models.Signer, error)
	ListByDocument(ctx context.Context, documentID string) ([]models.Signer, error)
	UpdateStatusIf(ctx context.Context, id string, from, to models.SignerStatus) (bool, error)
	MarkSigned(ctx context.Context, id string, signedAt time.Time) error
	AllSigned(ctx context.Context, documentID string) (bool, error)
}

// signerRepository implements SignerRepository interface
type signerRepository struct {
	db *sql.DB
}

// NewSignerRepository creates a new signer repository
func NewSignerRepository(db *sql.DB) SignerRepository {
	return &signerRepository{db: db}
}

const signerColumns = `id, document_id, email, name, status, signed_at, access_token, created_at`

func scanSigner(row interface{ Scan(...interface{}) error }) (*models.Signer, error) {
	var signer models.Signer
	var signedAt sql.NullTime

	err := row.Scan(
		&signer.ID,
		&signer.DocumentID,
		&signer.Email,
		&signer.Name,
		&signer.Status,
		&signedAt,
		&signer.AccessToken,
		&signer.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if signedAt.Valid {
		signer.SignedAt = &signedAt.Time
	}

	return &signer, nil
}

// CreateBatch inserts all signers for a document in a single transaction
func (r *signerRepository) CreateBatch(ctx context.Context, signers []*models.Signer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO signers (id, document_id, email, name, status, access_token, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	for _, signer := range signers {
		if signer.CreatedAt.IsZero() {
			signer.CreatedAt = time.Now()
		}
		if signer.Status == "" {
			signer.Status = models.SignerPending
		}

		if _, err := tx.ExecContext(ctx, query,
			signer.ID,
			signer.DocumentID,
			signer.Email,
			signer.Name,
			signer.Status,
			signer.AccessToken,
			signer.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to create signer %s: %w", signer.Email, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit signers: %w", err)
	}

	return nil
}

// GetByID retrieves a signer by ID
func (r *signerRepository) GetByID(ctx context.Context, id string) (*models.Signer, error) {
	query := `SELECT ` + signerColumns + ` FROM signers WHERE id = ?`

	signer, err := scanSigner(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get signer: %w", err)
	}

	return signer, nil
}

// GetByToken retrieves a signer by access token. Unknown tokens map to
// models.ErrNotFound so callers cannot distinguish wrong from expired.
func (r *signerRepository) GetByToken(ctx context.Context, accessToken string) (*models.Signer, error) {
	query := `SELECT ` + signerColumns + ` FROM signers WHERE access_token = ?`

	signer, err := scanSigner(r.db.QueryRowContext(ctx, query, accessToken))
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get signer by token: %w", err)
	}

	return signer, nil
}

// ListByDocument retrieves all signers for a document in creation order
func (r *signerRepository) ListByDocument(ctx context.Context, documentID string) ([]models.Signer, error) {
	query := `SELECT ` + signerColumns + ` FROM signers WHERE document_id = ? ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query signers: %w", err)
	}
	defer rows.Close()

	var signers []models.Signer
	for rows.Next() {
		signer, err := scanSigner(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signer: %w", err)
		}
		signers = append(signers, *signer)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signers: %w", err)
	}

	return signers, nil
}

// UpdateStatusIf performs an atomic conditional signer status transition,
// returning true when this caller performed the change. Used for the
// one-shot pending→viewed transition on first read.
func (r *signerRepository) UpdateStatusIf(ctx context.Context, id string, from, to models.SignerStatus) (bool, error) {
	query := `UPDATE signers SET status = ? WHERE id = ? AND status = ?`

	result, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update signer status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// MarkSigned transitions a signer to signed and records the timestamp
func (r *signerRepository) MarkSigned(ctx context.Context, id string, signedAt time.Time) error {
	query := `UPDATE signers SET status = ?, signed_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, models.SignerSigned, signedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark signer signed: %w", err)
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

// AllSigned reports whether every signer of the document has signed.
// A document with no signers is never considered fully signed.
func (r *signerRepository) AllSigned(ctx context.Context, documentID string) (bool, error) {
	query := `
		SELECT COUNT(*) AS total,
		       COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS signed
		FROM signers
		WHERE document_id = ?
	`

	var total, signed int
	if err := r.db.QueryRowContext(ctx, query, models.SignerSigned, documentID).Scan(&total, &signed); err != nil {
		return false, fmt.Errorf("failed to count signers: %w", err)
	}

	return total > 0 && total == signed, nil
}
