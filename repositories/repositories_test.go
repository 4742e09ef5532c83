package repositories

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/simplesign/simplesign/database"
	"github.com/simplesign/simplesign/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	// Initialize test database using the actual migration system
	if err := database.InitializeDatabase(dbPath); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	return database.GetDB()
}

func createTestDocument(t *testing.T, repo DocumentRepository, userID string) *models.Document {
	doc := &models.Document{
		ID:         uuid.NewString(),
		UserID:     userID,
		OwnerEmail: "owner@example.com",
		OwnerName:  "Owner",
		Title:      "Test Agreement",
		FileKey:    "documents/" + uuid.NewString() + ".pdf",
	}
	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("Failed to create document: %v", err)
	}
	return doc
}

func createTestSigners(t *testing.T, repo SignerRepository, documentID string, count int) []*models.Signer {
	signers := make([]*models.Signer, count)
	for i := range signers {
		signers[i] = &models.Signer{
			ID:          uuid.NewString(),
			DocumentID:  documentID,
			Email:       uuid.NewString() + "@example.com",
			Name:        "Signer",
			AccessToken: uuid.NewString(),
		}
	}
	if err := repo.CreateBatch(context.Background(), signers); err != nil {
		t.Fatalf("Failed to create signers: %v", err)
	}
	return signers
}

func TestDocumentRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	doc := createTestDocument(t, repo, "user-1")

	if doc.Status != models.DocumentDraft {
		t.Errorf("Expected new document to be draft, got %s", doc.Status)
	}

	// GetByID
	retrieved, err := repo.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Failed to get document: %v", err)
	}
	if retrieved.Title != doc.Title {
		t.Errorf("Expected title %q, got %q", doc.Title, retrieved.Title)
	}

	// Ownership scoping
	if _, err := repo.GetByIDForUser(ctx, doc.ID, "user-1"); err != nil {
		t.Errorf("Expected owner to see the document: %v", err)
	}
	if _, err := repo.GetByIDForUser(ctx, doc.ID, "someone-else"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for a different user, got: %v", err)
	}

	// ListByUser
	docs, err := repo.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("Expected 1 document, got %d", len(docs))
	}

	// UpdateStatus
	if err := repo.UpdateStatus(ctx, doc.ID, models.DocumentPending); err != nil {
		t.Fatalf("Failed to update status: %v", err)
	}
	retrieved, _ = repo.GetByID(ctx, doc.ID)
	if retrieved.Status != models.DocumentPending {
		t.Errorf("Expected status pending, got %s", retrieved.Status)
	}

	// UpdateFileKey
	if err := repo.UpdateFileKey(ctx, doc.ID, "documents/"+doc.ID+"/signed.pdf"); err != nil {
		t.Fatalf("Failed to update file key: %v", err)
	}

	// SetExpiry
	expiresAt := time.Now().Add(72 * time.Hour)
	if err := repo.SetExpiry(ctx, doc.ID, &expiresAt); err != nil {
		t.Fatalf("Failed to set expiry: %v", err)
	}
	retrieved, _ = repo.GetByID(ctx, doc.ID)
	if retrieved.ExpiresAt == nil {
		t.Error("Expected expiry to be set")
	}

	// Delete
	if err := repo.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("Failed to delete document: %v", err)
	}
	if _, err := repo.GetByID(ctx, doc.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got: %v", err)
	}
}

func TestDocumentRepositoryConditionalUpdate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	doc := createTestDocument(t, repo, "user-1")
	if err := repo.UpdateStatus(ctx, doc.ID, models.DocumentPending); err != nil {
		t.Fatalf("Failed to update status: %v", err)
	}

	// First swap wins
	won, err := repo.UpdateStatusIf(ctx, doc.ID, models.DocumentPending, models.DocumentCompleting)
	if err != nil {
		t.Fatalf("Conditional update failed: %v", err)
	}
	if !won {
		t.Error("Expected first conditional update to win")
	}

	// Second swap from the same precondition loses
	won, err = repo.UpdateStatusIf(ctx, doc.ID, models.DocumentPending, models.DocumentCompleting)
	if err != nil {
		t.Fatalf("Conditional update failed: %v", err)
	}
	if won {
		t.Error("Expected second conditional update to lose")
	}

	retrieved, _ := repo.GetByID(ctx, doc.ID)
	if retrieved.Status != models.DocumentCompleting {
		t.Errorf("Expected status completing, got %s", retrieved.Status)
	}
}

func TestSignerRepository(t *testing.T) {
	db := setupTestDB(t)
	docRepo := NewDocumentRepository(db)
	repo := NewSignerRepository(db)
	ctx := context.Background()

	doc := createTestDocument(t, docRepo, "user-1")
	signers := createTestSigners(t, repo, doc.ID, 2)

	// GetByToken
	retrieved, err := repo.GetByToken(ctx, signers[0].AccessToken)
	if err != nil {
		t.Fatalf("Failed to get signer by token: %v", err)
	}
	if retrieved.ID != signers[0].ID {
		t.Errorf("Expected signer %s, got %s", signers[0].ID, retrieved.ID)
	}

	// Unknown tokens look like missing records
	if _, err := repo.GetByToken(ctx, "no-such-token"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown token, got: %v", err)
	}

	// ListByDocument
	all, err := repo.ListByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Failed to list signers: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 signers, got %d", len(all))
	}

	// The pending -> viewed swap fires exactly once
	won, err := repo.UpdateStatusIf(ctx, signers[0].ID, models.SignerPending, models.SignerViewed)
	if err != nil {
		t.Fatalf("Conditional update failed: %v", err)
	}
	if !won {
		t.Error("Expected first view transition to win")
	}
	won, _ = repo.UpdateStatusIf(ctx, signers[0].ID, models.SignerPending, models.SignerViewed)
	if won {
		t.Error("Expected repeated view transition to lose")
	}

	// AllSigned
	allSigned, err := repo.AllSigned(ctx, doc.ID)
	if err != nil {
		t.Fatalf("AllSigned failed: %v", err)
	}
	if allSigned {
		t.Error("Expected AllSigned to be false before anyone signs")
	}

	now := time.Now()
	if err := repo.MarkSigned(ctx, signers[0].ID, now); err != nil {
		t.Fatalf("Failed to mark signer signed: %v", err)
	}
	allSigned, _ = repo.AllSigned(ctx, doc.ID)
	if allSigned {
		t.Error("Expected AllSigned to be false with one of two signed")
	}

	if err := repo.MarkSigned(ctx, signers[1].ID, now); err != nil {
		t.Fatalf("Failed to mark signer signed: %v", err)
	}
	allSigned, _ = repo.AllSigned(ctx, doc.ID)
	if !allSigned {
		t.Error("Expected AllSigned to be true with all signed")
	}

	retrieved, _ = repo.GetByID(ctx, signers[0].ID)
	if retrieved.Status != models.SignerSigned || retrieved.SignedAt == nil {
		t.Errorf("Expected signed signer with timestamp, got %s", retrieved.Status)
	}

	// A document with no signers is never fully signed
	emptyDoc := createTestDocument(t, docRepo, "user-1")
	allSigned, err = repo.AllSigned(ctx, emptyDoc.ID)
	if err != nil {
		t.Fatalf("AllSigned failed: %v", err)
	}
	if allSigned {
		t.Error("Expected AllSigned to be false for a document without signers")
	}
}

func TestFieldRepository(t *testing.T) {
	db := setupTestDB(t)
	docRepo := NewDocumentRepository(db)
	signerRepo := NewSignerRepository(db)
	repo := NewFieldRepository(db)
	ctx := context.Background()

	doc := createTestDocument(t, docRepo, "user-1")
	signers := createTestSigners(t, signerRepo, doc.ID, 2)

	fields := []*models.SignatureField{
		{
			ID: uuid.NewString(), DocumentID: doc.ID, SignerID: signers[0].ID,
			Type: models.FieldSignature, Page: 2, X: 50, Y: 100, Width: 200, Height: 60, Required: true,
		},
		{
			ID: uuid.NewString(), DocumentID: doc.ID, SignerID: signers[0].ID,
			Type: models.FieldDate, Page: 1, X: 50, Y: 200, Width: 120, Height: 30, Required: true,
		},
		{
			ID: uuid.NewString(), DocumentID: doc.ID, SignerID: signers[1].ID,
			Type: models.FieldText, Page: 1, X: 50, Y: 300, Width: 150, Height: 30,
		},
	}
	if err := repo.CreateBatch(ctx, fields); err != nil {
		t.Fatalf("Failed to create fields: %v", err)
	}

	// ListBySigner is scoped and page ordered
	mine, err := repo.ListBySigner(ctx, doc.ID, signers[0].ID)
	if err != nil {
		t.Fatalf("Failed to list signer fields: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("Expected 2 fields for signer, got %d", len(mine))
	}
	if mine[0].Page != 1 || mine[1].Page != 2 {
		t.Errorf("Expected fields ordered by page, got pages %d, %d", mine[0].Page, mine[1].Page)
	}

	// SetValue
	if err := repo.SetValue(ctx, fields[1].ID, "2026-08-28"); err != nil {
		t.Fatalf("Failed to set field value: %v", err)
	}
	field, err := repo.GetByID(ctx, fields[1].ID)
	if err != nil {
		t.Fatalf("Failed to get field: %v", err)
	}
	if !field.HasValue() || *field.Value != "2026-08-28" {
		t.Error("Expected stored field value to be readable")
	}

	// UpdateGeometry
	if err := repo.UpdateGeometry(ctx, fields[0].ID, 60, 110, 210, 70); err != nil {
		t.Fatalf("Failed to update geometry: %v", err)
	}
	field, _ = repo.GetByID(ctx, fields[0].ID)
	if field.X != 60 || field.Width != 210 {
		t.Errorf("Expected updated geometry, got x=%f width=%f", field.X, field.Width)
	}

	// CountByDocument
	count, err := repo.CountByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Failed to count fields: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 fields, got %d", count)
	}

	// Delete
	if err := repo.Delete(ctx, fields[2].ID); err != nil {
		t.Fatalf("Failed to delete field: %v", err)
	}
	if _, err := repo.GetByID(ctx, fields[2].ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got: %v", err)
	}
}

func TestAuditRepository(t *testing.T) {
	db := setupTestDB(t)
	docRepo := NewDocumentRepository(db)
	signerRepo := NewSignerRepository(db)
	repo := NewAuditRepository(db)
	ctx := context.Background()

	doc := createTestDocument(t, docRepo, "user-1")
	signers := createTestSigners(t, signerRepo, doc.ID, 1)

	entry := &models.AuditLogEntry{
		DocumentID: doc.ID,
		SignerID:   &signers[0].ID,
		Action:     models.ActionDocumentViewed,
		IPAddress:  "203.0.113.7",
		UserAgent:  "test-agent",
	}
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("Failed to create audit entry: %v", err)
	}
	if entry.ID == 0 {
		t.Error("Expected entry ID to be set after creation")
	}

	if err := repo.Create(ctx, &models.AuditLogEntry{
		DocumentID: doc.ID,
		Action:     models.ActionDocumentSent,
	}); err != nil {
		t.Fatalf("Failed to create audit entry: %v", err)
	}

	entries, err := repo.ListByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Failed to list audit entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 audit entries, got %d", len(entries))
	}

	// Metadata defaults to an empty JSON object
	for _, e := range entries {
		if e.Metadata == "" {
			t.Error("Expected metadata to default to an empty JSON object")
		}
	}

	count, err := repo.CountByAction(ctx, doc.ID, models.ActionDocumentViewed)
	if err != nil {
		t.Fatalf("Failed to count audit entries: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 viewed entry, got %d", count)
	}
}

func TestWaitlistRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWaitlistRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, "hello@example.com"); err != nil {
		t.Fatalf("Failed to create waitlist entry: %v", err)
	}

	// Duplicates are quietly ignored
	if err := repo.Create(ctx, "hello@example.com"); err != nil {
		t.Fatalf("Expected duplicate signup to be accepted: %v", err)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Failed to count waitlist: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 waitlist entry, got %d", count)
	}
}
