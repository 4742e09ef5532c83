package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/simplesign/simplesign/models"
	"github.com/simplesign/simplesign/notify"
	"github.com/simplesign/simplesign/pdf"
	"github.com/simplesign/simplesign/repositories"
	"github.com/simplesign/simplesign/storage"
	"github.com/simplesign/simplesign/userctx"
)

var timeNow = func() time.Time {
	return time.Now()
}

// maxUploadSize caps uploaded PDFs at 10 MB
const maxUploadSize = 10 << 20

// Owner identifies the authenticated user acting on a document
type Owner struct {
	ID    string
	Email string
	Name  string
}

// SendForm is the payload for sending a document out for signature
type SendForm struct {
	Signers       []models.SignerForm `json:"signers"`
	Fields        []models.FieldForm  `json:"fields"`
	ExpiresInDays int                 `json:"expires_in_days"`
}

// DocumentDetail bundles a document with its signers, fields and audit trail
type DocumentDetail struct {
	Document *models.Document        `json:"document"`
	Signers  []models.Signer         `json:"signers"`
	Fields   []models.SignatureField `json:"fields"`
	Audit    []models.AuditLogEntry  `json:"audit"`
}

// DocumentService interface defines document management business logic
type DocumentService interface {
	Upload(ctx context.Context, owner Owner, title string, data []byte) (*models.Document, error)
	List(ctx context.Context, userID string) ([]models.Document, error)
	Get(ctx context.Context, userID, documentID string) (*DocumentDetail, error)
	Send(ctx context.Context, userID, documentID string, form *SendForm) (*models.Document, error)
	GetFile(ctx context.Context, userID, documentID string) ([]byte, error)
	UpdateFieldGeometry(ctx context.Context, userID, documentID, fieldID string, form *models.GeometryForm) error
	DeleteField(ctx context.Context, userID, documentID, fieldID string) error
	Delete(ctx context.Context, userID, documentID string) error
}

// documentService implements DocumentService interface
type documentService struct {
	repos    *repositories.Repositories
	blob     storage.BlobStore
	notifier notify.Notifier
	appURL   string
}

// NewDocumentService creates a new document service
func NewDocumentService(repos *repositories.Repositories, blob storage.BlobStore, notifier notify.Notifier, appURL string) DocumentService {
	return &documentService{
		repos:    repos,
		blob:     blob,
		notifier: notifier,
		appURL:   strings.TrimRight(appURL, "/"),
	}
}

// Upload stores an uploaded PDF and creates a draft document for it
func (s *documentService) Upload(ctx context.Context, owner Owner, title string, data []byte) (*models.Document, error) {
	if len(data) == 0 {
		return nil, models.NewValidationError("uploaded file is empty")
	}
	if len(data) > maxUploadSize {
		return nil, models.NewValidationError("file exceeds the %d MB upload limit", maxUploadSize>>20)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, models.NewValidationError("only PDF files are accepted")
	}

	// Reject files pdfcpu cannot parse up front rather than at signing time
	if _, err := pdf.PageCount(data); err != nil {
		return nil, models.NewValidationError("file is not a readable PDF")
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, models.NewValidationError("document title is required")
	}
	if len(title) > 255 {
		return nil, models.NewValidationError("document title must be less than 255 characters")
	}

	doc := &models.Document{
		ID:         uuid.NewString(),
		UserID:     owner.ID,
		OwnerEmail: owner.Email,
		OwnerName:  owner.Name,
		Title:      title,
		FileKey:    "documents/" + uuid.NewString() + ".pdf",
		Status:     models.DocumentDraft,
	}

	if _, err := s.blob.Put(ctx, doc.FileKey, data, false); err != nil {
		return nil, fmt.Errorf("failed to store uploaded file: %w", err)
	}

	if err := s.repos.Documents.Create(ctx, doc); err != nil {
		// Best effort cleanup of the orphaned blob
		if delErr := s.blob.Delete(ctx, doc.FileKey); delErr != nil {
			log.Printf("failed to clean up blob %s: %v", doc.FileKey, delErr)
		}
		return nil, err
	}

	return doc, nil
}

// List retrieves all documents owned by a user
func (s *documentService) List(ctx context.Context, userID string) ([]models.Document, error) {
	return s.repos.Documents.ListByUser(ctx, userID)
}

// Get retrieves a document with its signers, fields and audit trail
func (s *documentService) Get(ctx context.Context, userID, documentID string) (*DocumentDetail, error) {
	doc, err := s.repos.Documents.GetByIDForUser(ctx, documentID, userID)
	if err != nil {
		return nil, err
	}

	signers, err := s.repos.Signers.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list signers: %w", err)
	}

	fields, err := s.repos.Fields.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}

	audit, err := s.repos.Audit.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	return &DocumentDetail{
		Document: doc,
		Signers:  signers,
		Fields:   fields,
		Audit:    audit,
	}, nil
}

// Send finalizes a draft: persists signers and field placements, moves the
// document to pending and emails each signer their personal signing link
func (s *documentService) Send(ctx context.Context, userID, documentID string, form *SendForm) (*models.Document, error) {
	doc, err := s.repos.Documents.GetByIDForUser(ctx, documentID, userID)
	if err != nil {
		return nil, err
	}

	if doc.Status != models.DocumentDraft {
		return nil, models.NewValidationError("document has already been sent")
	}

	if len(form.Signers) == 0 {
		return nil, models.NewValidationError("at least one signer is required")
	}
	if len(form.Fields) == 0 {
		return nil, models.NewValidationError("at least one field is required")
	}

	// Validate signers and map their client-side refs to fresh IDs
	signerIDByRef := make(map[string]string, len(form.Signers))
	emailSeen := make(map[string]bool, len(form.Signers))
	signers := make([]*models.Signer, 0, len(form.Signers))

	for i := range form.Signers {
		sf := &form.Signers[i]
		if errs := sf.Validate(); len(errs) > 0 {
			return nil, models.NewValidationError("signer %d: %s", i+1, strings.Join(errs, "; "))
		}

		email := strings.ToLower(strings.TrimSpace(sf.Email))
		if emailSeen[email] {
			return nil, models.NewValidationError("duplicate signer email %s", email)
		}
		emailSeen[email] = true

		ref := sf.Ref
		if ref == "" {
			ref = fmt.Sprintf("signer-%d", i+1)
		}
		if _, ok := signerIDByRef[ref]; ok {
			return nil, models.NewValidationError("duplicate signer ref %q", ref)
		}

		signer := &models.Signer{
			ID:          uuid.NewString(),
			DocumentID:  doc.ID,
			Email:       email,
			Name:        strings.TrimSpace(sf.Name),
			Status:      models.SignerPending,
			AccessToken: uuid.NewString(),
		}
		signerIDByRef[ref] = signer.ID
		signers = append(signers, signer)
	}

	fields := make([]*models.SignatureField, 0, len(form.Fields))
	for i := range form.Fields {
		ff := &form.Fields[i]
		if errs := ff.Validate(); len(errs) > 0 {
			return nil, models.NewValidationError("field %d: %s", i+1, strings.Join(errs, "; "))
		}

		signerID, ok := signerIDByRef[ff.SignerRef]
		if !ok {
			return nil, models.NewValidationError("field %d refers to unknown signer %q", i+1, ff.SignerRef)
		}

		fields = append(fields, &models.SignatureField{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			SignerID:   signerID,
			Type:       models.FieldType(ff.Type),
			Page:       ff.Page,
			X:          ff.X,
			Y:          ff.Y,
			Width:      ff.Width,
			Height:     ff.Height,
			Required:   ff.Required,
		})
	}

	if err := s.repos.Signers.CreateBatch(ctx, signers); err != nil {
		return nil, fmt.Errorf("failed to create signers: %w", err)
	}
	if err := s.repos.Fields.CreateBatch(ctx, fields); err != nil {
		return nil, fmt.Errorf("failed to create fields: %w", err)
	}

	if form.ExpiresInDays > 0 {
		expiresAt := timeNow().AddDate(0, 0, form.ExpiresInDays)
		if err := s.repos.Documents.SetExpiry(ctx, doc.ID, &expiresAt); err != nil {
			return nil, fmt.Errorf("failed to set document expiry: %w", err)
		}
		doc.ExpiresAt = &expiresAt
	}

	// The conditional update keeps a double-send from creating a second
	// round of audit entries and emails
	won, err := s.repos.Documents.UpdateStatusIf(ctx, doc.ID, models.DocumentDraft, models.DocumentPending)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, models.NewValidationError("document has already been sent")
	}
	doc.Status = models.DocumentPending

	metadata, _ := json.Marshal(map[string]int{
		"signers": len(signers),
		"fields":  len(fields),
	})
	entry := &models.AuditLogEntry{
		DocumentID: doc.ID,
		Action:     models.ActionDocumentSent,
		IPAddress:  userctx.GetClientIP(ctx),
		UserAgent:  userctx.GetUserAgent(ctx),
		Metadata:   string(metadata),
	}
	if err := s.repos.Audit.Create(ctx, entry); err != nil {
		log.Printf("failed to record document_sent audit entry: %v", err)
	}

	for _, signer := range signers {
		req := notify.SigningRequest{
			To:            signer.Email,
			SignerName:    signer.Name,
			SenderName:    senderName(doc),
			DocumentTitle: doc.Title,
			SigningURL:    s.appURL + "/sign/" + signer.AccessToken,
		}
		if err := s.notifier.SendSigningRequest(ctx, req); err != nil {
			log.Printf("failed to notify signer %s: %v", signer.Email, err)
		}
	}

	return doc, nil
}

// GetFile returns the document's current PDF bytes
func (s *documentService) GetFile(ctx context.Context, userID, documentID string) ([]byte, error) {
	doc, err := s.repos.Documents.GetByIDForUser(ctx, documentID, userID)
	if err != nil {
		return nil, err
	}
	return s.blob.Get(ctx, doc.FileKey)
}

// UpdateFieldGeometry moves or resizes a field on a draft document
func (s *documentService) UpdateFieldGeometry(ctx context.Context, userID, documentID, fieldID string, form *models.GeometryForm) error {
	doc, err := s.repos.Documents.GetByIDForUser(ctx, documentID, userID)
	if err != nil {
		return err
	}
	if doc.Status != models.DocumentDraft {
		return models.NewValidationError("fields can only be changed while the document is a draft")
	}

	if errs := form.Validate(); len(errs) > 0 {
		return models.NewValidationError("%s", strings.Join(errs, "; "))
	}

	field, err := s.repos.Fields.GetByID(ctx, fieldID)
	if err != nil {
		return err
	}
	if field.DocumentID != doc.ID {
		return models.ErrNotFound
	}

	return s.repos.Fields.UpdateGeometry(ctx, fieldID, form.X, form.Y, form.Width, form.Height)
}

// DeleteField removes a field from a draft document
func (s *documentService) DeleteField(ctx context.Context, userID, documentID, fieldID string) error {
	doc, err := s.repos.Documents.GetByIDForUser(ctx, documentID, userID)
	if err != nil {
		return err
	}
	if doc.Status != models.DocumentDraft {
		return models.NewValidationError("fields can only be changed while the document is a draft")
	}

	field, err := s.repos.Fields.GetByID(ctx, fieldID)
	if err != nil {
		return err
	}
	if field.DocumentID != doc.ID {
		return models.ErrNotFound
	}

	return s.repos.Fields.Delete(ctx, fieldID)
}

// Delete removes a document and its stored file
func (s *documentService) Delete(ctx context.Context, userID, documentID string) error {
	doc, err := s.repos.Documents.GetByIDForUser(ctx, documentID, userID)
	if err != nil {
		return err
	}

	if err := s.repos.Documents.Delete(ctx, doc.ID); err != nil {
		return err
	}

	if err := s.blob.Delete(ctx, doc.FileKey); err != nil {
		log.Printf("failed to delete blob %s: %v", doc.FileKey, err)
	}

	return nil
}

// senderName returns the display name shown to signers in emails
func senderName(doc *models.Document) string {
	if doc.OwnerName != "" {
		return doc.OwnerName
	}
	if doc.OwnerEmail != "" {
		return doc.OwnerEmail
	}
	return "The document owner"
}
