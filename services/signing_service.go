package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/simplesign/simplesign/models"
	"github.com/simplesign/simplesign/notify"
	"github.com/simplesign/simplesign/pdf"
	"github.com/simplesign/simplesign/repositories"
	"github.com/simplesign/simplesign/storage"
	"github.com/simplesign/simplesign/userctx"
)

// SigningSession is everything a signer needs to render their view of
// a document. The access token never appears in it.
type SigningSession struct {
	DocumentID    string                  `json:"document_id"`
	DocumentTitle string                  `json:"document_title"`
	Status        models.DocumentStatus   `json:"status"`
	Signer        *models.Signer          `json:"signer"`
	Fields        []models.SignatureField `json:"fields"`
}

// SigningService interface defines the signer-facing business logic
type SigningService interface {
	GetSession(ctx context.Context, accessToken string) (*SigningSession, error)
	Submit(ctx context.Context, accessToken string, values map[string]string) (*models.Signer, error)
	Decline(ctx context.Context, accessToken, reason string) error
	GetFile(ctx context.Context, accessToken string) ([]byte, error)
}

// signingService implements SigningService interface
type signingService struct {
	repos    *repositories.Repositories
	blob     storage.BlobStore
	notifier notify.Notifier
	appURL   string
}

// NewSigningService creates a new signing service
func NewSigningService(repos *repositories.Repositories, blob storage.BlobStore, notifier notify.Notifier, appURL string) SigningService {
	return &signingService{
		repos:    repos,
		blob:     blob,
		notifier: notifier,
		appURL:   strings.TrimRight(appURL, "/"),
	}
}

// resolve looks up the signer behind an access token together with its
// document, flipping the document to expired when its deadline has passed
func (s *signingService) resolve(ctx context.Context, accessToken string) (*models.Signer, *models.Document, error) {
	signer, err := s.repos.Signers.GetByToken(ctx, accessToken)
	if err != nil {
		return nil, nil, err
	}

	doc, err := s.repos.Documents.GetByID(ctx, signer.DocumentID)
	if err != nil {
		return nil, nil, err
	}

	if doc.Status == models.DocumentPending && doc.IsExpired(timeNow()) {
		// Expiry is applied lazily on access rather than by a background job
		if _, err := s.repos.Documents.UpdateStatusIf(ctx, doc.ID, models.DocumentPending, models.DocumentExpired); err != nil {
			return nil, nil, err
		}
		doc.Status = models.DocumentExpired
	}

	if doc.Status == models.DocumentExpired {
		return nil, nil, models.ErrDocumentExpired
	}

	return signer, doc, nil
}

// GetSession returns the signer's view of the document. The first read by
// a pending signer records a single document_viewed audit entry.
func (s *signingService) GetSession(ctx context.Context, accessToken string) (*SigningSession, error) {
	signer, doc, err := s.resolve(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	fields, err := s.repos.Fields.ListBySigner(ctx, doc.ID, signer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}

	if signer.Status == models.SignerPending && doc.Status == models.DocumentPending {
		won, err := s.repos.Signers.UpdateStatusIf(ctx, signer.ID, models.SignerPending, models.SignerViewed)
		if err != nil {
			return nil, err
		}
		// Losing the swap means another request already logged the view
		if won {
			signer.Status = models.SignerViewed
			s.audit(ctx, doc.ID, &signer.ID, models.ActionDocumentViewed, "")
		}
	}

	return &SigningSession{
		DocumentID:    doc.ID,
		DocumentTitle: doc.Title,
		Status:        doc.Status,
		Signer:        signer,
		Fields:        fields,
	}, nil
}

// Submit records the signer's field values and marks them signed. When the
// last signer submits, the completed document pipeline runs.
func (s *signingService) Submit(ctx context.Context, accessToken string, values map[string]string) (*models.Signer, error) {
	signer, doc, err := s.resolve(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	if signer.Status == models.SignerSigned {
		return nil, models.NewValidationError("you have already signed this document")
	}
	if signer.Status == models.SignerDeclined {
		return nil, models.NewValidationError("you have declined this document")
	}
	if doc.Status != models.DocumentPending {
		return nil, models.NewValidationError("document is no longer accepting signatures")
	}
	if len(values) == 0 {
		return nil, models.NewValidationError("no field values submitted")
	}

	fields, err := s.repos.Fields.ListBySigner(ctx, doc.ID, signer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}
	if len(fields) == 0 {
		return nil, models.NewValidationError("no fields are assigned to you")
	}

	fieldByID := make(map[string]*models.SignatureField, len(fields))
	for i := range fields {
		fieldByID[fields[i].ID] = &fields[i]
	}

	// Validate everything before writing anything
	parsed := make(map[string]string, len(values))
	for fieldID, raw := range values {
		field, ok := fieldByID[fieldID]
		if !ok {
			return nil, models.NewValidationError("field %s is not part of this document", fieldID)
		}

		value, err := models.ParseFieldValue(field.Type, raw)
		if err != nil {
			return nil, err
		}
		parsed[fieldID] = value.Raw()
	}

	for _, field := range fields {
		if !field.Required {
			continue
		}
		if _, submitted := parsed[field.ID]; submitted || field.HasValue() {
			continue
		}
		return nil, models.NewValidationError("required field %s is missing a value", field.ID)
	}

	for fieldID, value := range parsed {
		if err := s.repos.Fields.SetValue(ctx, fieldID, value); err != nil {
			return nil, fmt.Errorf("failed to store field value: %w", err)
		}
	}

	now := timeNow()
	if err := s.repos.Signers.MarkSigned(ctx, signer.ID, now); err != nil {
		return nil, err
	}
	signer.Status = models.SignerSigned
	signer.SignedAt = &now

	metadata, _ := json.Marshal(map[string]int{"fields_signed": len(parsed)})
	s.audit(ctx, doc.ID, &signer.ID, models.ActionDocumentSigned, string(metadata))

	s.maybeComplete(ctx, doc)

	return signer, nil
}

// Decline records the signer's refusal and closes the document
func (s *signingService) Decline(ctx context.Context, accessToken, reason string) error {
	signer, doc, err := s.resolve(ctx, accessToken)
	if err != nil {
		return err
	}

	if signer.Status == models.SignerSigned {
		return models.NewValidationError("you have already signed this document")
	}
	if signer.Status == models.SignerDeclined {
		return models.NewValidationError("you have already declined this document")
	}
	if doc.Status != models.DocumentPending {
		return models.NewValidationError("document is no longer accepting signatures")
	}

	won, err := s.repos.Signers.UpdateStatusIf(ctx, signer.ID, signer.Status, models.SignerDeclined)
	if err != nil {
		return err
	}
	if !won {
		return models.NewValidationError("your signing status has changed, reload the document")
	}

	if _, err := s.repos.Documents.UpdateStatusIf(ctx, doc.ID, models.DocumentPending, models.DocumentDeclined); err != nil {
		return err
	}

	metadata, _ := json.Marshal(map[string]string{"reason": reason})
	s.audit(ctx, doc.ID, &signer.ID, models.ActionDocumentDeclined, string(metadata))

	return nil
}

// GetFile returns the document PDF for a signer
func (s *signingService) GetFile(ctx context.Context, accessToken string) ([]byte, error) {
	_, doc, err := s.resolve(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return s.blob.Get(ctx, doc.FileKey)
}

// maybeComplete finalizes the document when every signer has signed. The
// pending→completing swap guarantees only one caller runs the completion
// even when the last two signers submit at the same moment. Failures are
// logged and never surfaced to the submitting signer.
func (s *signingService) maybeComplete(ctx context.Context, doc *models.Document) {
	allSigned, err := s.repos.Signers.AllSigned(ctx, doc.ID)
	if err != nil {
		log.Printf("failed to check signer completion for %s: %v", doc.ID, err)
		return
	}
	if !allSigned {
		return
	}

	won, err := s.repos.Documents.UpdateStatusIf(ctx, doc.ID, models.DocumentPending, models.DocumentCompleting)
	if err != nil {
		log.Printf("failed to claim completion of %s: %v", doc.ID, err)
		return
	}
	if !won {
		return
	}

	s.complete(ctx, doc)
}

// complete marks the document completed and swaps its artifact for the
// merged, certificate-stamped PDF. Rendering and storage failures never
// block the status transition: the document still completes and keeps the
// original PDF as its artifact.
func (s *signingService) complete(ctx context.Context, doc *models.Document) {
	signers, err := s.repos.Signers.ListByDocument(ctx, doc.ID)
	if err != nil {
		log.Printf("failed to list signers of %s: %v", doc.ID, err)
	}

	fileKey := doc.FileKey
	if signedKey, err := s.buildArtifact(ctx, doc, signers); err != nil {
		log.Printf("completion pipeline failed for %s, keeping original artifact: %v", doc.ID, err)
	} else if err := s.repos.Documents.UpdateFileKey(ctx, doc.ID, signedKey); err != nil {
		log.Printf("failed to update file key of %s: %v", doc.ID, err)
	} else {
		fileKey = signedKey
	}

	won, err := s.repos.Documents.UpdateStatusIf(ctx, doc.ID, models.DocumentCompleting, models.DocumentCompleted)
	if err != nil {
		log.Printf("failed to complete %s: %v", doc.ID, err)
		return
	}
	if !won {
		log.Printf("document %s left completing state unexpectedly", doc.ID)
		return
	}

	s.audit(ctx, doc.ID, nil, models.ActionDocumentCompleted, "")

	downloadURL := s.appURL + "/files/" + fileKey
	if doc.OwnerEmail != "" {
		notice := notify.CompletionNotice{
			To:            doc.OwnerEmail,
			RecipientName: doc.OwnerName,
			DocumentTitle: doc.Title,
			DownloadURL:   downloadURL,
		}
		if err := s.notifier.SendCompletionNotice(ctx, notice); err != nil {
			log.Printf("failed to notify owner of %s: %v", doc.ID, err)
		}
	}

	for _, signer := range signers {
		notice := notify.CompletionNotice{
			To:            signer.Email,
			RecipientName: signer.Name,
			DocumentTitle: doc.Title,
			DownloadURL:   downloadURL,
		}
		if err := s.notifier.SendCompletionNotice(ctx, notice); err != nil {
			log.Printf("failed to notify signer %s: %v", signer.Email, err)
		}
	}
}

// buildArtifact renders the final PDF: field values burned into the
// original, followed by the completion certificate, stored under a stable
// per-document key.
func (s *signingService) buildArtifact(ctx context.Context, doc *models.Document, signers []models.Signer) (string, error) {
	original, err := s.blob.Get(ctx, doc.FileKey)
	if err != nil {
		return "", fmt.Errorf("failed to load original file: %w", err)
	}

	fields, err := s.repos.Fields.ListByDocument(ctx, doc.ID)
	if err != nil {
		return "", fmt.Errorf("failed to list fields: %w", err)
	}

	merged, fieldErrs, err := pdf.MergeFields(original, fields)
	if err != nil {
		return "", fmt.Errorf("failed to merge fields: %w", err)
	}
	for _, fe := range fieldErrs {
		log.Printf("document %s: %v", doc.ID, fe)
	}

	roster := make([]pdf.CertificateSigner, 0, len(signers))
	for _, signer := range signers {
		cs := pdf.CertificateSigner{Name: signer.Name, Email: signer.Email}
		if cs.Name == "" {
			cs.Name = signer.Email
		}
		if signer.SignedAt != nil {
			cs.SignedAt = *signer.SignedAt
		}
		roster = append(roster, cs)
	}

	cert, err := pdf.GenerateCertificate(doc.Title, roster)
	if err != nil {
		return "", fmt.Errorf("failed to generate certificate: %w", err)
	}

	final, err := pdf.Combine(merged, cert)
	if err != nil {
		return "", fmt.Errorf("failed to combine documents: %w", err)
	}

	signedKey := "documents/" + doc.ID + "/signed.pdf"
	if _, err := s.blob.Put(ctx, signedKey, final, true); err != nil {
		return "", fmt.Errorf("failed to store signed file: %w", err)
	}

	return signedKey, nil
}

// audit appends a document event; audit failures are logged, never fatal
func (s *signingService) audit(ctx context.Context, documentID string, signerID *string, action, metadata string) {
	entry := &models.AuditLogEntry{
		DocumentID: documentID,
		SignerID:   signerID,
		Action:     action,
		IPAddress:  userctx.GetClientIP(ctx),
		UserAgent:  userctx.GetUserAgent(ctx),
		Metadata:   metadata,
	}
	if err := s.repos.Audit.Create(ctx, entry); err != nil {
		log.Printf("failed to record %s audit entry for %s: %v", action, documentID, err)
	}
}
