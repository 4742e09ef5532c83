package models

import "time"

// Audit action tags
const (
	ActionDocumentSent      = "document_sent"
	ActionDocumentViewed    = "document_viewed"
	ActionDocumentSigned    = "document_signed"
	ActionDocumentDeclined  = "document_declined"
	ActionDocumentCompleted = "document_completed"
)

// AuditLogEntry represents an immutable, append-only record of a document
// event. Entries are written once and never updated or deleted.
type AuditLogEntry struct {
	ID         int64     `json:"id" db:"id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	SignerID   *string   `json:"signer_id,omitempty" db:"signer_id"`
	Action     string    `json:"action" db:"action"`
	IPAddress  string    `json:"ip_address" db:"ip_address"`
	UserAgent  string    `json:"user_agent" db:"user_agent"`
	Metadata   string    `json:"metadata" db:"metadata"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
