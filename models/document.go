package models

import (
	"time"
)

// DocumentStatus represents the lifecycle state of a document
type DocumentStatus string

const (
	DocumentDraft      DocumentStatus = "draft"
	DocumentPending    DocumentStatus = "pending"
	DocumentCompleting DocumentStatus = "completing"
	DocumentCompleted  DocumentStatus = "completed"
	DocumentExpired    DocumentStatus = "expired"
	DocumentDeclined   DocumentStatus = "declined"
)

// documentTransitions lists the allowed status transitions. "completing" is
// a short-lived guard state: the submission that wins the pending→completing
// swap is the only one that runs the merge pipeline.
var documentTransitions = map[DocumentStatus][]DocumentStatus{
	DocumentDraft:      {DocumentPending},
	DocumentPending:    {DocumentCompleting, DocumentExpired, DocumentDeclined},
	DocumentCompleting: {DocumentCompleted},
}

// CanTransition reports whether moving from s to target is allowed
func (s DocumentStatus) CanTransition(target DocumentStatus) bool {
	for _, t := range documentTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions
func (s DocumentStatus) IsTerminal() bool {
	return len(documentTransitions[s]) == 0
}

// Document represents an uploaded PDF awaiting or holding signatures.
// FileKey points at the current artifact in blob storage; completion
// replaces it with the merged, certificate-stamped PDF.
type Document struct {
	ID         string         `json:"id" db:"id"`
	UserID     string         `json:"user_id" db:"user_id"`
	OwnerEmail string         `json:"-" db:"owner_email"`
	OwnerName  string         `json:"-" db:"owner_name"`
	Title      string         `json:"title" db:"title"`
	FileKey    string         `json:"file_key" db:"file_key"`
	Status     DocumentStatus `json:"status" db:"status"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" db:"updated_at"`
	ExpiresAt  *time.Time     `json:"expires_at,omitempty" db:"expires_at"`
}

// IsExpired reports whether the document's expiry date has passed
func (d *Document) IsExpired(now time.Time) bool {
	return d.ExpiresAt != nil && now.After(*d.ExpiresAt)
}
