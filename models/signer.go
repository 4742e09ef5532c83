package models

import (
	"strings"
	"time"
)

// SignerStatus represents the lifecycle state of a single signer
type SignerStatus string

const (
	SignerPending  SignerStatus = "pending"
	SignerViewed   SignerStatus = "viewed"
	SignerSigned   SignerStatus = "signed"
	SignerDeclined SignerStatus = "declined"
)

var signerTransitions = map[SignerStatus][]SignerStatus{
	SignerPending: {SignerViewed, SignerSigned, SignerDeclined},
	SignerViewed:  {SignerSigned, SignerDeclined},
}

// CanTransition reports whether moving from s to target is allowed
func (s SignerStatus) CanTransition(target SignerStatus) bool {
	for _, t := range signerTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Signer represents a party invited to sign a document. The access token is
// the sole bearer credential for the public signing link; it is minted once
// and never rotated.
type Signer struct {
	ID          string       `json:"id" db:"id"`
	DocumentID  string       `json:"document_id" db:"document_id"`
	Email       string       `json:"email" db:"email"`
	Name        string       `json:"name" db:"name"`
	Status      SignerStatus `json:"status" db:"status"`
	SignedAt    *time.Time   `json:"signed_at,omitempty" db:"signed_at"`
	AccessToken string       `json:"-" db:"access_token"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}

// SignerForm represents signer data submitted when sending a document.
// Ref is the client-side placeholder ID that placed fields refer to.
type SignerForm struct {
	Ref   string `json:"ref"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Validate validates the signer form data
func (f *SignerForm) Validate() []string {
	var errors []string

	if strings.TrimSpace(f.Email) == "" {
		errors = append(errors, "Signer email is required")
	} else if !isValidEmail(f.Email) {
		errors = append(errors, "Signer email format is invalid")
	}

	if len(f.Name) > 100 {
		errors = append(errors, "Signer name must be less than 100 characters")
	}

	if len(f.Email) > 255 {
		errors = append(errors, "Signer email must be less than 255 characters")
	}

	return errors
}
