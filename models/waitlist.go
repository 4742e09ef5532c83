package models

import (
	"strings"
	"time"
)

// WaitlistEntry represents an email captured from the landing page
type WaitlistEntry struct {
	ID        int64     `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// WaitlistForm represents form data for joining the waitlist
type WaitlistForm struct {
	Email string `json:"email"`
}

// Validate validates the waitlist form data
func (f *WaitlistForm) Validate() []string {
	var errors []string

	email := strings.TrimSpace(f.Email)
	if email == "" {
		errors = append(errors, "Email is required")
	} else if !isValidEmail(email) {
		errors = append(errors, "Email format is invalid")
	}

	return errors
}
