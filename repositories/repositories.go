package repositories

import (
	"database/sql"
)

// Repositories struct holds all repository interfaces
type Repositories struct {
	Documents DocumentRepository
	Signers   SignerRepository
	Fields    FieldRepository
	Audit     AuditRepository
	Waitlist  WaitlistRepository
}

// NewRepositories creates and initializes all repositories
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Documents: NewDocumentRepository(db),
		Signers:   NewSignerRepository(db),
		Fields:    NewFieldRepository(db),
		Audit:     NewAuditRepository(db),
		Waitlist:  NewWaitlistRepository(db),
	}
}
